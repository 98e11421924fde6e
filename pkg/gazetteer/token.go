package gazetteer

import "unicode"

// Token is a word with its byte offsets into the source text.
type Token struct {
	Text  string
	Start int
	End   int
}

func isWordRune(r rune) bool {
	// marks keep combining accents inside a token
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}

// Tokenize splits text into word tokens at non-word boundaries, preserving
// byte offsets. Punctuation and whitespace never appear inside a token.
func Tokenize(text string) []Token {
	tokens := make([]Token, 0)
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, Token{Text: text[start:i], Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Text: text[start:], Start: start, End: len(text)})
	}
	return tokens
}
