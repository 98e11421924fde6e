// Package common holds the data types shared between storage, retrieval
// and transport.
package common

// Chunk is one stored fragment of an article with its vector-search score.
type Chunk struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

// Article is a raw corpus document before chunking.
type Article struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Source   string   `json:"source"`
	Entities []string `json:"entities"`
}

// Document is an assembled context block handed to answer generation.
type Document struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}
