package retrieval

const splitPrompt = `You are an entity-extraction expert for an LLM pipeline.

Task:
1. If the question is complex, split it into a few (2-3) logical sub-questions.
2. If the question is simple and self-contained, keep it as a single sub-question.
3. Extract every name, term, event and important entity for the original question only. Use the nominative case.
4. Keep sub-questions compact.

Input: Where did Abaddon fight Guilliman?
Output, strictly JSON:
{
  "entities": ["Abaddon", "Guilliman"],
  "questions": [
    {"text": "Where did Abaddon fight?"},
    {"text": "Where did Guilliman fight?"}
  ]
}

User question:
%s`

const answerPrompt = `You are a lore archivist. Answer the user's question using ONLY the context blocks below. If the context does not contain the answer, say so plainly instead of inventing facts. Cite entity titles when you use them.

CONTEXT:
%s`
