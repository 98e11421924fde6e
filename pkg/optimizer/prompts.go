package optimizer

import "fmt"

const systemPromptTemplate = `YOU ARE A GRAPH EDITOR.
Your task: keep only context related to the topic "%s" and find the missing facts.

CURRENT NODE LIST:
%s

HOW TO WORK:
1. NOISE CHECK: go through the list. If a node is unrelated to "%s", call delete_nodes.
2. COMPLETENESS CHECK: if the remaining nodes do not clearly answer the question, pick the most promising entry from AVAILABLE RELATIONS and use expand_nodes_via_relation.
3. FINISH: if the graph contains ONLY exhaustive information for the answer, reply with the single word "DONE" and no tool calls.

IMPORTANT: keep only nodes whose NODE title or DESCRIPTION mentions "%s". Everything else is noise.`

func buildSystemPrompt(query string, graphText string) string {
	return fmt.Sprintf(systemPromptTemplate, query, graphText, query, query)
}
