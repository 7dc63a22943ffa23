package ai

import (
	"strings"

	"github.com/abhishekrajdhar/ai-pashu/internal/model/chat"
)

// BuildPrompt renders the husbandry prompt sent to the model: the fixed
// preamble, the trimmed query, prior exchanges as Farmer:/AI: lines when the
// transcript is non-empty, and the two-part answer instruction. The wire
// format of the "Previous conversation" block is load-bearing for session
// continuity and must stay stable across releases.
func BuildPrompt(query string, history []chat.Exchange) string {
	var b strings.Builder

	b.WriteString("You are an expert in animal husbandry. ")
	b.WriteString("A farmer has asked the following question:\n\n")
	b.WriteString(strings.TrimSpace(query))
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString("Previous conversation:\n")
		for i, exchange := range history {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("Farmer: ")
			b.WriteString(exchange.Query)
			b.WriteString("\nAI: ")
			b.WriteString(exchange.Answer)
		}
	}
	b.WriteString("\n")

	b.WriteString("Give the response in two parts:\n")
	b.WriteString("1. Answer → direct and practical guidance in simple language.\n")
	b.WriteString("2. Context → explain why this answer is important, provide background info, preventive measures, or related best practices.\n")
	b.WriteString("Keep the explanation simple and actionable for farmers.")

	return b.String()
}
