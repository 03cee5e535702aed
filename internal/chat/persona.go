package chat

import (
	"fmt"
	"strings"

	"github.com/softtechniques/softbot/internal/knowledge"
	"github.com/softtechniques/softbot/internal/memory"
)

// systemPrompt defines Softbot's voice. The scheduling rules matter: the
// assistant must route booking requests to the form and never collect
// contact details in chat.
const systemPrompt = `You are Softbot, the friendly assistant for Soft Techniques, a software consultancy.

Your job:
- Answer questions about Soft Techniques using ONLY the company information provided below.
- Be warm, concise and helpful. Use plain sentences and short paragraphs.
- Use dashes for any lists. Never use asterisks, markdown headers or numbered lists.
- Do not mention sources, documents or where your information comes from.

Scheduling rules:
- If the user wants to schedule or book a consultation, direct them to the scheduling form on the website. Do NOT ask for their name, email or any contact details in chat.
- Never invent availability, prices or timelines that are not in the company information.

If the company information does not cover a question, say so honestly and suggest scheduling a free consultation to discuss specifics.`

const (
	// scheduleResponse is returned verbatim for explicit booking requests,
	// skipping the model entirely.
	scheduleResponse = "I'd love to help you set that up! The easiest way is to use the scheduling form on our website - just pick a time that works for you and the team will confirm it right away. Consultations are free thirty-minute video calls on business days."

	// mentionResponse is returned when scheduling words appear without a
	// full booking phrase.
	mentionResponse = "Happy to help with that! If you'd like to talk it through with the team, you can book a free consultation using the scheduling form on our website. In the meantime, is there anything about our services I can answer for you?"

	// apologyResponse goes out when the model call fails.
	apologyResponse = "I'm sorry, I'm having trouble responding right now. Please try again in a moment, or reach us at ask@softtechniques.com."
)

// historyTurns is how many recent turns are folded into the prompt.
const historyTurns = 6

// buildUserPrompt assembles retrieved context, recent history and the new
// message into a single user turn.
func buildUserPrompt(message string, results []knowledge.SearchResult, history []memory.Turn) string {
	var b strings.Builder

	b.WriteString("Company information:\n")
	if len(results) == 0 {
		b.WriteString("(no relevant information found)\n")
	}
	for _, r := range results {
		b.WriteString("---\n")
		b.WriteString(r.Content)
		b.WriteString("\n")
	}

	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	if len(history) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", roleLabel(turn.Role), turn.Content)
		}
	}

	b.WriteString("\nUser message: ")
	b.WriteString(message)

	return b.String()
}

func roleLabel(role string) string {
	switch role {
	case "user":
		return "User"
	case "assistant":
		return "Assistant"
	default:
		return role
	}
}
