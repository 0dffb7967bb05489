package coach

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/moneymagic/internal/domain"
)

// BuildPrompt renders the coaching instructions with the dataset as JSON.
func BuildPrompt(question string, summary domain.Summary, subs []domain.Subscription) (string, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("BuildPrompt: encode summary: %w", err)
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}
	subsJSON, err := json.Marshal(subs)
	if err != nil {
		return "", fmt.Errorf("BuildPrompt: encode subscriptions: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a practical personal finance coach. ")
	b.WriteString("Given the user's question and account data, provide concise, actionable guidance.\n\n")
	b.WriteString("Return ONLY valid JSON, with this exact schema:\n")
	b.WriteString("{\n")
	b.WriteString("  \"summary_text\": \"string\",\n")
	b.WriteString("  \"recommendations\": [\n")
	b.WriteString("    {\n")
	b.WriteString("      \"title\": \"string\",\n")
	b.WriteString("      \"savings_impact\": number,\n")
	b.WriteString("      \"steps\": [\"string\", \"string\"]\n")
	b.WriteString("    }\n")
	b.WriteString("  ]\n")
	b.WriteString("}\n\n")
	b.WriteString("Constraints:\n")
	b.WriteString("- recommendations should have 1-3 items.\n")
	b.WriteString("- savings_impact should be a monthly dollar estimate.\n")
	b.WriteString("- Do NOT wrap the response in code fences or add text outside the JSON.\n\n")
	fmt.Fprintf(&b, "User question:\n%s\n\n", question)
	fmt.Fprintf(&b, "Summary JSON:\n%s\n\n", summaryJSON)
	fmt.Fprintf(&b, "Subscriptions JSON:\n%s\n", subsJSON)
	return b.String(), nil
}
