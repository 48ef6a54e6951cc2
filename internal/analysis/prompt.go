package analysis

import (
	"fmt"
	"strings"
)

// Prompt returns the generation prompt that asks the provider for a
// ViolationReport as bare JSON.
func Prompt() string {
	categories := make([]string, len(PolicyCategories))
	for i, c := range PolicyCategories {
		categories[i] = fmt.Sprintf("%q: boolean", c)
	}

	var b strings.Builder
	b.WriteString("Review this video for content policy violations. ")
	b.WriteString("Respond with a single JSON object and no surrounding text, using exactly this shape:\n")
	b.WriteString("{\n")
	b.WriteString(`  "summary": string describing the video and any concerns,` + "\n")
	b.WriteString(`  "duration": video length in seconds,` + "\n")
	b.WriteString(`  "violation_count": integer,` + "\n")
	b.WriteString(`  "risk_level": "high" | "medium" | "low",` + "\n")
	b.WriteString(`  "violations": [{"type": string, "description": string, "timestamp": seconds from start, "severity": "high" | "medium" | "low"}],` + "\n")
	fmt.Fprintf(&b, "  \"policy_categories\": {%s},\n", strings.Join(categories, ", "))
	b.WriteString(`  "recommendations": [string]` + "\n")
	b.WriteString("}\n")
	b.WriteString("Set a policy category to true only when the video contains that kind of content. ")
	b.WriteString("If nothing violates policy, return an empty violations list and risk_level \"low\".")
	return b.String()
}
