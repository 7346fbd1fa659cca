// Package prompt composes the system instruction pushed with each
// session configuration. Assembly is a pure function of its inputs:
// identical inputs always produce an identical instruction.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kithai-ai/voicecore/pkg/core/types"
)

// BuildInstruction composes the full system instruction in fixed order:
// base policy, global rules, persona, installed applications, relevant
// memories. Empty sections are omitted entirely, framing included, so
// the model never sees an empty section marker.
func BuildInstruction(base string, rules []types.GlobalRule, persona types.PersonaConfig, installed []types.InstalledApp, memories []types.MemorySnippet) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString(rulesSection(rules))
	b.WriteString("\n\n")
	b.WriteString(persona.Instruction)
	b.WriteString(appsSection(installed))
	b.WriteString(memorySection(memories))
	return b.String()
}

func rulesSection(rules []types.GlobalRule) string {
	if len(rules) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n---\nGLOBAL RULES (FROM SUPER ADMIN - NON-NEGOTIABLE):\n")
	b.WriteString("These are core directives that override all other instructions. You MUST adhere to them at all times.\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "- %s\n", r.Text)
	}
	b.WriteString("---\n")
	return b.String()
}

func appsSection(installed []types.InstalledApp) string {
	if len(installed) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n---\nUSER'S INSTALLED APPLICATIONS (YOUR ECOSYSTEM):\n")
	b.WriteString("This is the exclusive list of applications available to you and the user. You have deep, expert-level knowledge of these tools, built from a comprehensive analysis of each application's functionality. When discussing applications, recommending tools, or providing solutions, you MUST exclusively refer to the apps from this list and use your detailed knowledge.\n\n")
	b.WriteString("Be prepared to not only answer questions about them but also to proactively teach the user how to use them, explain their functions, and highlight their importance and benefits. You can also launch any of these apps. When asked to open or launch an app, use the 'launch_app' function with the app's exact title.\n\n")
	b.WriteString("Available Apps & Your In-Depth Knowledge:\n")
	for i := range installed {
		fmt.Fprintf(&b, "- **%s**: %s\n", installed[i].Title, formatKnowledge(&installed[i]))
	}
	b.WriteString("---\n")
	return b.String()
}

func memorySection(memories []types.MemorySnippet) string {
	if len(memories) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n---\nCONTEXTUALLY RELEVANT MEMORIES & KNOWLEDGE:\n")
	b.WriteString("You have retrieved the following information from your long-term memory because it seems highly relevant to our current conversation. You MUST use this context to inform your response and demonstrate your understanding of previous interactions.\n")
	for _, m := range memories {
		fmt.Fprintf(&b, "- %s\n", m.Text)
	}
	b.WriteString("---\n")
	return b.String()
}

// formatKnowledge renders an app's analysis. Structured knowledge wins;
// the plain-text summary is the fallback for apps whose structured
// generation failed, then the install-time description.
func formatKnowledge(app *types.InstalledApp) string {
	if k := app.Knowledge; k != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "\n  - **Core Purpose:** %s\n", k.CorePurpose)
		fmt.Fprintf(&b, "  - **Key Features:** %s.\n", strings.Join(k.KeyFeatures, ", "))
		fmt.Fprintf(&b, "  - **Common Use Cases:** %s.\n", strings.Join(k.UseCases, "; "))
		fmt.Fprintf(&b, "  - **How to Use:** Interacts via %s.\n", k.InteractionModel)
		fmt.Fprintf(&b, "  - **Good for:** %s.\n", k.TargetAudience)
		fmt.Fprintf(&b, `  - **Example Questions to Answer:** "%s"`, strings.Join(k.PotentialQueries, `", "`))
		return b.String()
	}
	if app.Summary != "" {
		return app.Summary
	}
	if app.Description != "" {
		return app.Description
	}
	return "No detailed analysis available."
}
