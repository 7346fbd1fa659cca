package prompt

import (
	"strings"
	"testing"

	"github.com/kithai-ai/voicecore/pkg/core/types"
)

func TestBuildInstruction_EmptySectionsOmitted(t *testing.T) {
	persona := types.PersonaConfig{Instruction: "You are a test persona."}

	got := BuildInstruction("BASE POLICY", nil, persona, nil, nil)

	want := "BASE POLICY\n\nYou are a test persona."
	if got != want {
		t.Errorf("instruction = %q, want %q", got, want)
	}
	for _, marker := range []string{"GLOBAL RULES", "INSTALLED APPLICATIONS", "RELEVANT MEMORIES"} {
		if strings.Contains(got, marker) {
			t.Errorf("empty instruction contains section marker %q", marker)
		}
	}
}

func TestBuildInstruction_RulesInOrder(t *testing.T) {
	rules := []types.GlobalRule{
		{Text: "first rule"},
		{Text: "second rule"},
	}

	got := BuildInstruction("base", rules, types.PersonaConfig{Instruction: "persona"}, nil, nil)

	if !strings.Contains(got, "GLOBAL RULES (FROM SUPER ADMIN - NON-NEGOTIABLE):") {
		t.Fatal("missing global rules framing")
	}
	first := strings.Index(got, "- first rule")
	second := strings.Index(got, "- second rule")
	if first < 0 || second < 0 {
		t.Fatalf("rules not rendered: %q", got)
	}
	if first > second {
		t.Error("rules rendered out of creation order")
	}
}

func TestBuildInstruction_SectionOrderFixed(t *testing.T) {
	rules := []types.GlobalRule{{Text: "rule"}}
	installed := []types.InstalledApp{{Title: "Notes", Description: "a notes app"}}
	memories := []types.MemorySnippet{{Text: "likes coffee"}}

	got := BuildInstruction("base", rules, types.PersonaConfig{Instruction: "persona"}, installed, memories)

	positions := []int{
		strings.Index(got, "base"),
		strings.Index(got, "GLOBAL RULES"),
		strings.Index(got, "persona"),
		strings.Index(got, "INSTALLED APPLICATIONS"),
		strings.Index(got, "RELEVANT MEMORIES"),
	}
	for i := 1; i < len(positions); i++ {
		if positions[i] < 0 || positions[i] < positions[i-1] {
			t.Fatalf("sections out of order: %v", positions)
		}
	}
}

func TestBuildInstruction_Deterministic(t *testing.T) {
	rules := []types.GlobalRule{{Text: "rule"}}
	memories := []types.MemorySnippet{{Text: "fact"}}

	a := BuildInstruction("base", rules, DefaultPersona(), nil, memories)
	b := BuildInstruction("base", rules, DefaultPersona(), nil, memories)
	if a != b {
		t.Error("identical inputs produced different instructions")
	}
}

func TestFormatKnowledge_Structured(t *testing.T) {
	app := types.InstalledApp{
		Title: "CRM",
		Knowledge: &types.AppKnowledge{
			CorePurpose:      "track customers",
			KeyFeatures:      []string{"contacts", "pipelines"},
			UseCases:         []string{"sales follow-up", "reporting"},
			InteractionModel: "web dashboard",
			TargetAudience:   "sales teams",
			PotentialQueries: []string{"who is my top lead?", "open the CRM"},
		},
	}

	got := formatKnowledge(&app)

	for _, want := range []string{
		"**Core Purpose:** track customers",
		"**Key Features:** contacts, pipelines.",
		"**Common Use Cases:** sales follow-up; reporting.",
		"**How to Use:** Interacts via web dashboard.",
		"**Good for:** sales teams.",
		`"who is my top lead?", "open the CRM"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("knowledge block missing %q in %q", want, got)
		}
	}
}

func TestFormatKnowledge_Fallbacks(t *testing.T) {
	withSummary := types.InstalledApp{Summary: "plain summary", Description: "desc"}
	if got := formatKnowledge(&withSummary); got != "plain summary" {
		t.Errorf("got %q, want summary fallback", got)
	}

	withDescription := types.InstalledApp{Description: "desc"}
	if got := formatKnowledge(&withDescription); got != "desc" {
		t.Errorf("got %q, want description fallback", got)
	}

	bare := types.InstalledApp{}
	if got := formatKnowledge(&bare); got != "No detailed analysis available." {
		t.Errorf("got %q, want placeholder", got)
	}
}

func TestBuildInstruction_MemoriesRendered(t *testing.T) {
	memories := []types.MemorySnippet{
		{Text: "prefers morning meetings", Score: 0.91},
		{Text: "allergic to peanuts", Score: 0.82},
	}

	got := BuildInstruction("base", nil, types.PersonaConfig{Instruction: "p"}, nil, memories)

	if !strings.Contains(got, "CONTEXTUALLY RELEVANT MEMORIES & KNOWLEDGE:") {
		t.Fatal("missing memory framing")
	}
	if !strings.Contains(got, "- prefers morning meetings") ||
		!strings.Contains(got, "- allergic to peanuts") {
		t.Errorf("memories not rendered: %q", got)
	}
}
