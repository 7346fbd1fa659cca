package types

import "time"

// PersonaConfig is the user-editable identity of the agent.
type PersonaConfig struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
	VoiceID     string `json:"voice_id"`
}

// GlobalRule is an opaque directive with highest instruction precedence.
// Rules are append-only and ordered by creation time.
type GlobalRule struct {
	Text      string    `json:"text"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MemorySnippet is one long-term memory fact. Score is the semantic
// similarity to the query that retrieved it, when known.
type MemorySnippet struct {
	Text      string    `json:"text"`
	Score     float64   `json:"score,omitempty"`
	Embedding []float32 `json:"-"`
}

// AppKnowledge is the structured description generated for an installed
// application.
type AppKnowledge struct {
	CorePurpose      string   `json:"core_purpose"`
	KeyFeatures      []string `json:"key_features"`
	UseCases         []string `json:"use_cases"`
	InteractionModel string   `json:"interaction_model"`
	TargetAudience   string   `json:"target_audience"`
	PotentialQueries []string `json:"potential_queries"`
}

// InstalledApp is one externally available application the agent may
// reference or launch. Knowledge/Summary hold the generated analysis;
// Summary is the plain-text fallback when structured generation failed.
type InstalledApp struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url"`
	LogoURL     string        `json:"logo_url,omitempty"`
	Knowledge   *AppKnowledge `json:"knowledge,omitempty"`
	Summary     string        `json:"summary,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
