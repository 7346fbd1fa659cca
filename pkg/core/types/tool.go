package types

import "encoding/json"

// SchedulingMode controls how a tool response is folded back into the
// live conversation.
type SchedulingMode string

const (
	// SchedulingSilent delivers the response without interrupting the
	// agent's current utterance.
	SchedulingSilent SchedulingMode = "silent"

	// SchedulingInterrupt cuts the current utterance so the agent can
	// react to the response immediately.
	SchedulingInterrupt SchedulingMode = "interrupt"
)

// ToolDeclaration describes one callable function exposed to the model.
// Name is the unique key within a merged tool set.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"` // JSON Schema
	Enabled     bool            `json:"enabled"`
	Scheduling  SchedulingMode  `json:"scheduling,omitempty"`
}

// Clone returns a copy that shares no mutable state with the receiver.
func (d ToolDeclaration) Clone() ToolDeclaration {
	out := d
	if len(d.Parameters) > 0 {
		out.Parameters = append(json.RawMessage(nil), d.Parameters...)
	}
	return out
}
