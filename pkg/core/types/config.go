package types

// Modality selects the response medium of the remote session.
type Modality string

const (
	ModalityAudio Modality = "audio"
	ModalityText  Modality = "text"
)

// SessionConfig is the complete per-session configuration pushed to the
// remote transport. Pushes are idempotent; only the most recently
// computed configuration is ever active.
type SessionConfig struct {
	ResponseModality    Modality          `json:"response_modality"`
	VoiceID             string            `json:"voice_id,omitempty"`
	InputTranscription  bool              `json:"input_transcription"`
	OutputTranscription bool              `json:"output_transcription"`
	Instruction         string            `json:"instruction"`
	Tools               []ToolDeclaration `json:"tools,omitempty"`
}

// Clone returns a copy safe to hand to another goroutine.
func (c SessionConfig) Clone() SessionConfig {
	out := c
	if len(c.Tools) > 0 {
		out.Tools = make([]ToolDeclaration, len(c.Tools))
		for i, t := range c.Tools {
			out.Tools[i] = t.Clone()
		}
	}
	return out
}
