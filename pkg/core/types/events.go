package types

// TransportEvent is an inbound event emitted by the remote session.
type TransportEvent interface {
	transportEventType() string
}

// InputTranscriptionEvent carries a fragment of the user's transcribed
// speech.
type InputTranscriptionEvent struct {
	Text    string
	IsFinal bool
}

func (e InputTranscriptionEvent) transportEventType() string { return "input_transcription" }

// OutputTranscriptionEvent carries a fragment of the agent's spoken
// output transcript.
type OutputTranscriptionEvent struct {
	Text    string
	IsFinal bool
}

func (e OutputTranscriptionEvent) transportEventType() string { return "output_transcription" }

// ContentEvent carries generated agent content, optionally with
// grounding references. Text may be empty when only references arrive.
type ContentEvent struct {
	Text      string
	Grounding []GroundingRef
}

func (e ContentEvent) transportEventType() string { return "content" }

// ToolCallEvent asks the client to execute a declared tool.
type ToolCallEvent struct {
	ID   string
	Name string
	Args map[string]any
}

func (e ToolCallEvent) transportEventType() string { return "tool_call" }

// TurnCompleteEvent marks the end of the agent's turn.
type TurnCompleteEvent struct{}

func (e TurnCompleteEvent) transportEventType() string { return "turn_complete" }

// SessionErrorEvent reports a transport-level failure. The session
// remains usable for retry.
type SessionErrorEvent struct {
	Message string
	Code    string
}

func (e SessionErrorEvent) transportEventType() string { return "error" }
