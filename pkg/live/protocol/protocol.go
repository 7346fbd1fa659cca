// Package protocol defines the wire frames exchanged with the live
// voice gateway over the websocket transport.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kithai-ai/voicecore/pkg/core/types"
)

const (
	ProtocolVersion1 = "1"

	// Audio shape pinned by the gateway: mono PCM16 in at 16 kHz,
	// mono PCM16 out at 24 kHz.
	InputSampleRateHz  = 16000
	OutputSampleRateHz = 24000
)

// DecodeError reports a malformed or unsupported frame.
type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badFrame(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_frame", Message: message, Param: param}
}

// AudioFormat describes the negotiated audio shape.
type AudioFormat struct {
	Encoding     string `json:"encoding"`
	SampleRateHz int    `json:"sample_rate_hz"`
	Channels     int    `json:"channels"`
}

// ToolPayload is a tool declaration on the wire.
type ToolPayload struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Scheduling  string          `json:"scheduling,omitempty"`
}

// ConfigPayload is the session configuration on the wire.
type ConfigPayload struct {
	ResponseModality    string        `json:"response_modality"`
	VoiceID             string        `json:"voice_id,omitempty"`
	InputTranscription  bool          `json:"input_transcription"`
	OutputTranscription bool          `json:"output_transcription"`
	Instruction         string        `json:"instruction,omitempty"`
	Tools               []ToolPayload `json:"tools,omitempty"`
}

// ClientHello opens a session.
type ClientHello struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	AudioIn         AudioFormat `json:"audio_in"`
	AudioOut        AudioFormat `json:"audio_out"`
}

// ClientConfigure applies a full session configuration. Later frames
// replace earlier ones wholesale.
type ClientConfigure struct {
	Type   string        `json:"type"`
	Config ConfigPayload `json:"config"`
}

// ClientAudioFrame carries one block of input audio.
type ClientAudioFrame struct {
	Type    string `json:"type"`
	Seq     int64  `json:"seq,omitempty"`
	DataB64 string `json:"data_b64"`
}

// ClientToolResponse returns a tool invocation result.
type ClientToolResponse struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Response   map[string]any `json:"response,omitempty"`
	Scheduling string         `json:"scheduling,omitempty"`
}

// ClientControl carries a session control op (interrupt, end_session).
type ClientControl struct {
	Type string `json:"type"`
	Op   string `json:"op"`
}

// Server frames.

type ServerInputTranscription struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

type ServerOutputTranscription struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// ServerContent carries agent content and/or grounding references.
type ServerContent struct {
	Type      string               `json:"type"`
	Text      string               `json:"text,omitempty"`
	Grounding []types.GroundingRef `json:"grounding,omitempty"`
}

type ServerToolCall struct {
	Type string         `json:"type"`
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type ServerTurnComplete struct {
	Type string `json:"type"`
}

type ServerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// DecodeServerMessage decodes one text frame from the gateway. Unknown
// frame types return (nil, nil) so new server frames never break old
// clients.
func DecodeServerMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badFrame("decode frame envelope: "+err.Error(), "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badFrame("frame missing type", "type")
	}

	switch typ {
	case "input_transcription":
		var frame ServerInputTranscription
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, badFrame("decode input_transcription: "+err.Error(), "")
		}
		return frame, nil
	case "output_transcription":
		var frame ServerOutputTranscription
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, badFrame("decode output_transcription: "+err.Error(), "")
		}
		return frame, nil
	case "content":
		var frame ServerContent
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, badFrame("decode content: "+err.Error(), "")
		}
		return frame, nil
	case "tool_call":
		var frame ServerToolCall
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, badFrame("decode tool_call: "+err.Error(), "")
		}
		return frame, nil
	case "turn_complete":
		var frame ServerTurnComplete
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, badFrame("decode turn_complete: "+err.Error(), "")
		}
		return frame, nil
	case "error":
		var frame ServerError
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, badFrame("decode error: "+err.Error(), "")
		}
		return frame, nil
	default:
		return nil, nil
	}
}

// ConfigFromSession converts a runtime session config into its wire
// payload.
func ConfigFromSession(cfg *types.SessionConfig) ConfigPayload {
	payload := ConfigPayload{
		ResponseModality:    string(cfg.ResponseModality),
		VoiceID:             cfg.VoiceID,
		InputTranscription:  cfg.InputTranscription,
		OutputTranscription: cfg.OutputTranscription,
		Instruction:         cfg.Instruction,
	}
	for _, t := range cfg.Tools {
		payload.Tools = append(payload.Tools, ToolPayload{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
			Scheduling:  string(t.Scheduling),
		})
	}
	return payload
}
