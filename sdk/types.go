package voicecore

import (
	"github.com/kithai-ai/voicecore/pkg/core/types"
)

// Re-exported core types so callers can work with the SDK package
// alone.
type (
	Role             = types.Role
	ConversationTurn = types.ConversationTurn
	GroundingRef     = types.GroundingRef

	ToolDeclaration = types.ToolDeclaration
	SchedulingMode  = types.SchedulingMode

	PersonaConfig = types.PersonaConfig
	GlobalRule    = types.GlobalRule
	MemorySnippet = types.MemorySnippet
	AppKnowledge  = types.AppKnowledge
	InstalledApp  = types.InstalledApp

	Modality      = types.Modality
	SessionConfig = types.SessionConfig

	TransportEvent            = types.TransportEvent
	InputTranscriptionEvent   = types.InputTranscriptionEvent
	OutputTranscriptionEvent  = types.OutputTranscriptionEvent
	ContentEvent              = types.ContentEvent
	ToolCallEvent             = types.ToolCallEvent
	TurnCompleteEvent         = types.TurnCompleteEvent
	SessionErrorEvent         = types.SessionErrorEvent
)

const (
	RoleUser   = types.RoleUser
	RoleAgent  = types.RoleAgent
	RoleSystem = types.RoleSystem

	SchedulingSilent    = types.SchedulingSilent
	SchedulingInterrupt = types.SchedulingInterrupt

	ModalityAudio = types.ModalityAudio
	ModalityText  = types.ModalityText
)
