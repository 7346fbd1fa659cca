package voicecore

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kithai-ai/voicecore/pkg/core/types"
	"github.com/kithai-ai/voicecore/pkg/knowledge"
	"github.com/kithai-ai/voicecore/pkg/memory"
	"github.com/kithai-ai/voicecore/pkg/tools"
)

type dialConfig struct {
	connectTimeout time.Duration
	eventBuffer    int
	headers        http.Header
}

// DialOption configures Dial.
type DialOption func(*dialConfig)

// WithConnectTimeout bounds the websocket handshake when the dial
// context has no deadline of its own.
func WithConnectTimeout(d time.Duration) DialOption {
	return func(cfg *dialConfig) {
		if d > 0 {
			cfg.connectTimeout = d
		}
	}
}

// WithEventBuffer sizes the decoded-event channel.
func WithEventBuffer(n int) DialOption {
	return func(cfg *dialConfig) {
		if n > 0 {
			cfg.eventBuffer = n
		}
	}
}

// WithHeaders adds HTTP headers to the websocket handshake, typically
// for authentication.
func WithHeaders(h http.Header) DialOption {
	return func(cfg *dialConfig) {
		cfg.headers = h
	}
}

// Option configures a SessionCoordinator.
type Option func(*SessionCoordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *SessionCoordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithStore enables turn persistence.
func WithStore(store Persister) Option {
	return func(c *SessionCoordinator) {
		c.store = store
	}
}

// WithMemoryEngine enables relevant-memory recomputation and the
// save_memory tool.
func WithMemoryEngine(engine *memory.Engine) Option {
	return func(c *SessionCoordinator) {
		c.memory = engine
	}
}

// WithKnowledgeGenerator enables structured app-knowledge enrichment.
func WithKnowledgeGenerator(gen *knowledge.Generator) Option {
	return func(c *SessionCoordinator) {
		c.knowledge = gen
	}
}

// WithRegistry seeds the coordinator with an existing tool registry.
func WithRegistry(reg *tools.Registry) Option {
	return func(c *SessionCoordinator) {
		if reg != nil {
			c.registry = reg
		}
	}
}

// WithBasePolicy overrides the non-negotiable base instruction block.
func WithBasePolicy(policy string) Option {
	return func(c *SessionCoordinator) {
		if policy != "" {
			c.basePolicy = policy
		}
	}
}

// WithPersona sets the initial persona.
func WithPersona(p types.PersonaConfig) Option {
	return func(c *SessionCoordinator) {
		c.persona = p
	}
}

// WithGlobalRules sets the initial rule set.
func WithGlobalRules(rules []types.GlobalRule) Option {
	return func(c *SessionCoordinator) {
		c.rules = append([]types.GlobalRule(nil), rules...)
	}
}

// WithInstalledApps sets the initial installed-app context.
func WithInstalledApps(apps []types.InstalledApp) Option {
	return func(c *SessionCoordinator) {
		c.installed = append([]types.InstalledApp(nil), apps...)
	}
}

// WithResponseModality sets the initial response modality.
func WithResponseModality(m types.Modality) Option {
	return func(c *SessionCoordinator) {
		c.modality = m
	}
}

// WithIntegrationConnected sets the initial integration state.
func WithIntegrationConnected(connected bool) Option {
	return func(c *SessionCoordinator) {
		c.integrationConnected = connected
	}
}
