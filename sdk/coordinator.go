// Package voicecore is the runtime core of a voice-driven
// conversational agent: turn aggregation, session configuration
// assembly, and the live gateway transport.
package voicecore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kithai-ai/voicecore/pkg/core/types"
	"github.com/kithai-ai/voicecore/pkg/knowledge"
	"github.com/kithai-ai/voicecore/pkg/memory"
	"github.com/kithai-ai/voicecore/pkg/metrics"
	"github.com/kithai-ai/voicecore/pkg/prompt"
	"github.com/kithai-ai/voicecore/pkg/tools"
	"github.com/kithai-ai/voicecore/pkg/turnlog"
)

// Persister receives finalized conversation state. Failures are logged
// and never block the session; in-memory state stays authoritative.
type Persister interface {
	AppendTurn(ctx context.Context, turn *types.ConversationTurn) error
	ClearTurns(ctx context.Context) error
	UpdateAppKnowledge(ctx context.Context, app *types.InstalledApp) error
}

// ToolHandler executes one tool invocation and returns the response
// payload sent back to the gateway.
type ToolHandler func(ctx context.Context, args map[string]any) (map[string]any, error)

// SessionCoordinator owns all session state. Every mutation funnels
// through it, recomputes the merged tool set and system instruction,
// and pushes one new SessionConfig to the transport. Pushes are
// coalesced: while one is in flight, newer configurations replace the
// pending one and only the latest is ever sent.
type SessionCoordinator struct {
	log       *slog.Logger
	transport Transport
	turns     *turnlog.Log
	registry  *tools.Registry

	store     Persister            // optional
	memory    *memory.Engine       // optional
	knowledge *knowledge.Generator // optional

	toolHandlers map[string]ToolHandler

	mu                   sync.Mutex
	basePolicy           string
	persona              types.PersonaConfig
	rules                []types.GlobalRule
	installed            []types.InstalledApp
	relevant             []types.MemorySnippet
	integrationConnected bool
	modality             types.Modality

	pushMu  sync.Mutex
	pending *types.SessionConfig
	kick    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	closeOnce sync.Once
}

// NewSessionCoordinator creates a coordinator over the given transport.
func NewSessionCoordinator(transport Transport, opts ...Option) *SessionCoordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &SessionCoordinator{
		log:          slog.Default(),
		transport:    transport,
		turns:        turnlog.New(),
		registry:     tools.NewRegistry(),
		toolHandlers: make(map[string]ToolHandler),
		basePolicy:   prompt.DefaultBasePolicy,
		persona:      prompt.DefaultPersona(),
		modality:     types.ModalityAudio,
		kick:         make(chan struct{}, 1),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registerCoreHandlers()
	return c
}

// Start launches the event router and config pusher, then pushes the
// initial configuration.
func (c *SessionCoordinator) Start() {
	c.startOnce.Do(func() {
		c.wg.Add(2)
		go c.pushLoop()
		go c.eventLoop()
		c.schedulePush()
	})
}

// Close cancels all in-flight async work, closes the transport, and
// waits for the coordinator's goroutines.
func (c *SessionCoordinator) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.transport.Close()
		c.wg.Wait()
	})
	return err
}

// Turns returns a snapshot of the live conversation.
func (c *SessionCoordinator) Turns() []types.ConversationTurn {
	return c.turns.Snapshot()
}

// History returns archived conversation sequences, most recent first.
func (c *SessionCoordinator) History() [][]types.ConversationTurn {
	return c.turns.History()
}

// SetPersona replaces the persona and pushes a new configuration.
func (c *SessionCoordinator) SetPersona(p types.PersonaConfig) {
	c.mu.Lock()
	c.persona = p
	c.mu.Unlock()
	c.schedulePush()
}

// SetVoice changes only the persona's voice.
func (c *SessionCoordinator) SetVoice(voiceID string) {
	c.mu.Lock()
	c.persona.VoiceID = voiceID
	c.mu.Unlock()
	c.schedulePush()
}

// SetResponseModality switches between audio and text responses.
func (c *SessionCoordinator) SetResponseModality(m types.Modality) {
	c.mu.Lock()
	c.modality = m
	c.mu.Unlock()
	c.schedulePush()
}

// SetGlobalRules replaces the rule set.
func (c *SessionCoordinator) SetGlobalRules(rules []types.GlobalRule) {
	c.mu.Lock()
	c.rules = append([]types.GlobalRule(nil), rules...)
	c.mu.Unlock()
	c.schedulePush()
}

// SetIntegrationConnected toggles the integration tool preset.
func (c *SessionCoordinator) SetIntegrationConnected(connected bool) {
	c.mu.Lock()
	c.integrationConnected = connected
	c.mu.Unlock()
	c.schedulePush()
}

// SetInstalledApps replaces the installed-app context and triggers
// knowledge generation for apps that lack structured analysis.
func (c *SessionCoordinator) SetInstalledApps(apps []types.InstalledApp) {
	c.mu.Lock()
	c.installed = append([]types.InstalledApp(nil), apps...)
	c.mu.Unlock()
	c.schedulePush()
	c.triggerKnowledgeRefresh()
}

// AddTool adds a placeholder declaration to the user tool list.
func (c *SessionCoordinator) AddTool() types.ToolDeclaration {
	t := c.registry.Add()
	c.schedulePush()
	return t
}

// RemoveTool removes a user tool.
func (c *SessionCoordinator) RemoveTool(name string) bool {
	ok := c.registry.Remove(name)
	if ok {
		c.schedulePush()
	}
	return ok
}

// ToggleTool flips a user tool's enabled flag.
func (c *SessionCoordinator) ToggleTool(name string) bool {
	ok := c.registry.Toggle(name)
	if ok {
		c.schedulePush()
	}
	return ok
}

// UpdateTool replaces a user tool declaration. A rename collision or
// malformed schema is rejected and the active config is unchanged.
func (c *SessionCoordinator) UpdateTool(oldName string, updated types.ToolDeclaration) error {
	if err := c.registry.Update(oldName, updated); err != nil {
		return err
	}
	c.schedulePush()
	return nil
}

// RegisterToolHandler installs the executor for a declared tool.
func (c *SessionCoordinator) RegisterToolHandler(name string, h ToolHandler) {
	c.mu.Lock()
	c.toolHandlers[name] = h
	c.mu.Unlock()
}

// ClearConversation resets the live turn log. With archive set, the
// cleared sequence is prepended to history.
func (c *SessionCoordinator) ClearConversation(archive bool) {
	c.turns.Reset(archive)
}

// Logout discards the active conversation without archiving it, clears
// the relevant memories, and deletes the persisted conversation.
// In-flight async work for the old session is discarded via a fresh
// epoch.
func (c *SessionCoordinator) Logout(ctx context.Context) {
	c.turns.Reset(false)
	c.mu.Lock()
	c.relevant = nil
	c.mu.Unlock()
	if c.memory != nil {
		c.memory.NextEpoch()
	}
	if c.knowledge != nil {
		c.knowledge.NextEpoch()
	}
	if c.store != nil {
		if err := c.store.ClearTurns(ctx); err != nil {
			metrics.PersistenceFailures.WithLabelValues("clear_turns").Inc()
			c.log.Warn("failed to clear persisted turns", "error", err)
		}
	}
	c.schedulePush()
}

// buildConfig assembles the full session configuration from current
// state.
func (c *SessionCoordinator) buildConfig() *types.SessionConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	instruction := prompt.BuildInstruction(c.basePolicy, c.rules, c.persona, c.installed, c.relevant)
	return &types.SessionConfig{
		ResponseModality:    c.modality,
		VoiceID:             c.persona.VoiceID,
		InputTranscription:  true,
		OutputTranscription: true,
		Instruction:         instruction,
		Tools:               c.registry.ActiveTools(c.integrationConnected),
	}
}

// schedulePush queues the latest configuration. A pending configuration
// that was never sent is replaced, not queued behind.
func (c *SessionCoordinator) schedulePush() {
	cfg := c.buildConfig()

	c.pushMu.Lock()
	if c.pending != nil {
		metrics.ConfigsCoalesced.Inc()
	}
	c.pending = cfg
	c.pushMu.Unlock()

	select {
	case c.kick <- struct{}{}:
	default:
	}
}

func (c *SessionCoordinator) pushLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.kick:
		}

		for {
			c.pushMu.Lock()
			cfg := c.pending
			c.pending = nil
			c.pushMu.Unlock()
			if cfg == nil {
				break
			}

			if err := c.transport.PushConfig(c.ctx, cfg); err != nil {
				c.log.Warn("config push failed", "error", err)
				c.turns.AddSystemTurn("Session configuration could not be applied: " + err.Error())
				break
			}
			metrics.ConfigsPushed.Inc()
		}
	}
}

func (c *SessionCoordinator) eventLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-c.transport.Events():
			if !ok {
				if err := c.transport.Err(); err != nil {
					c.turns.AddSystemTurn("Connection lost: " + err.Error())
				}
				return
			}
			c.route(event)
		}
	}
}

func (c *SessionCoordinator) route(event types.TransportEvent) {
	switch e := event.(type) {
	case types.InputTranscriptionEvent:
		metrics.EventsRouted.WithLabelValues("input_transcription").Inc()
		c.turns.AppendFragment(types.RoleUser, e.Text, e.IsFinal)
		if e.IsFinal {
			c.onFinalUserTurn()
		}
	case types.OutputTranscriptionEvent:
		metrics.EventsRouted.WithLabelValues("output_transcription").Inc()
		c.turns.AppendFragment(types.RoleAgent, e.Text, e.IsFinal)
	case types.ContentEvent:
		metrics.EventsRouted.WithLabelValues("content").Inc()
		c.turns.AppendContent(e.Text, e.Grounding)
	case types.ToolCallEvent:
		metrics.EventsRouted.WithLabelValues("tool_call").Inc()
		c.handleToolCall(e)
	case types.TurnCompleteEvent:
		metrics.EventsRouted.WithLabelValues("turn_complete").Inc()
		c.turns.ForceComplete()
		c.persistLastTurn()
	case types.SessionErrorEvent:
		metrics.EventsRouted.WithLabelValues("error").Inc()
		c.turns.AddSystemTurn("Connection error: " + e.Message)
	}
}

// onFinalUserTurn kicks off the async relevant-memory recomputation.
// At most one computation per trigger is in flight; a newer trigger
// supersedes older results no matter the completion order.
func (c *SessionCoordinator) onFinalUserTurn() {
	last, ok := c.turns.Last()
	if !ok || last.Role != types.RoleUser || last.Text == "" {
		return
	}
	c.persistTurn(last)

	if c.memory == nil {
		return
	}
	query := last.Text
	epoch := c.memory.NextEpoch()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		relevant, err := c.memory.Relevant(c.ctx, query)
		if err != nil {
			metrics.MemoryRecomputations.WithLabelValues("error").Inc()
			c.log.Warn("memory recomputation failed", "error", err)
			return
		}
		// Staleness is checked under the same lock as the assignment so
		// a superseded result can never land after a newer one.
		c.mu.Lock()
		if c.memory.Stale(epoch) || c.ctx.Err() != nil {
			c.mu.Unlock()
			metrics.MemoryRecomputations.WithLabelValues("stale").Inc()
			return
		}
		c.relevant = relevant
		c.mu.Unlock()
		metrics.MemoryRecomputations.WithLabelValues("applied").Inc()
		c.schedulePush()
	}()
}

// triggerKnowledgeRefresh asynchronously generates structured knowledge
// for installed apps that lack it, then pushes the enriched context.
func (c *SessionCoordinator) triggerKnowledgeRefresh() {
	if c.knowledge == nil {
		return
	}
	c.mu.Lock()
	apps := append([]types.InstalledApp(nil), c.installed...)
	c.mu.Unlock()
	epoch := c.knowledge.NextEpoch()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		enriched := c.knowledge.Enrich(c.ctx, apps)
		c.mu.Lock()
		if c.knowledge.Stale(epoch) || c.ctx.Err() != nil {
			c.mu.Unlock()
			return
		}
		c.installed = enriched
		c.mu.Unlock()
		c.persistAppKnowledge(apps, enriched)
		c.schedulePush()
	}()
}

// persistAppKnowledge writes back analyses gained during enrichment.
func (c *SessionCoordinator) persistAppKnowledge(before, after []types.InstalledApp) {
	if c.store == nil {
		return
	}
	prior := make(map[int64]types.InstalledApp, len(before))
	for _, app := range before {
		prior[app.ID] = app
	}
	for i := range after {
		p := prior[after[i].ID]
		gainedKnowledge := after[i].Knowledge != nil && p.Knowledge == nil
		gainedSummary := after[i].Summary != "" && after[i].Summary != p.Summary
		if !gainedKnowledge && !gainedSummary {
			continue
		}
		if err := c.store.UpdateAppKnowledge(c.ctx, &after[i]); err != nil {
			metrics.PersistenceFailures.WithLabelValues("update_app_knowledge").Inc()
			c.log.Warn("failed to persist app knowledge", "app", after[i].Title, "error", err)
		}
	}
}

func (c *SessionCoordinator) handleToolCall(call types.ToolCallEvent) {
	c.mu.Lock()
	handler, ok := c.toolHandlers[call.Name]
	c.mu.Unlock()

	scheduling := c.schedulingFor(call.Name)
	if !ok {
		_ = c.transport.SendToolResponse(call.ID, call.Name,
			map[string]any{"error": "no handler registered for tool " + call.Name}, scheduling)
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		response, err := handler(c.ctx, call.Args)
		if c.ctx.Err() != nil {
			return
		}
		if err != nil {
			c.log.Warn("tool execution failed", "tool", call.Name, "error", err)
			_ = c.transport.SendToolResponse(call.ID, call.Name,
				map[string]any{"error": err.Error()}, scheduling)
			return
		}
		_ = c.transport.SendToolResponse(call.ID, call.Name, response, scheduling)
	}()
}

func (c *SessionCoordinator) schedulingFor(name string) types.SchedulingMode {
	c.mu.Lock()
	connected := c.integrationConnected
	c.mu.Unlock()
	for _, t := range c.registry.ActiveTools(connected) {
		if t.Name == name {
			if t.Scheduling != "" {
				return t.Scheduling
			}
			break
		}
	}
	return types.SchedulingInterrupt
}

// registerCoreHandlers wires the built-in save_memory and launch_app
// tools. launch_app only acknowledges; actual app presentation is the
// embedding application's concern via the turn log.
func (c *SessionCoordinator) registerCoreHandlers() {
	c.toolHandlers["save_memory"] = func(ctx context.Context, args map[string]any) (map[string]any, error) {
		text, _ := args["text_to_remember"].(string)
		if text == "" {
			return nil, NewValidationError("text_to_remember is required")
		}
		if c.memory == nil {
			return nil, NewValidationError("memory is not configured")
		}
		if _, err := c.memory.Add(ctx, text); err != nil {
			return nil, err
		}
		return map[string]any{"status": "saved"}, nil
	}
	c.toolHandlers["launch_app"] = func(_ context.Context, args map[string]any) (map[string]any, error) {
		name, _ := args["app_name"].(string)
		if name == "" {
			return nil, NewValidationError("app_name is required")
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, app := range c.installed {
			if app.Title == name {
				return map[string]any{"status": "launched", "url": app.URL}, nil
			}
		}
		return nil, NewValidationError("no installed app titled " + name)
	}
}

// persistLastTurn runs at turn completion. User turns are persisted
// when their final fragment arrives, so only the agent turn is written
// here.
func (c *SessionCoordinator) persistLastTurn() {
	last, ok := c.turns.Last()
	if !ok || !last.IsFinal || last.Role != types.RoleAgent {
		return
	}
	c.persistTurn(last)
}

func (c *SessionCoordinator) persistTurn(turn types.ConversationTurn) {
	if c.store == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.store.AppendTurn(c.ctx, &turn); err != nil {
			metrics.PersistenceFailures.WithLabelValues("append_turn").Inc()
			c.log.Warn("failed to persist turn", "role", turn.Role, "error", err)
		}
	}()
}
