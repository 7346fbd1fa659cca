// Package knowledge generates the structured analysis of installed
// applications that feeds the system instruction's ecosystem block.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
	"google.golang.org/genai"

	"github.com/kithai-ai/voicecore/pkg/core/types"
)

// DefaultModel is the generation model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// ContentModel produces app analyses. GenerateStructured must return
// JSON conforming to the AppKnowledge shape; GenerateSummary returns
// plain prose.
type ContentModel interface {
	GenerateStructured(ctx context.Context, prompt string) (string, error)
	GenerateSummary(ctx context.Context, prompt string) (string, error)
}

// GenAIModel implements ContentModel on the Gemini API.
type GenAIModel struct {
	client *genai.Client
	model  string
}

// NewGenAIModel creates a content model backed by the Gemini API.
func NewGenAIModel(ctx context.Context, apiKey, model string) (*GenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("generation API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create generation client: %w", err)
	}
	return &GenAIModel{client: client, model: model}, nil
}

func knowledgeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"core_purpose": {
				Type:        genai.TypeString,
				Description: "The primary goal or problem the app solves.",
			},
			"key_features": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "A list of 3-5 specific, important features.",
			},
			"use_cases": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "A list of practical scenarios where the app is useful.",
			},
			"interaction_model": {
				Type:        genai.TypeString,
				Description: "How the user interacts with the app (e.g., voice, text, GUI).",
			},
			"target_audience": {
				Type:        genai.TypeString,
				Description: "The primary user demographic for this app.",
			},
			"potential_queries": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Example questions a user might ask about this app.",
			},
		},
		Required: []string{
			"core_purpose", "key_features", "use_cases",
			"interaction_model", "target_audience", "potential_queries",
		},
	}
}

// GenerateStructured asks the model for a schema-constrained JSON
// analysis.
func (m *GenAIModel) GenerateStructured(ctx context.Context, prompt string) (string, error) {
	result, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   knowledgeSchema(),
		})
	if err != nil {
		return "", fmt.Errorf("generate structured knowledge: %w", err)
	}
	return strings.TrimSpace(result.Text()), nil
}

// GenerateSummary asks the model for a plain-text analysis.
func (m *GenAIModel) GenerateSummary(ctx context.Context, prompt string) (string, error) {
	result, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return strings.TrimSpace(result.Text()), nil
}

// Generator enriches installed apps that lack structured knowledge.
// Same supersession rules as memory recomputation: epoch tokens mark
// triggers and stale results are discarded by the caller.
type Generator struct {
	model ContentModel
	log   *slog.Logger

	group singleflight.Group
	epoch atomic.Uint64
}

// NewGenerator creates an app-knowledge generator.
func NewGenerator(model ContentModel, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{model: model, log: log}
}

// NextEpoch records a new trigger and returns its token.
func (g *Generator) NextEpoch() uint64 { return g.epoch.Add(1) }

// Stale reports whether a newer trigger has superseded the token.
func (g *Generator) Stale(epoch uint64) bool { return g.epoch.Load() != epoch }

// Enrich returns a copy of apps where every entry missing structured
// knowledge has been analyzed. A structured generation that fails or
// returns unparseable JSON falls back to a one-paragraph text summary;
// an app whose fallback also fails is returned unchanged.
func (g *Generator) Enrich(ctx context.Context, apps []types.InstalledApp) []types.InstalledApp {
	out := make([]types.InstalledApp, len(apps))
	copy(out, apps)

	for i := range out {
		if out[i].Knowledge != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out
		}
		g.enrichOne(ctx, &out[i])
	}
	return out
}

func (g *Generator) enrichOne(ctx context.Context, app *types.InstalledApp) {
	key := fmt.Sprintf("app:%d", app.ID)
	v, _, _ := g.group.Do(key, func() (any, error) {
		enriched := *app
		text, err := g.model.GenerateStructured(ctx, structuredPrompt(app))
		if err == nil {
			var k types.AppKnowledge
			if jsonErr := json.Unmarshal([]byte(text), &k); jsonErr == nil {
				enriched.Knowledge = &k
				return enriched, nil
			}
			err = fmt.Errorf("unparseable structured knowledge")
		}

		g.log.Warn("structured knowledge generation failed, falling back to text",
			"app", app.Title, "error", err)
		summary, err := g.model.GenerateSummary(ctx, summaryPrompt(app))
		if err != nil {
			g.log.Error("knowledge fallback failed", "app", app.Title, "error", err)
			return enriched, nil
		}
		enriched.Summary = summary
		return enriched, nil
	})
	*app = v.(types.InstalledApp)
}

func structuredPrompt(app *types.InstalledApp) string {
	description := app.Description
	if description == "" {
		description = "Not provided."
	}
	return fmt.Sprintf(`Analyze the following application and generate a structured knowledge entry in JSON format. Imagine you have deep expertise with this app by visiting its URL. Your analysis will power a voice assistant, so be detailed, accurate, and insightful.

**Application Details:**
- **Title:** %s
- **URL:** %s
- **User-provided Description:** %s

Generate a JSON object that strictly follows the provided schema.`, app.Title, app.URL, description)
}

func summaryPrompt(app *types.InstalledApp) string {
	return fmt.Sprintf("Provide a concise, one-paragraph summary of the app %q based on its description: %q.",
		app.Title, app.Description)
}
