package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/floats"

	"github.com/kithai-ai/voicecore/pkg/core/types"
)

const (
	// RelevanceThreshold is the minimum cosine similarity for a memory
	// to be considered contextually relevant.
	RelevanceThreshold = 0.75

	// RelevanceLimit caps how many memories feed the prompt.
	RelevanceLimit = 5
)

// Source persists and lists long-term memories.
type Source interface {
	ListMemories(ctx context.Context) ([]types.MemorySnippet, error)
	InsertMemory(ctx context.Context, m types.MemorySnippet) error
}

// Engine recomputes the relevant-memory set for a conversation trigger.
// Concurrent triggers for the same query collapse into one computation;
// epoch tokens let callers discard results that a newer trigger has
// superseded.
type Engine struct {
	embedder  Embedder
	source    Source
	log       *slog.Logger
	threshold float64
	limit     int

	group singleflight.Group
	epoch atomic.Uint64
}

// NewEngine creates a relevance engine with the default threshold and
// limit.
func NewEngine(embedder Embedder, source Source, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		embedder:  embedder,
		source:    source,
		log:       log,
		threshold: RelevanceThreshold,
		limit:     RelevanceLimit,
	}
}

// NextEpoch records a new trigger and returns its token. Any result
// computed under an earlier token is stale.
func (e *Engine) NextEpoch() uint64 { return e.epoch.Add(1) }

// Stale reports whether a newer trigger has superseded the given token.
func (e *Engine) Stale(epoch uint64) bool { return e.epoch.Load() != epoch }

// Relevant embeds the query and returns stored memories scoring at or
// above the threshold, best first, capped at the limit. Memories with
// no stored embedding are skipped.
func (e *Engine) Relevant(ctx context.Context, query string) ([]types.MemorySnippet, error) {
	v, err, _ := e.group.Do(query, func() (any, error) {
		return e.relevant(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.MemorySnippet), nil
}

func (e *Engine) relevant(ctx context.Context, query string) ([]types.MemorySnippet, error) {
	qv, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	stored, err := e.source.ListMemories(ctx)
	if err != nil {
		return nil, err
	}

	scored := make([]types.MemorySnippet, 0, len(stored))
	for _, m := range stored {
		if len(m.Embedding) == 0 {
			continue
		}
		score := Cosine(qv, m.Embedding)
		if score < e.threshold {
			continue
		}
		m.Score = score
		scored = append(scored, m)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > e.limit {
		scored = scored[:e.limit]
	}
	e.log.Debug("memory relevance recomputed",
		"candidates", len(stored), "relevant", len(scored))
	return scored, nil
}

// Add embeds the text and persists it as a new long-term memory,
// returning the stored snippet.
func (e *Engine) Add(ctx context.Context, text string) (types.MemorySnippet, error) {
	v, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return types.MemorySnippet{}, err
	}
	m := types.MemorySnippet{Text: text, Embedding: v}
	if err := e.source.InsertMemory(ctx, m); err != nil {
		return types.MemorySnippet{}, err
	}
	return m, nil
}

// Cosine returns the cosine similarity of two vectors. Mismatched
// lengths or zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	af := make([]float64, len(a))
	bf := make([]float64, len(b))
	for i := range a {
		af[i] = float64(a[i])
		bf[i] = float64(b[i])
	}
	dot := floats.Dot(af, bf)
	na := floats.Norm(af, 2)
	nb := floats.Norm(bf, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}
