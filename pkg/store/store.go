// Package store persists session state in Postgres. Every write is
// non-fatal to the live session: callers log the persistence failure
// and keep the in-memory state authoritative.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/kithai-ai/voicecore/pkg/core"
	"github.com/kithai-ai/voicecore/pkg/core/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, core.NewPersistenceError("open", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, core.NewPersistenceError("ping", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// Migrate brings the schema up to date with the embedded migrations.
func Migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return core.NewPersistenceError("migrate", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return core.NewPersistenceError("migrate", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return core.NewPersistenceError("migrate", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// AppendTurn stores one finalized turn.
func (s *Store) AppendTurn(ctx context.Context, turn *types.ConversationTurn) error {
	grounding, err := marshalGrounding(turn.Grounding)
	if err != nil {
		return core.NewPersistenceError("append_turn", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO turns (role, text, grounding, created_at) VALUES ($1, $2, $3, $4)`,
		string(turn.Role), turn.Text, grounding, turn.Timestamp)
	if err != nil {
		return core.NewPersistenceError("append_turn", err)
	}
	return nil
}

// ListTurns returns stored turns oldest first.
func (s *Store) ListTurns(ctx context.Context) ([]types.ConversationTurn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role, text, grounding, created_at FROM turns ORDER BY id`)
	if err != nil {
		return nil, core.NewPersistenceError("list_turns", err)
	}
	defer rows.Close()

	var out []types.ConversationTurn
	for rows.Next() {
		var turn types.ConversationTurn
		var role string
		var grounding []byte
		if err := rows.Scan(&role, &turn.Text, &grounding, &turn.Timestamp); err != nil {
			return nil, core.NewPersistenceError("list_turns", err)
		}
		turn.Role = types.Role(role)
		turn.IsFinal = true
		if turn.Grounding, err = unmarshalGrounding(grounding); err != nil {
			return nil, core.NewPersistenceError("list_turns", err)
		}
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewPersistenceError("list_turns", err)
	}
	return out, nil
}

// ClearTurns deletes the stored conversation.
func (s *Store) ClearTurns(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM turns`); err != nil {
		return core.NewPersistenceError("clear_turns", err)
	}
	return nil
}

// SavePersona upserts the single active persona row.
func (s *Store) SavePersona(ctx context.Context, p *types.PersonaConfig) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO personas (id, name, instruction, voice_id, updated_at)
		VALUES (1, $1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    instruction = EXCLUDED.instruction,
		    voice_id = EXCLUDED.voice_id,
		    updated_at = now()`,
		p.Name, p.Instruction, p.VoiceID)
	if err != nil {
		return core.NewPersistenceError("save_persona", err)
	}
	return nil
}

// LoadPersona returns the stored persona, or (nil, nil) when none was
// ever saved.
func (s *Store) LoadPersona(ctx context.Context) (*types.PersonaConfig, error) {
	var p types.PersonaConfig
	err := s.pool.QueryRow(ctx,
		`SELECT name, instruction, voice_id FROM personas WHERE id = 1`).
		Scan(&p.Name, &p.Instruction, &p.VoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, core.NewPersistenceError("load_persona", err)
	}
	return &p, nil
}

// InsertMemory stores one long-term memory with its embedding.
func (s *Store) InsertMemory(ctx context.Context, m types.MemorySnippet) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO memories (memory_text, embedding) VALUES ($1, $2)`,
		m.Text, m.Embedding)
	if err != nil {
		return core.NewPersistenceError("insert_memory", err)
	}
	return nil
}

// ListMemories returns every stored memory with its embedding.
func (s *Store) ListMemories(ctx context.Context) ([]types.MemorySnippet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT memory_text, embedding FROM memories ORDER BY id`)
	if err != nil {
		return nil, core.NewPersistenceError("list_memories", err)
	}
	defer rows.Close()

	var out []types.MemorySnippet
	for rows.Next() {
		var m types.MemorySnippet
		if err := rows.Scan(&m.Text, &m.Embedding); err != nil {
			return nil, core.NewPersistenceError("list_memories", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewPersistenceError("list_memories", err)
	}
	return out, nil
}

// InsertGlobalRule appends one rule.
func (s *Store) InsertGlobalRule(ctx context.Context, rule *types.GlobalRule) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO global_rules (rule_text, created_by) VALUES ($1, $2)`,
		rule.Text, rule.CreatedBy)
	if err != nil {
		return core.NewPersistenceError("insert_rule", err)
	}
	return nil
}

// ListGlobalRules returns rules ordered by creation time.
func (s *Store) ListGlobalRules(ctx context.Context) ([]types.GlobalRule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT rule_text, COALESCE(created_by, ''), created_at FROM global_rules ORDER BY created_at, id`)
	if err != nil {
		return nil, core.NewPersistenceError("list_rules", err)
	}
	defer rows.Close()

	var out []types.GlobalRule
	for rows.Next() {
		var r types.GlobalRule
		if err := rows.Scan(&r.Text, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, core.NewPersistenceError("list_rules", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewPersistenceError("list_rules", err)
	}
	return out, nil
}

// InsertApp stores one installed application.
func (s *Store) InsertApp(ctx context.Context, app *types.InstalledApp) error {
	knowledge, err := marshalKnowledge(app.Knowledge)
	if err != nil {
		return core.NewPersistenceError("insert_app", err)
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO apps (title, description, app_url, logo_url, knowledge, summary)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		app.Title, app.Description, app.URL, app.LogoURL, knowledge, app.Summary).
		Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return core.NewPersistenceError("insert_app", err)
	}
	return nil
}

// UpdateAppKnowledge stores the generated analysis for an app.
func (s *Store) UpdateAppKnowledge(ctx context.Context, app *types.InstalledApp) error {
	knowledge, err := marshalKnowledge(app.Knowledge)
	if err != nil {
		return core.NewPersistenceError("update_app_knowledge", err)
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE apps SET knowledge = $1, summary = $2 WHERE id = $3`,
		knowledge, app.Summary, app.ID)
	if err != nil {
		return core.NewPersistenceError("update_app_knowledge", err)
	}
	return nil
}

// ListApps returns installed applications oldest first.
func (s *Store) ListApps(ctx context.Context) ([]types.InstalledApp, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, COALESCE(description, ''), app_url, COALESCE(logo_url, ''),
		       knowledge, COALESCE(summary, ''), created_at
		FROM apps ORDER BY created_at, id`)
	if err != nil {
		return nil, core.NewPersistenceError("list_apps", err)
	}
	defer rows.Close()

	var out []types.InstalledApp
	for rows.Next() {
		var app types.InstalledApp
		var knowledge []byte
		if err := rows.Scan(&app.ID, &app.Title, &app.Description, &app.URL,
			&app.LogoURL, &knowledge, &app.Summary, &app.CreatedAt); err != nil {
			return nil, core.NewPersistenceError("list_apps", err)
		}
		if app.Knowledge, err = unmarshalKnowledge(knowledge); err != nil {
			return nil, core.NewPersistenceError("list_apps", err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewPersistenceError("list_apps", err)
	}
	return out, nil
}

func marshalGrounding(refs []types.GroundingRef) ([]byte, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	return json.Marshal(refs)
}

func unmarshalGrounding(data []byte) ([]types.GroundingRef, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var refs []types.GroundingRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("decode grounding: %w", err)
	}
	return refs, nil
}

func marshalKnowledge(k *types.AppKnowledge) ([]byte, error) {
	if k == nil {
		return nil, nil
	}
	return json.Marshal(k)
}

func unmarshalKnowledge(data []byte) (*types.AppKnowledge, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var k types.AppKnowledge
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("decode app knowledge: %w", err)
	}
	return &k, nil
}
