// Package tools maintains the editable tool registry and assembles the
// active tool set sent with each session configuration.
package tools

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kithai-ai/voicecore/pkg/core"
	"github.com/kithai-ai/voicecore/pkg/core/types"
)

const autoNameBase = "new_function"

// Registry holds the user-editable tool list. The core and integration
// presets are merged in at assembly time and are not editable here.
type Registry struct {
	mu    sync.Mutex
	tools []types.ToolDeclaration
}

// NewRegistry seeds the registry with the given declarations.
func NewRegistry(initial ...types.ToolDeclaration) *Registry {
	r := &Registry{tools: make([]types.ToolDeclaration, 0, len(initial))}
	for _, t := range initial {
		r.tools = append(r.tools, t.Clone())
	}
	return r
}

// Add appends a new enabled placeholder declaration and returns it. The
// name is made unique against the current list: new_function, then
// new_function_1, new_function_2 and so on.
func (r *Registry) Add() types.ToolDeclaration {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := autoNameBase
	for counter := 1; r.indexOf(name) >= 0; counter++ {
		name = fmt.Sprintf("%s_%d", autoNameBase, counter)
	}
	t := types.ToolDeclaration{
		Name:       name,
		Enabled:    true,
		Parameters: []byte(`{"type":"object","properties":{}}`),
		Scheduling: types.SchedulingInterrupt,
	}
	r.tools = append(r.tools, t)
	return t.Clone()
}

// Remove deletes the named declaration. Returns false if absent.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(name)
	if i < 0 {
		return false
	}
	r.tools = append(r.tools[:i], r.tools[i+1:]...)
	return true
}

// Toggle flips the enabled flag of the named declaration. Returns false
// if absent.
func (r *Registry) Toggle(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(name)
	if i < 0 {
		return false
	}
	r.tools[i].Enabled = !r.tools[i].Enabled
	return true
}

// Update replaces the declaration currently named oldName. A rename
// that collides with another existing declaration is rejected and the
// prior entry is retained unchanged. The updated declaration's
// parameter schema must be well formed.
func (r *Registry) Update(oldName string, updated types.ToolDeclaration) error {
	if err := ValidateDeclaration(&updated); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(oldName)
	if i < 0 {
		return core.NewValidationError(fmt.Sprintf("no tool named %q", oldName))
	}
	if updated.Name != oldName && r.indexOf(updated.Name) >= 0 {
		return core.NewValidationErrorWithParam(
			fmt.Sprintf("a tool named %q already exists", updated.Name), "name")
	}
	r.tools[i] = updated.Clone()
	return nil
}

// List returns a copy of the user tool list in insertion order.
func (r *Registry) List() []types.ToolDeclaration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.ToolDeclaration, 0, len(r.tools))
	for i := range r.tools {
		out = append(out, r.tools[i].Clone())
	}
	return out
}

// ActiveTools assembles the tool set for the next session config:
// enabled user tools first, then the integration preset when the
// integration account is connected, then the core tools. Duplicate
// names keep the first occurrence.
func (r *Registry) ActiveTools(integrationConnected bool) []types.ToolDeclaration {
	user := r.List()
	enabled := user[:0]
	for _, t := range user {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	sources := [][]types.ToolDeclaration{enabled}
	if integrationConnected {
		sources = append(sources, IntegrationTools())
	}
	sources = append(sources, CoreTools())
	return Merge(sources...)
}

// Merge concatenates the source lists in order and drops later
// declarations whose name was already seen. Source order and
// within-source order are preserved.
func Merge(sources ...[]types.ToolDeclaration) []types.ToolDeclaration {
	seen := make(map[string]struct{})
	var out []types.ToolDeclaration
	for _, src := range sources {
		for i := range src {
			if _, dup := seen[src[i].Name]; dup {
				continue
			}
			seen[src[i].Name] = struct{}{}
			out = append(out, src[i].Clone())
		}
	}
	return out
}

// ValidateDeclaration checks that the declaration has a name and that
// its parameter schema, when present, parses as a JSON Schema.
func ValidateDeclaration(t *types.ToolDeclaration) error {
	if t.Name == "" {
		return core.NewValidationErrorWithParam("tool name must not be empty", "name")
	}
	if len(t.Parameters) == 0 {
		return nil
	}
	if _, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(t.Parameters)); err != nil {
		return core.NewConfigRejectedError(
			fmt.Sprintf("tool %q has a malformed parameter schema: %v", t.Name, err))
	}
	return nil
}

// caller holds r.mu
func (r *Registry) indexOf(name string) int {
	for i := range r.tools {
		if r.tools[i].Name == name {
			return i
		}
	}
	return -1
}
