package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kithai-ai/voicecore/pkg/core"
	"github.com/kithai-ai/voicecore/pkg/core/types"
)

func decl(name string, enabled bool) types.ToolDeclaration {
	return types.ToolDeclaration{
		Name:       name,
		Enabled:    enabled,
		Parameters: []byte(`{"type":"object","properties":{}}`),
		Scheduling: types.SchedulingInterrupt,
	}
}

func TestMerge_FirstOccurrenceWins(t *testing.T) {
	a := decl("alpha", true)
	a.Description = "from the first list"
	shadow := decl("alpha", true)
	shadow.Description = "from the second list"

	merged := Merge(
		[]types.ToolDeclaration{a, decl("beta", true)},
		[]types.ToolDeclaration{shadow, decl("gamma", true)},
	)

	require.Len(t, merged, 3)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names(merged))
	assert.Equal(t, "from the first list", merged[0].Description)
}

func TestActiveTools_DisabledUserToolsExcluded(t *testing.T) {
	r := NewRegistry(decl("custom_on", true), decl("custom_off", false))

	active := r.ActiveTools(false)

	got := names(active)
	assert.Contains(t, got, "custom_on")
	assert.NotContains(t, got, "custom_off")
	assert.Contains(t, got, "save_memory")
	assert.Contains(t, got, "launch_app")
	assert.NotContains(t, got, "send_email")
}

func TestActiveTools_IntegrationGating(t *testing.T) {
	r := NewRegistry()

	assert.Contains(t, names(r.ActiveTools(true)), "send_email")
	assert.NotContains(t, names(r.ActiveTools(false)), "send_email")
}

func TestActiveTools_UserToolShadowsCoreTool(t *testing.T) {
	override := decl("save_memory", true)
	override.Description = "custom override"
	r := NewRegistry(override)

	active := r.ActiveTools(false)

	count := 0
	for _, tool := range active {
		if tool.Name == "save_memory" {
			count++
			assert.Equal(t, "custom override", tool.Description)
		}
	}
	assert.Equal(t, 1, count)
}

func TestAdd_AutoNames(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, "new_function", r.Add().Name)
	assert.Equal(t, "new_function_1", r.Add().Name)
	assert.Equal(t, "new_function_2", r.Add().Name)

	added := r.List()
	require.Len(t, added, 3)
	assert.True(t, added[0].Enabled)
	assert.Equal(t, types.SchedulingInterrupt, added[0].Scheduling)
}

func TestAdd_FillsGapAfterRemove(t *testing.T) {
	r := NewRegistry()
	r.Add() // new_function
	r.Add() // new_function_1
	require.True(t, r.Remove("new_function"))

	assert.Equal(t, "new_function", r.Add().Name)
}

func TestUpdate_RenameCollisionRejected(t *testing.T) {
	r := NewRegistry(decl("first", true), decl("second", true))

	renamed := decl("second", true)
	err := r.Update("first", renamed)

	var ce *core.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, core.ErrValidation, ce.Type)

	// Prior entry retained unchanged.
	assert.Equal(t, []string{"first", "second"}, names(r.List()))
}

func TestUpdate_SameNameAllowed(t *testing.T) {
	r := NewRegistry(decl("first", true))

	updated := decl("first", false)
	updated.Description = "edited"
	require.NoError(t, r.Update("first", updated))

	got := r.List()
	require.Len(t, got, 1)
	assert.Equal(t, "edited", got[0].Description)
	assert.False(t, got[0].Enabled)
}

func TestUpdate_MalformedSchemaRejected(t *testing.T) {
	r := NewRegistry(decl("first", true))

	bad := decl("first", true)
	bad.Parameters = []byte(`{"type": 12}`)
	err := r.Update("first", bad)

	var ce *core.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, core.ErrConfigRejected, ce.Type)
}

func TestToggle(t *testing.T) {
	r := NewRegistry(decl("first", true))

	require.True(t, r.Toggle("first"))
	assert.False(t, r.List()[0].Enabled)
	require.True(t, r.Toggle("first"))
	assert.True(t, r.List()[0].Enabled)

	assert.False(t, r.Toggle("missing"))
}

func TestRemove_Missing(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Remove("missing"))
}

func TestPresetSchemasAreValid(t *testing.T) {
	for _, tool := range Merge(CoreTools(), IntegrationTools()) {
		tool := tool
		t.Run(tool.Name, func(t *testing.T) {
			assert.NoError(t, ValidateDeclaration(&tool))
		})
	}
}

func names(decls []types.ToolDeclaration) []string {
	out := make([]string, len(decls))
	for i := range decls {
		out[i] = decls[i].Name
	}
	return out
}
