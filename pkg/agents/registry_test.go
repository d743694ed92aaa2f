package agents

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "anthropic/claude-3.5-sonnet"

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(testModel, filepath.Join(t.TempDir(), "configs_override.json"))
}

func strPtr(s string) *string { return &s }

func TestRegistryDefaults(t *testing.T) {
	r := newTestRegistry(t)

	cfg, ok := r.Get("chat")
	require.True(t, ok)
	assert.Equal(t, "Arcco Supervisor Especialista", cfg.Name)
	assert.Equal(t, testModel, cfg.Model)
	assert.Equal(t, ChatSystemPrompt, cfg.SystemPrompt)
	assert.Len(t, cfg.Tools, len(SupervisorTools))

	_, ok = r.Get("nope")
	assert.False(t, ok)

	all := r.All()
	assert.Len(t, all, 10)
}

func TestRegistryModelFallback(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, testModel, r.Model("qa"))
	assert.Equal(t, testModel, r.Model("unknown-agent"))
}

func TestRegistryUpdatePersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "configs_override.json")

	r := NewRegistry(testModel, path)
	updated, err := r.Update("web_search", Patch{
		Model:        strPtr("openai/gpt-4o-mini"),
		SystemPrompt: strPtr("Você busca na web."),
	})
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", updated.Model)
	assert.Equal(t, "Você busca na web.", updated.SystemPrompt)

	// A fresh registry over the same file picks the override back up.
	r2 := NewRegistry(testModel, path)
	cfg, ok := r2.Get("web_search")
	require.True(t, ok)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Model)
	assert.Equal(t, "Você busca na web.", cfg.SystemPrompt)

	// Untouched agents keep their defaults.
	chat, _ := r2.Get("chat")
	assert.Equal(t, ChatSystemPrompt, chat.SystemPrompt)
}

func TestRegistryUpdateUnknownAgent(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Update("ghost", Patch{Model: strPtr("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "não encontrado")
}

func TestRegistryReset(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Update("qa", Patch{SystemPrompt: strPtr("mudou")})
	require.NoError(t, err)

	cfg, err := r.Reset("qa")
	require.NoError(t, err)
	assert.Equal(t, QASystemPrompt, cfg.SystemPrompt)

	got, _ := r.Get("qa")
	assert.Equal(t, QASystemPrompt, got.SystemPrompt)
}

func TestRegistryReadsReturnCopies(t *testing.T) {
	r := newTestRegistry(t)

	cfg, _ := r.Get("chat")
	cfg.SystemPrompt = "hacked"
	if len(cfg.Tools) > 0 {
		cfg.Tools[0].Function.Name = "hacked"
	}

	fresh, _ := r.Get("chat")
	assert.Equal(t, ChatSystemPrompt, fresh.SystemPrompt)
	assert.Equal(t, "ask_web_search", fresh.Tools[0].Function.Name)
}

func TestRegistryIgnoresCorruptOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "configs_override.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	r := NewRegistry(testModel, path)
	cfg, ok := r.Get("chat")
	require.True(t, ok)
	assert.Equal(t, ChatSystemPrompt, cfg.SystemPrompt)
}

func TestRegistrySaveIsValidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "configs_override.json")

	r := NewRegistry(testModel, path)
	_, err := r.Update("design", Patch{Model: strPtr("google/gemini-2.0-flash-001")})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var persisted map[string]Config
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, "google/gemini-2.0-flash-001", persisted["design"].Model)
	assert.Contains(t, persisted, "chat")
}
