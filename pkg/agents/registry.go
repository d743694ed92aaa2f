package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Nitianimelo/arccoVPS/pkg/llm"
	"github.com/Nitianimelo/arccoVPS/pkg/logger"
)

// Registry holds the live agent configurations: compiled defaults overlaid
// with the persisted admin overrides. All reads return copies so callers can
// never mutate the shared state.
type Registry struct {
	mu           sync.RWMutex
	defaultModel string
	overridePath string
	configs      map[string]*Config
	logger       *slog.Logger
}

// NewRegistry builds the registry from the compiled defaults and, when the
// override file exists, overlays the persisted admin edits on top.
func NewRegistry(defaultModel, overridePath string) *Registry {
	r := &Registry{
		defaultModel: defaultModel,
		overridePath: overridePath,
		configs:      defaultConfigs(defaultModel),
		logger:       logger.GetLogger(),
	}
	if err := r.loadOverrides(); err != nil {
		r.logger.Warn("failed to load agent overrides, using defaults", "path", overridePath, "error", err)
	}
	return r
}

// Get returns a copy of one agent's configuration.
func (r *Registry) Get(id string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[id]
	if !ok {
		return Config{}, false
	}
	return copyConfig(cfg), true
}

// All returns copies of every agent configuration, sorted by module then ID
// for stable admin listings.
func (r *Registry) All() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Config, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, copyConfig(cfg))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Prompt returns the agent's system prompt, or the empty string when the
// agent does not exist.
func (r *Registry) Prompt(id string) string {
	cfg, _ := r.Get(id)
	return cfg.SystemPrompt
}

// Model returns the agent's model, falling back to the registry default when
// the agent does not exist or has no model set.
func (r *Registry) Model(id string) string {
	cfg, ok := r.Get(id)
	if !ok || cfg.Model == "" {
		return r.defaultModel
	}
	return cfg.Model
}

// Tools returns a copy of the agent's tool definitions.
func (r *Registry) Tools(id string) []llm.ToolDefinition {
	cfg, _ := r.Get(id)
	return cfg.Tools
}

// Update applies a sparse patch to one agent and persists the full override
// set to disk.
func (r *Registry) Update(id string, patch Patch) (Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, ok := r.configs[id]
	if !ok {
		return Config{}, fmt.Errorf("agente '%s' não encontrado", id)
	}
	patch.apply(cfg)
	if err := r.saveLocked(); err != nil {
		return Config{}, err
	}
	r.logger.Info("agent configuration updated", "agent", id)
	return copyConfig(cfg), nil
}

// Reset restores one agent to its compiled default and persists the result.
func (r *Registry) Reset(id string) (Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := defaultConfigs(r.defaultModel)[id]
	if !ok {
		return Config{}, fmt.Errorf("agente '%s' não encontrado", id)
	}
	r.configs[id] = def
	if err := r.saveLocked(); err != nil {
		return Config{}, err
	}
	r.logger.Info("agent configuration reset to default", "agent", id)
	return copyConfig(def), nil
}

// Watch reloads the override file whenever it changes on disk, so edits made
// by another process (or a config rollback) take effect without a restart.
// It blocks until ctx is cancelled.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and atomic saves replace the file, which
	// drops a watch registered on the file itself.
	dir := filepath.Dir(r.overridePath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(r.overridePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			r.mu.Lock()
			err := r.loadOverridesLocked()
			r.mu.Unlock()
			if err != nil {
				r.logger.Warn("failed to reload agent overrides", "error", err)
				continue
			}
			r.logger.Info("agent overrides reloaded", "path", r.overridePath)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", "error", err)
		}
	}
}

func (r *Registry) loadOverrides() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadOverridesLocked()
}

func (r *Registry) loadOverridesLocked() error {
	raw, err := os.ReadFile(r.overridePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var persisted map[string]*Config
	if err := json.Unmarshal(raw, &persisted); err != nil {
		return fmt.Errorf("invalid override file: %w", err)
	}

	// Rebuild from defaults so removed overrides fall back cleanly.
	fresh := defaultConfigs(r.defaultModel)
	for id, saved := range persisted {
		cfg, ok := fresh[id]
		if !ok {
			r.logger.Warn("ignoring override for unknown agent", "agent", id)
			continue
		}
		if saved.Name != "" {
			cfg.Name = saved.Name
		}
		if saved.Description != "" {
			cfg.Description = saved.Description
		}
		if saved.SystemPrompt != "" {
			cfg.SystemPrompt = saved.SystemPrompt
		}
		if saved.Model != "" {
			cfg.Model = saved.Model
		}
		if saved.Tools != nil {
			cfg.Tools = saved.Tools
		}
	}
	r.configs = fresh
	return nil
}

// saveLocked writes the full agent set atomically (temp file + rename) so a
// crash mid-write never leaves a truncated override file.
func (r *Registry) saveLocked() error {
	data, err := json.MarshalIndent(r.configs, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.overridePath), 0o755); err != nil {
		return err
	}
	tmp := r.overridePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.overridePath)
}

func copyConfig(cfg *Config) Config {
	out := *cfg
	out.Tools = cloneTools(cfg.Tools)
	return out
}
