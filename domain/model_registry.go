package domain

import "fmt"

// ModelSpec describes one supported summarization model.
type ModelSpec struct {
	ID               string
	DisplayName      string
	Endpoint         string
	MaxInputTokens   int
	DefaultMaxLength int
	DefaultMinLength int
}

// ModelRegistry is the static model-id -> spec mapping. It is built from
// configuration at startup and never mutated afterwards.
type ModelRegistry struct {
	models    map[string]ModelSpec
	defaultID string
}

// NewModelRegistry builds a registry. defaultID must name one of models.
func NewModelRegistry(defaultID string, models ...ModelSpec) (*ModelRegistry, error) {
	r := &ModelRegistry{models: make(map[string]ModelSpec, len(models)), defaultID: defaultID}
	for _, m := range models {
		if m.ID == "" {
			return nil, fmt.Errorf("model ID cannot be empty")
		}
		if m.MaxInputTokens <= 0 {
			return nil, fmt.Errorf("model %s: max input tokens must be positive", m.ID)
		}
		if _, dup := r.models[m.ID]; dup {
			return nil, fmt.Errorf("duplicate model ID: %s", m.ID)
		}
		r.models[m.ID] = m
	}
	if _, ok := r.models[defaultID]; !ok {
		return nil, fmt.Errorf("default model %q is not registered", defaultID)
	}
	return r, nil
}

// Resolve returns the spec for id. An empty id selects the default model.
// An unknown id also resolves to the default but reports fallback=true.
func (r *ModelRegistry) Resolve(id string) (spec ModelSpec, fallback bool) {
	if id == "" {
		return r.models[r.defaultID], false
	}
	if m, ok := r.models[id]; ok {
		return m, false
	}
	return r.models[r.defaultID], true
}

// Lookup returns the spec for id without falling back.
func (r *ModelRegistry) Lookup(id string) (ModelSpec, bool) {
	m, ok := r.models[id]
	return m, ok
}

// Default returns the default model spec.
func (r *ModelRegistry) Default() ModelSpec {
	return r.models[r.defaultID]
}
