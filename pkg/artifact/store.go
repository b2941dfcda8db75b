// Package artifact persists fitted transform state between training
// and inference runs. One JSON record per fitted stage, addressable by
// (model type, stage name, column group), lives under a configurable
// base path. Records are written once at the end of training and read
// read-only by any number of later predict or cluster runs; writers
// for the same model key must be serialized by the caller.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrMissingArtifacts reports a load for a stage that was never
// trained, or whose artifact files are not at the configured path.
var ErrMissingArtifacts = errors.New("fitted artifacts not found")

// Store addresses artifact records for one model type under a base path.
type Store struct {
	base  string
	model string
}

// NewStore opens (or creates) the artifact directory for a model type.
func NewStore(base, model string) (*Store, error) {
	if base == "" || model == "" {
		return nil, fmt.Errorf("artifact store requires a base path and model type")
	}
	dir := filepath.Join(base, model)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{base: base, model: model}, nil
}

func (s *Store) path(stage, group string) string {
	return filepath.Join(s.base, s.model, stage+"."+group+".json")
}

// Save serializes a fitted artifact. Overwrites any previous record
// for the same (stage, group); only a training run may do this.
func (s *Store) Save(stage, group string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact %s.%s: %w", stage, group, err)
	}
	if err := os.WriteFile(s.path(stage, group), data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s.%s: %w", stage, group, err)
	}
	return nil
}

// Load reads a fitted artifact into v. The record's version stamp must
// match the version this build understands.
func (s *Store) Load(stage, group string, v any, wantVersion int) error {
	data, err := os.ReadFile(s.path(stage, group))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("artifact %s.%s for model %q: %w", stage, group, s.model, ErrMissingArtifacts)
		}
		return fmt.Errorf("read artifact %s.%s: %w", stage, group, err)
	}
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode artifact %s.%s: %w", stage, group, err)
	}
	if probe.Version != wantVersion {
		return fmt.Errorf("artifact %s.%s has version %d, want %d", stage, group, probe.Version, wantVersion)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode artifact %s.%s: %w", stage, group, err)
	}
	return nil
}

// Exists reports whether a record is present for (stage, group).
func (s *Store) Exists(stage, group string) bool {
	_, err := os.Stat(s.path(stage, group))
	return err == nil
}
