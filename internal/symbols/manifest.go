package symbols

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Manifest is a hand-written or tool-produced list of symbols.
type Manifest struct {
	Symbols []Symbol `yaml:"symbols" json:"symbols" toml:"symbols"`
}

// LoadManifest reads a symbol manifest. The format is chosen by extension:
// .yaml/.yml, .json or .toml. Page and Anchor are derived when missing.
func LoadManifest(path string) ([]Symbol, error) {
	var m Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &m); err != nil {
			return nil, fmt.Errorf("invalid TOML in %s: %w", path, err)
		}
	case ".yaml", ".yml", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read manifest %s: %w", path, err)
		}
		if ext == ".json" {
			err = json.Unmarshal(data, &m)
		} else {
			err = yaml.Unmarshal(data, &m)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q (want .yaml, .json or .toml)", ext)
	}

	for i := range m.Symbols {
		if err := m.Symbols[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s: symbol #%d: %w", path, i+1, err)
		}
	}
	InferScopeKinds(m.Symbols)
	for i := range m.Symbols {
		m.Symbols[i].Resolve()
	}
	return m.Symbols, nil
}

// WriteManifest writes syms as a YAML manifest.
func WriteManifest(path string, syms []Symbol) error {
	data, err := yaml.Marshal(Manifest{Symbols: syms})
	if err != nil {
		return fmt.Errorf("cannot marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest %s: %w", path, err)
	}
	return nil
}

// InferScopeKinds fills an empty ScopeKind from the compounds listed in syms,
// so members of a listed namespace or struct land on the right page.
func InferScopeKinds(syms []Symbol) {
	kinds := make(map[string]Kind)
	for _, s := range syms {
		if s.Kind.IsCompound() && s.Kind != KindFile {
			kinds[s.Qualified()] = s.Kind
		}
	}
	for i := range syms {
		if syms[i].Scope == "" || syms[i].ScopeKind != "" {
			continue
		}
		if k, ok := kinds[syms[i].Scope]; ok {
			syms[i].ScopeKind = k
		}
	}
}
