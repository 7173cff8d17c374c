// Package config loads the optional per-tree configuration file.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// Names are the file names Find looks for, in order.
var Names = []string{".cmtx.yaml", ".cmtx.yml", ".cmtx.json"}

var (
	DefaultCExtensions   = []string{".h", ".c"}
	DefaultAsmExtensions = []string{".asm", ".s"}
)

type File struct {
	Version    int    `json:"version" yaml:"version"`
	SourceRoot string `json:"source_root" yaml:"source_root"`

	Extensions struct {
		C   []string `json:"c" yaml:"c"`
		Asm []string `json:"asm" yaml:"asm"`
	} `json:"extensions" yaml:"extensions"`

	Include       []string `json:"include" yaml:"include"`
	Exclude       []string `json:"exclude" yaml:"exclude"`
	RespectIgnore bool     `json:"respect_ignore" yaml:"respect_ignore"`

	Store struct {
		Backend string `json:"backend" yaml:"backend"`
		Path    string `json:"path" yaml:"path"`
	} `json:"store" yaml:"store"`

	// Path is where the file was loaded from; empty for defaults.
	Path string `json:"-" yaml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() *File {
	cfg := &File{}
	applyDefaults(cfg)
	return cfg
}

// Find returns the first config file present in dir, or "" when none is.
func Find(dir string) (string, error) {
	for _, name := range Names {
		p := filepath.Join(dir, name)
		st, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if st.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", nil
}

// Load reads, validates and defaults a YAML or JSON config file.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(b, strings.ToLower(filepath.Ext(path)) == ".json")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes b as JSON or YAML, validates it against the embedded schema
// and fills in defaults.
func Parse(b []byte, isJSON bool) (*File, error) {
	var doc any
	if isJSON {
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, err
		}
	}
	if doc == nil {
		doc = map[string]any{}
	}

	// Round-trip through JSON so the validator and the struct decoder see
	// the same JSON-typed values whichever syntax the file used.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var cfg File
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *File) {
	if cfg == nil {
		return
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Extensions.C) == 0 {
		cfg.Extensions.C = append([]string(nil), DefaultCExtensions...)
	}
	if len(cfg.Extensions.Asm) == 0 {
		cfg.Extensions.Asm = append([]string(nil), DefaultAsmExtensions...)
	}
	if strings.TrimSpace(cfg.Store.Backend) == "" {
		cfg.Store.Backend = "sqlite"
	}
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("schema.json")
	})
	return schema, schemaErr
}

func validate(raw []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
