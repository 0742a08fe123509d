// Package config loads pdavault configuration.
//
// A config file is YAML. It is checked against an embedded CUE schema that
// also supplies defaults, so a missing file, an empty file and a partial
// file all produce a complete Config. Unknown keys are rejected.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/runtime"
	"github.com/roach88/pdavault/internal/vault"
)

//go:embed schema.cue
var schemaCUE string

// Config is the resolved configuration.
type Config struct {
	Database        string       `json:"database" yaml:"database"`
	ProgramID       string       `json:"program_id" yaml:"program_id"`
	FeePerSignature uint64       `json:"fee_per_signature" yaml:"fee_per_signature"`
	Rent            runtime.Rent `json:"rent" yaml:"rent"`
	Reserve         vault.Policy `json:"reserve" yaml:"reserve"`
	LogLevel        string       `json:"log_level" yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg, err := Parse(nil)
	if err != nil {
		// The schema is embedded; failing here is a build defect.
		panic(fmt.Sprintf("config: default: %v", err))
	}
	return cfg
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates YAML bytes against the schema and fills in defaults.
// Empty input yields the defaults.
func Parse(data []byte) (Config, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := def.Unify(ctx.Encode(raw))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("validate: %w", err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	return cfg, nil
}

// Program returns the parsed program ID. The system program's address is
// rejected.
func (c Config) Program() (address.Address, error) {
	addr, err := address.Parse(c.ProgramID)
	if err != nil {
		return address.Address{}, fmt.Errorf("program_id: %w", err)
	}
	if addr == runtime.SystemProgramID {
		return address.Address{}, fmt.Errorf("program_id: %s is the system program", addr)
	}
	return addr, nil
}

// Level maps log_level to a slog level.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
