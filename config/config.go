// Package config handles host/client configuration for this library's
// demo wiring (cmd/jrpcd), generalized from the teacher's
// internal/config.Settings: a yaml-tagged struct with sane defaults and
// a loader, instead of the teacher's RTM/Auth-specific sections.
// file: config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Settings is the top-level configuration document for a jrpc host and
// its paired client, mirroring the teacher's Settings{Server, RTM, Auth}
// grouping with sections relevant to this library instead.
type Settings struct {
	Host   HostConfig   `yaml:"host"`
	Client ClientConfig `yaml:"client"`
	Log    LogConfig    `yaml:"log"`
}

// HostConfig tunes a server.ServiceHost (spec §6: "Host configuration").
type HostConfig struct {
	// Naming selects the NamingStrategy applied to method/param names
	// that don't carry an explicit jrpc tag name: "identity" or
	// "camelCase".
	Naming string `yaml:"naming"`
	// EmitStackTraces controls whether UnhandledException payloads carry
	// a stack trace (spec §4.8: omitted unless configured to emit it).
	EmitStackTraces bool `yaml:"emit_stack_traces"`
	// OrderedResponses opts into the legacy "consistent response
	// sequence" behavior (spec §5); off by default.
	OrderedResponses bool `yaml:"ordered_responses"`
	// SchemaDir, if non-empty, is scanned for "<method>.json" files
	// loaded into a server.MapSchemaSource for SchemaValidationMiddleware.
	SchemaDir string `yaml:"schema_dir"`
}

// ClientConfig tunes a client.Client (spec §4.6).
type ClientConfig struct {
	// IDPrefix is the prefix used to build outgoing request ids.
	IDPrefix string `yaml:"id_prefix"`
	// PreserveForeignResponses enables the late-response preservation
	// window described in spec §4.6 and §8 scenario 7.
	PreserveForeignResponses bool `yaml:"preserve_foreign_responses"`
	// ForeignResponseWindow is the preservation window; zero keeps the
	// client's built-in 60s default.
	ForeignResponseWindow time.Duration `yaml:"foreign_response_window"`
}

// LogConfig selects the demo's logging verbosity, consumed by
// cmd/jrpcd's logging setup.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns Settings populated with the library's defaults: no
// stack traces, unordered responses, identity naming, a "c" client id
// prefix, and info-level logging — matching the teacher's New()
// "sensible defaults, runs out-of-the-box" intent.
func Default() *Settings {
	return &Settings{
		Host: HostConfig{
			Naming:           "identity",
			EmitStackTraces:  false,
			OrderedResponses: false,
		},
		Client: ClientConfig{
			IDPrefix:                 "c",
			PreserveForeignResponses: false,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads YAML settings from path, starting from Default() so any
// field the document omits keeps its default value.
func Load(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}
	return s, nil
}

// ExpandPath expands a leading ~ to the user's home directory, exactly
// as the teacher's internal/config.ExpandPath does for its token path.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
