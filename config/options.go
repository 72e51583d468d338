// file: config/options.go
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/jrpc/client"
	"github.com/dkoosis/jrpc/contract"
	"github.com/dkoosis/jrpc/internal/logging"
	"github.com/dkoosis/jrpc/server"
)

// ParseLevel resolves the configured log level name to a logging.Level,
// defaulting to LevelInfo for an unrecognized or empty value.
func (l LogConfig) ParseLevel() logging.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// NamingStrategy resolves the configured naming strategy name to a
// contract.NamingStrategy, defaulting to IdentityNaming for an
// unrecognized or empty value.
func (h HostConfig) NamingStrategy() contract.NamingStrategy {
	switch strings.ToLower(h.Naming) {
	case "camelcase", "camel_case", "camel":
		return contract.CamelCaseNaming
	default:
		return contract.IdentityNaming
	}
}

// HostOptions translates HostConfig into server.HostOption values ready
// to pass to server.NewServiceHost, the config-driven counterpart of
// wiring each WithXxx option by hand.
func (s *Settings) HostOptions(logger logging.Logger) ([]server.HostOption, error) {
	opts := []server.HostOption{
		server.WithNaming(s.Host.NamingStrategy()),
		server.WithStackTraces(s.Host.EmitStackTraces),
	}
	if logger != nil {
		opts = append(opts, server.WithLogger(logger))
	}
	if s.Host.OrderedResponses {
		opts = append(opts, server.WithOrderedResponses())
	}
	if s.Host.SchemaDir != "" {
		source, err := loadSchemaDir(s.Host.SchemaDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, server.WithMiddleware(server.SchemaValidationMiddleware(source)))
	}
	return opts, nil
}

// ClientOptions translates ClientConfig into client.Option values ready
// to pass to client.NewClient.
func (s *Settings) ClientOptions(logger logging.Logger) []client.Option {
	opts := []client.Option{}
	if s.Client.IDPrefix != "" {
		opts = append(opts, client.WithIDPrefix(s.Client.IDPrefix))
	}
	if logger != nil {
		opts = append(opts, client.WithLogger(logger))
	}
	if s.Client.PreserveForeignResponses {
		opts = append(opts, client.WithPreserveForeignResponses(s.Client.ForeignResponseWindow))
	}
	return opts
}

// loadSchemaDir reads every "<method>.json" file in dir into a
// server.MapSchemaSource keyed by method name (the file's base name
// without extension), generalizing the teacher's single embedded
// schema.json into one document per method.
func loadSchemaDir(dir string) (server.MapSchemaSource, error) {
	expanded, err := ExpandPath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(expanded)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading schema dir %s", expanded)
	}
	source := make(server.MapSchemaSource)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		method := strings.TrimSuffix(entry.Name(), ".json")
		data, err := os.ReadFile(filepath.Join(expanded, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "config: reading schema file %s", entry.Name())
		}
		source[method] = data
	}
	return source, nil
}
