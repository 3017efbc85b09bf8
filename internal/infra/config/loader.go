// Package config loads the server-configuration document listing the MCP
// servers the bridge may connect to.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"cmdbridge/internal/domain"
)

// Servers is the parsed configuration. Malformed entries are skipped, not
// fatal: Errors carries one message per rejected entry.
type Servers struct {
	Entries map[string]domain.ServerEntry
	Errors  []string
}

// Names returns the configured server names, sorted.
func (s Servers) Names() []string {
	names := make([]string, 0, len(s.Entries))
	for name := range s.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger.Named("config")}
}

type rawConfig struct {
	Servers []rawServerEntry `mapstructure:"servers"`
}

type rawServerEntry struct {
	Name           string            `mapstructure:"name"`
	Command        string            `mapstructure:"command"`
	Args           []string          `mapstructure:"args"`
	URL            string            `mapstructure:"url"`
	Env            map[string]string `mapstructure:"env"`
	TimeoutSeconds int               `mapstructure:"timeoutSeconds"`
}

// Load reads the YAML server configuration at path. A missing or empty file
// is not an error: it simply configures zero servers.
func (l *Loader) Load(path string) (Servers, error) {
	result := Servers{Entries: map[string]domain.ServerEntry{}}
	if path == "" {
		return result, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return result, fmt.Errorf("parse config: %w", err)
	}

	var cfg rawConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return result, fmt.Errorf("decode config: %w", err)
	}

	for i, raw := range cfg.Servers {
		entry, errs := normalizeServerEntry(raw, i)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			l.logger.Warn("skipping malformed server entry",
				zap.Int("index", i),
				zap.String("name", raw.Name),
				zap.Strings("errors", errs),
			)
			continue
		}
		if _, exists := result.Entries[entry.Name]; exists {
			result.Errors = append(result.Errors, fmt.Sprintf("servers[%d]: duplicate name %q", i, entry.Name))
			continue
		}
		result.Entries[entry.Name] = entry
	}

	return result, nil
}

func normalizeServerEntry(raw rawServerEntry, index int) (domain.ServerEntry, []string) {
	var errs []string

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		errs = append(errs, fmt.Sprintf("servers[%d]: name is required", index))
	}

	command := strings.TrimSpace(raw.Command)
	endpoint := strings.TrimSpace(raw.URL)
	switch {
	case command == "" && endpoint == "":
		errs = append(errs, fmt.Sprintf("servers[%d]: either command or url is required", index))
	case command != "" && endpoint != "":
		errs = append(errs, fmt.Sprintf("servers[%d]: command and url are mutually exclusive", index))
	case endpoint != "":
		if parsed, err := url.ParseRequestURI(endpoint); err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("servers[%d]: url must be a valid http(s) URL", index))
		}
	}

	if raw.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Sprintf("servers[%d]: timeoutSeconds must be >= 0", index))
	}

	if len(errs) > 0 {
		return domain.ServerEntry{}, errs
	}

	timeout := raw.TimeoutSeconds
	if timeout == 0 {
		timeout = domain.DefaultConnectTimeoutSeconds
	}

	return domain.ServerEntry{
		Name:           name,
		Command:        command,
		Args:           raw.Args,
		URL:            endpoint,
		Env:            raw.Env,
		TimeoutSeconds: timeout,
	}, nil
}
