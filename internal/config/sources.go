package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Source kinds understood by the source factory.
const (
	SourceKindMock   = "mock"
	SourceKindRSS    = "rss"
	SourceKindReddit = "reddit"
	SourceKindKafka  = "kafka"
)

// SourcesConfig lists the source adapters composed at startup.
type SourcesConfig struct {
	Sources []SourceConfig `yaml:"sources" validate:"dive"`
}

// SourceConfig describes one source adapter.
type SourceConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Kind     string `yaml:"kind" validate:"required,oneof=mock rss reddit kafka"`
	Disabled bool   `yaml:"disabled"`

	// MaxItems caps the batch size of one fetch. Zero means the adapter default.
	MaxItems int `yaml:"max_items" validate:"gte=0,lte=500"`

	// Interval overrides INGEST_INTERVAL for this source.
	Interval time.Duration `yaml:"interval" validate:"gte=0"`

	// rss
	URL           string `yaml:"url" validate:"omitempty,url"`
	FetchFullText bool   `yaml:"fetch_full_text"`

	// reddit
	Subreddit string `yaml:"subreddit"`
	Sort      string `yaml:"sort" validate:"omitempty,oneof=hot new top rising"`

	// kafka
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// DefaultSources returns the configuration used when no sources file is given.
func DefaultSources() *SourcesConfig {
	return &SourcesConfig{
		Sources: []SourceConfig{{Name: "mock", Kind: SourceKindMock}},
	}
}

// LoadSources reads a YAML source list from fs. An empty path yields DefaultSources.
func LoadSources(fs afero.Fs, path string) (*SourcesConfig, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSources(), nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read sources file %q: %w", path, err)
	}
	var cfg SourcesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode sources file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints, per-kind required fields and that
// source names are unique.
func (c *SourcesConfig) Validate() error {
	if err := profileValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid sources config: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("invalid sources config: duplicate source name %q", s.Name)
		}
		seen[s.Name] = struct{}{}

		switch s.Kind {
		case SourceKindRSS:
			if s.URL == "" {
				return fmt.Errorf("invalid sources config: source %q: url is required", s.Name)
			}
		case SourceKindReddit:
			if s.Subreddit == "" {
				return fmt.Errorf("invalid sources config: source %q: subreddit is required", s.Name)
			}
		case SourceKindKafka:
			if len(s.Brokers) == 0 || s.Topic == "" {
				return fmt.Errorf("invalid sources config: source %q: brokers and topic are required", s.Name)
			}
		}
	}
	return nil
}

// Enabled returns the sources that are not disabled.
func (c *SourcesConfig) Enabled() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if !s.Disabled {
			out = append(out, s)
		}
	}
	return out
}
