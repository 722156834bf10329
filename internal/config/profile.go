package config

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed default_profile.yaml
var defaultProfileYAML []byte

// ScoringProfile describes the keyword categories and reference topics
// used by the relevance scorers. Weights and the topic threshold are
// tuning parameters, not structural contracts.
type ScoringProfile struct {
	// TopicThreshold is the minimum similarity for a topic to be reported
	// as matched. It does not affect the semantic score itself.
	TopicThreshold float64 `yaml:"topic_threshold" validate:"gte=0,lte=1"`

	// Categories are the weighted keyword groups of the lexical scorer.
	Categories []KeywordCategory `yaml:"categories" validate:"required,min=1,dive"`

	// Topics are the reference descriptions of the semantic scorer.
	Topics []string `yaml:"topics" validate:"required,min=1,dive,required"`
}

// KeywordCategory is one weighted group of keywords.
type KeywordCategory struct {
	Name   string  `yaml:"name" validate:"required"`
	Weight float64 `yaml:"weight" validate:"gt=0,lte=1"`

	// Terms match anywhere in the lower-cased text.
	Terms []string `yaml:"terms" validate:"dive,required"`
	// Tokens match whole tokens or whole token sequences only.
	Tokens []string `yaml:"tokens" validate:"dive,required"`
	// Patterns are regular expressions matched against single tokens.
	Patterns []string `yaml:"patterns" validate:"dive,required"`
}

var profileValidator = validator.New(validator.WithRequiredStructEnabled())

// DefaultProfile returns the built-in IT-operations profile.
func DefaultProfile() (*ScoringProfile, error) {
	return ParseProfile(defaultProfileYAML)
}

// LoadProfile reads a YAML profile from fs. An empty path yields the default profile.
func LoadProfile(fs afero.Fs, path string) (*ScoringProfile, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultProfile()
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read scoring profile %q: %w", path, err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes and validates a YAML profile.
func ParseProfile(data []byte) (*ScoringProfile, error) {
	var p ScoringProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode scoring profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks field constraints and that every pattern compiles.
func (p *ScoringProfile) Validate() error {
	if err := profileValidator.Struct(p); err != nil {
		return fmt.Errorf("invalid scoring profile: %w", err)
	}

	seen := make(map[string]struct{}, len(p.Categories))
	var errs []error
	for _, c := range p.Categories {
		key := strings.ToLower(c.Name)
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("category %q: duplicate name", c.Name))
		}
		seen[key] = struct{}{}
		if len(c.Terms)+len(c.Tokens)+len(c.Patterns) == 0 {
			errs = append(errs, fmt.Errorf("category %q: no keywords", c.Name))
		}
		for _, pat := range c.Patterns {
			if _, err := regexp.Compile(pat); err != nil {
				errs = append(errs, fmt.Errorf("category %q: pattern %q: %w", c.Name, pat, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid scoring profile: %w", errors.Join(errs...))
	}
	return nil
}
