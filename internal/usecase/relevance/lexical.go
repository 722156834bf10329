package relevance

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"itnews-radar/internal/config"
)

// Signal is the output of one scorer: a score in [0, 1] and the evidence behind it.
type Signal struct {
	Score   float64
	Matches []string
}

// Scorer maps raw text to one relevance signal.
type Scorer interface {
	Score(ctx context.Context, text string) (Signal, error)
}

type keywordCategory struct {
	name     string
	weight   float64
	terms    []string
	phrases  [][]string
	labels   []string
	patterns []*regexp.Regexp
}

// LexicalScorer scores text by weighted keyword categories.
// It is immutable after construction and safe for concurrent use.
type LexicalScorer struct {
	categories []keywordCategory
}

// NewLexicalScorer compiles the keyword categories of a scoring profile.
// Categories are evaluated from the highest weight down.
func NewLexicalScorer(categories []config.KeywordCategory) (*LexicalScorer, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("NewLexicalScorer: %w", ErrEmptyProfile)
	}

	compiled := make([]keywordCategory, 0, len(categories))
	for _, c := range categories {
		kc := keywordCategory{name: c.Name, weight: c.Weight}
		for _, term := range c.Terms {
			kc.terms = append(kc.terms, strings.ToLower(strings.TrimSpace(term)))
		}
		for _, tok := range c.Tokens {
			words := splitWords(tok)
			if len(words) == 0 {
				continue
			}
			kc.phrases = append(kc.phrases, words)
			kc.labels = append(kc.labels, strings.Join(words, " "))
		}
		for _, pat := range c.Patterns {
			re, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				return nil, fmt.Errorf("NewLexicalScorer: category %q: %w", c.Name, err)
			}
			kc.patterns = append(kc.patterns, re)
		}
		compiled = append(compiled, kc)
	}

	slices.SortStableFunc(compiled, func(a, b keywordCategory) int {
		switch {
		case a.weight > b.weight:
			return -1
		case a.weight < b.weight:
			return 1
		default:
			return 0
		}
	})

	return &LexicalScorer{categories: compiled}, nil
}

// Score returns the weight of the highest-weight category with at least one
// match. Repeated hits never raise the score above that weight. Matches lists
// every keyword found across all categories, sorted and de-duplicated.
func (s *LexicalScorer) Score(_ context.Context, text string) (Signal, error) {
	lower := strings.ToLower(text)
	words := splitWords(lower)
	tokens := tokenize(lower)

	var score float64
	found := make(map[string]struct{})
	for _, c := range s.categories {
		hit := c.match(lower, words, tokens, found)
		if hit && c.weight > score {
			score = c.weight
		}
	}

	matches := make([]string, 0, len(found))
	for k := range found {
		matches = append(matches, k)
	}
	slices.Sort(matches)

	return Signal{Score: score, Matches: matches}, nil
}

// match checks terms against the whole text, phrases against words (split at
// hyphens too, so "aws-hosted" contains "aws") and patterns against
// hyphen-joined tokens.
func (c keywordCategory) match(lower string, words, tokens []string, found map[string]struct{}) bool {
	hit := false
	for _, term := range c.terms {
		if term != "" && strings.Contains(lower, term) {
			found[term] = struct{}{}
			hit = true
		}
	}
	for i, phrase := range c.phrases {
		if containsPhrase(words, phrase) {
			found[c.labels[i]] = struct{}{}
			hit = true
		}
	}
	for _, re := range c.patterns {
		for _, tok := range tokens {
			if re.MatchString(tok) {
				found[tok] = struct{}{}
				hit = true
			}
		}
	}
	return hit
}

// tokenize lower-cases text and splits it into runs of letters, digits and
// inner hyphens, so that "CVE-2024-1234," yields "cve-2024-1234".
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "-"); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// splitWords lower-cases text and splits it into runs of letters and digits.
func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		if slices.Equal(tokens[i:i+len(phrase)], phrase) {
			return true
		}
	}
	return false
}
