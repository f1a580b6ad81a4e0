package match

import "bestdeal/server/internal/models"

// Default scoring constants. They are configuration, not logic: tests and
// callers tune them through Config.
const (
	// DefaultThreshold is the minimum score at which two listings are
	// considered the same product.
	DefaultThreshold = 0.5
	// DefaultConflictCap is the ceiling applied when both listings carry a
	// model hint and the hints disagree.
	DefaultConflictCap = 0.4
)

// Config holds the tunable scoring parameters.
type Config struct {
	Threshold   float64
	ConflictCap float64
}

// DefaultConfig returns the standard scoring parameters.
func DefaultConfig() Config {
	return Config{
		Threshold:   DefaultThreshold,
		ConflictCap: DefaultConflictCap,
	}
}

// Matcher scores similarity between normalized token sets.
type Matcher struct {
	config Config
}

// New creates a Matcher with the given configuration.
func New(config Config) *Matcher {
	if config.Threshold <= 0 {
		config.Threshold = DefaultThreshold
	}
	if config.ConflictCap <= 0 {
		config.ConflictCap = DefaultConflictCap
	}
	return &Matcher{config: config}
}

// Threshold returns the configured same-product threshold.
func (m *Matcher) Threshold() float64 {
	return m.config.Threshold
}

// Score returns a similarity score in [0,1] between two token sets.
// The base score is the Jaccard overlap of the two sets. An identical
// non-empty model hint on both sides forces 1.0 regardless of overlap;
// conflicting non-empty hints cap the score at ConflictCap. Score is
// symmetric and returns 0 when either side is empty.
func (m *Matcher) Score(a, b models.TokenSet) float64 {
	if a.Model != "" && b.Model != "" {
		if a.Model == b.Model {
			return 1.0
		}
		score := jaccard(a.Tokens, b.Tokens)
		if score > m.config.ConflictCap {
			return m.config.ConflictCap
		}
		return score
	}
	return jaccard(a.Tokens, b.Tokens)
}

// Matches reports whether the pair scores at or above the threshold.
func (m *Matcher) Matches(a, b models.TokenSet) bool {
	return m.Score(a, b) >= m.config.Threshold
}

// jaccard computes intersection-over-union of two token slices. An empty
// union scores 0 by definition.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, tok := range a {
		set[tok] = struct{}{}
	}

	intersection := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, tok := range b {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := set[tok]; ok {
			intersection++
		} else {
			union++
		}
	}

	return float64(intersection) / float64(union)
}
