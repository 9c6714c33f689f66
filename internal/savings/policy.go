// Package savings tracks progress toward family savings goals and proposes
// spending reductions that would fund them.
package savings

import "strings"

// Policy holds the tunable constants of the goal tracker. Zero fields fall
// back to DefaultPolicy.
type Policy struct {
	// OnTrackTolerance scales the expected linear progress: a goal is on
	// track when percentage >= expected * OnTrackTolerance.
	OnTrackTolerance    float64
	EssentialCategories []string
	EssentialReduction  float64
	DefaultReduction    float64
	MaxSuggestions      int
}

// DefaultPolicy returns the stock tracker constants.
func DefaultPolicy() Policy {
	return Policy{
		OnTrackTolerance:    0.9,
		EssentialCategories: []string{"health", "education", "household"},
		EssentialReduction:  0.05,
		DefaultReduction:    0.15,
		MaxSuggestions:      5,
	}
}

// WithDefaults fills zero fields from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.OnTrackTolerance == 0 {
		p.OnTrackTolerance = d.OnTrackTolerance
	}
	if len(p.EssentialCategories) == 0 {
		p.EssentialCategories = d.EssentialCategories
	}
	if p.EssentialReduction == 0 {
		p.EssentialReduction = d.EssentialReduction
	}
	if p.DefaultReduction == 0 {
		p.DefaultReduction = d.DefaultReduction
	}
	if p.MaxSuggestions == 0 {
		p.MaxSuggestions = d.MaxSuggestions
	}
	return p
}

// IsEssential reports whether category is one of the essential categories.
func (p Policy) IsEssential(category string) bool {
	for _, c := range p.EssentialCategories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}
