package routing

import "internship-router/internal/models"

// Weights controls the relative importance of the scoring criteria. They do
// not need to sum to anything particular; scores are normalized by the sum
// of the active weights.
type Weights struct {
	Duration float64 `json:"duration" koanf:"duration"`
	Distance float64 `json:"distance" koanf:"distance"`
	Balance  float64 `json:"balance" koanf:"balance"`
	Affinity float64 `json:"affinity" koanf:"affinity"`
}

// Sum returns the total active weight
func (w Weights) Sum() float64 {
	return w.Duration + w.Distance + w.Balance + w.Affinity
}

// Options configures a solver run
type Options struct {
	Weights Weights `json:"weights" koanf:"weights"`

	// MaxDurationMin and MaxDistanceKM are hard limits on a single visit
	// trip; zero means unlimited
	MaxDurationMin float64 `json:"max_duration_min" koanf:"max_duration_min"`
	MaxDistanceKM  float64 `json:"max_distance_km" koanf:"max_distance_km"`

	// PruneK and PruneRadiusKM bound the candidate set per internship
	// before any route is computed
	PruneK        int     `json:"prune_k" koanf:"prune_k"`
	PruneRadiusKM float64 `json:"prune_radius_km" koanf:"prune_radius_km"`

	// LocalSearch enables the reassignment improvement pass after the
	// greedy phase
	LocalSearch   bool `json:"local_search" koanf:"local_search"`
	MaxIterations int  `json:"max_iterations" koanf:"max_iterations"`
	TimeBudgetMS  int  `json:"time_budget_ms" koanf:"time_budget_ms"`

	// ConeFallback assigns leftover internships to teachers living in the
	// same direction from the anchor point (typically the school)
	ConeFallback     bool             `json:"cone_fallback" koanf:"cone_fallback"`
	Anchor           *models.GeoPoint `json:"anchor,omitempty" koanf:"anchor"`
	ConeHalfAngleDeg float64          `json:"cone_half_angle_deg" koanf:"cone_half_angle_deg"`

	// BalanceFallback assigns whatever remains to the least-loaded
	// compatible teacher regardless of geography
	BalanceFallback bool `json:"balance_fallback" koanf:"balance_fallback"`

	Verbose bool `json:"verbose" koanf:"verbose"`
}

// DefaultOptions returns the solver configuration used when the caller
// supplies none
func DefaultOptions() Options {
	return Options{
		Weights: Weights{
			Duration: 60,
			Distance: 20,
			Balance:  20,
			Affinity: 0,
		},
		PruneK:           15,
		PruneRadiusKM:    100,
		LocalSearch:      true,
		MaxIterations:    30,
		TimeBudgetMS:     2000,
		ConeHalfAngleDeg: 45,
		BalanceFallback:  true,
	}
}
