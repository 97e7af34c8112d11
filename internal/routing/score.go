package routing

import (
	"math"
	"strings"

	"internship-router/internal/models"
)

const (
	// Normalization caps: a one-hour trip or a 50 km trip saturates its
	// criterion at 100
	durationCapSecs   = 3600.0
	distanceCapMeters = 50000.0

	// balancePenaltyPerVisit converts above-mean load into score points
	balancePenaltyPerVisit = 20.0

	// improvementEpsilon is the minimum score gain a local-search move must
	// bring; smaller differences are noise at route-estimate accuracy
	improvementEpsilon = 1.0

	// Fixed scores for fallback assignments made without route metrics.
	// They sort after any scored assignment, cone before balance.
	coneFallbackScore    = 500.0
	balanceFallbackScore = 400.0
)

// candidate is one teacher under consideration for one internship
type candidate struct {
	teacher *models.Teacher
	pair    *models.CandidatePair
	score   float64
}

// score rates placing the internship with the teacher; lower is better.
// load counts the teacher's assignments including this one, meanLoad is the
// current average load across all requested teachers. Each criterion maps to
// [0,100] and the weighted sum is normalized by the active weight total.
func (s *Solver) score(internship *models.Internship, teacher *models.Teacher, pair *models.CandidatePair, load int, meanLoad float64) float64 {
	w := s.opts.Weights
	sum := w.Sum()
	if sum <= 0 {
		// All criteria disabled: candidates tie at zero and the
		// comparator's duration/distance/ID cascade decides
		return 0
	}

	durScore := math.Min(pair.DurationSecs/durationCapSecs, 1) * 100
	distScore := math.Min(pair.DistanceMeters/distanceCapMeters, 1) * 100
	balScore := math.Min(math.Max(0, float64(load)-meanLoad)*balancePenaltyPerVisit, 100)

	affScore := 100.0
	for _, class := range teacher.Classes {
		if strings.EqualFold(class, internship.ClassName) {
			affScore = 0
			break
		}
	}

	weighted := w.Duration*durScore + w.Distance*distScore + w.Balance*balScore + w.Affinity*affScore
	return weighted / sum
}

// betterCandidate reports whether a beats b. Ties cascade through duration,
// distance and teacher ID so runs stay deterministic even with zero weights.
func betterCandidate(a, b *candidate) bool {
	// 1. Lower score wins
	if a.score != b.score {
		return a.score < b.score
	}

	// 2. Then the shorter trip
	if a.pair.DurationSecs != b.pair.DurationSecs {
		return a.pair.DurationSecs < b.pair.DurationSecs
	}
	if a.pair.DistanceMeters != b.pair.DistanceMeters {
		return a.pair.DistanceMeters < b.pair.DistanceMeters
	}

	// 3. Finally the lower teacher ID
	return a.teacher.ID < b.teacher.ID
}
