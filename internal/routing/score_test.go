package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-router/internal/models"
)

func TestScoreComponents(t *testing.T) {
	internship := testInternship(1, 10, 49.1, 6.2)
	teacher := testTeacher(1, 49.2, 6.2, 5)

	durationOnly := NewSolver(Options{Weights: Weights{Duration: 1}})
	pair := routedPair(1, 1, 10000, 1800)
	assert.InDelta(t, 50.0, durationOnly.score(internship, teacher, &pair, 1, 0), 0.001)

	// Trips beyond an hour saturate at 100
	longPair := routedPair(1, 1, 10000, 7200)
	assert.InDelta(t, 100.0, durationOnly.score(internship, teacher, &longPair, 1, 0), 0.001)

	distanceOnly := NewSolver(Options{Weights: Weights{Distance: 1}})
	assert.InDelta(t, 20.0, distanceOnly.score(internship, teacher, &pair, 1, 0), 0.001)

	farPair := routedPair(1, 1, 120000, 1800)
	assert.InDelta(t, 100.0, distanceOnly.score(internship, teacher, &farPair, 1, 0), 0.001)
}

func TestScoreBalancePenalty(t *testing.T) {
	internship := testInternship(1, 10, 49.1, 6.2)
	teacher := testTeacher(1, 49.2, 6.2, 20)
	pair := routedPair(1, 1, 10000, 1800)

	balanceOnly := NewSolver(Options{Weights: Weights{Balance: 1}})

	// At or below the mean load there is no penalty
	assert.InDelta(t, 0.0, balanceOnly.score(internship, teacher, &pair, 1, 2.0), 0.001)
	// Two visits above the mean cost 40 points
	assert.InDelta(t, 40.0, balanceOnly.score(internship, teacher, &pair, 4, 2.0), 0.001)
	// And the penalty caps at 100
	assert.InDelta(t, 100.0, balanceOnly.score(internship, teacher, &pair, 12, 2.0), 0.001)
}

func TestScoreAffinity(t *testing.T) {
	internship := testInternship(1, 10, 49.1, 6.2) // class 3A
	pair := routedPair(1, 1, 10000, 1800)

	affinityOnly := NewSolver(Options{Weights: Weights{Affinity: 1}})

	stranger := testTeacher(1, 49.2, 6.2, 5)
	assert.InDelta(t, 100.0, affinityOnly.score(internship, stranger, &pair, 1, 0), 0.001)

	homeroom := testTeacher(2, 49.2, 6.2, 5)
	homeroom.Classes = []string{"6B", "3a"}
	assert.InDelta(t, 0.0, affinityOnly.score(internship, homeroom, &pair, 1, 0), 0.001)
}

func TestScoreWeightNormalization(t *testing.T) {
	internship := testInternship(1, 10, 49.1, 6.2)
	teacher := testTeacher(1, 49.2, 6.2, 5)
	pair := routedPair(1, 1, 25000, 1800)

	// 3:1 duration:distance, both sub-scores at 50 — weighted mean is 50
	solver := NewSolver(Options{Weights: Weights{Duration: 3, Distance: 1}})
	assert.InDelta(t, 50.0, solver.score(internship, teacher, &pair, 1, 1), 0.001)

	// Scaling all weights by a constant changes nothing
	scaled := NewSolver(Options{Weights: Weights{Duration: 30, Distance: 10}})
	assert.InDelta(t, 50.0, scaled.score(internship, teacher, &pair, 1, 1), 0.001)
}

func TestScoreZeroWeightsFallsBackToTieBreaks(t *testing.T) {
	zero := NewSolver(Options{})
	internship := testInternship(1, 10, 49.1, 6.2)
	teacher := testTeacher(1, 49.2, 6.2, 5)
	pair := routedPair(1, 1, 25000, 1800)

	assert.Equal(t, 0.0, zero.score(internship, teacher, &pair, 1, 0))

	// With all scores at zero the comparator decides on duration
	req := &Request{
		Internships: []*models.Internship{internship},
		Teachers: []*models.Teacher{
			testTeacher(1, 49.2, 6.2, 5),
			testTeacher(2, 49.3, 6.3, 5),
		},
		Pairs: []models.CandidatePair{
			routedPair(1, 1, 9000, 700),
			routedPair(1, 2, 5000, 400),
		},
	}
	opts := noFallbacks()
	opts.Weights = Weights{}
	result := NewSolver(opts).Solve(context.Background(), req)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, int64(2), result.Assignments[0].TeacherID)
}

func TestBetterCandidateCascade(t *testing.T) {
	t1 := testTeacher(1, 49.2, 6.2, 5)
	t2 := testTeacher(2, 49.3, 6.3, 5)

	shortPair := routedPair(1, 1, 5000, 400)
	longPair := routedPair(1, 2, 9000, 700)

	lowScore := &candidate{teacher: t2, pair: &longPair, score: 10}
	highScore := &candidate{teacher: t1, pair: &shortPair, score: 20}
	assert.True(t, betterCandidate(lowScore, highScore))
	assert.False(t, betterCandidate(highScore, lowScore))

	fast := &candidate{teacher: t2, pair: &shortPair, score: 10}
	slow := &candidate{teacher: t1, pair: &longPair, score: 10}
	assert.True(t, betterCandidate(fast, slow))

	a := &candidate{teacher: t1, pair: &shortPair, score: 10}
	b := &candidate{teacher: t2, pair: &shortPair, score: 10}
	assert.True(t, betterCandidate(a, b))
	assert.False(t, betterCandidate(b, a))
}
