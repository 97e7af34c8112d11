// Package routing assigns internships to visiting teachers.
//
// The solver works in four phases: a greedy pass over routed candidate
// pairs, an optional local-search refinement, and two fallback passes
// (directional cone, load balancing) that place internships no routed
// teacher could take. Hard constraints (capacity, trip limits, elective
// compatibility, explicit exclusions) are never violated in any phase.
package routing

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"internship-router/internal/geo"
	"internship-router/internal/metrics"
	"internship-router/internal/models"
)

// Request carries one assignment problem: the internships to place, the
// teachers available, and the routed candidate pairs the engine computed.
type Request struct {
	Internships []*models.Internship
	Teachers    []*models.Teacher
	Pairs       []models.CandidatePair
}

// Solver runs the four-phase assignment over a Request.
type Solver struct {
	opts Options
}

func NewSolver(opts Options) *Solver {
	return &Solver{opts: opts}
}

// committed records one placed internship
type committed struct {
	teacherID      int64
	score          float64
	phase          int
	distanceMeters float64
	durationSecs   float64
	candidates     int  // routed teachers considered in phase 1
	refined        bool // moved by local search
}

// solverState is the mutable working set of a single Solve call
type solverState struct {
	assignments map[int64]*committed                      // internship ID -> placement
	loads       map[int64]int                             // teacher ID -> committed count
	pairs       map[int64]map[int64]*models.CandidatePair // internship ID -> teacher ID -> routed pair
	reasons     map[int64][]string                        // internship ID -> distinct rejection reasons
	reasonSeen  map[int64]map[string]bool
	totalCost   float64

	teacherByID    map[int64]*models.Teacher
	internshipByID map[int64]*models.Internship
}

func newSolverState(req *Request) *solverState {
	state := &solverState{
		assignments:    make(map[int64]*committed, len(req.Internships)),
		loads:          make(map[int64]int, len(req.Teachers)),
		pairs:          make(map[int64]map[int64]*models.CandidatePair, len(req.Internships)),
		reasons:        make(map[int64][]string),
		reasonSeen:     make(map[int64]map[string]bool),
		teacherByID:    make(map[int64]*models.Teacher, len(req.Teachers)),
		internshipByID: make(map[int64]*models.Internship, len(req.Internships)),
	}
	for _, t := range req.Teachers {
		state.teacherByID[t.ID] = t
		state.loads[t.ID] = 0
	}
	for _, it := range req.Internships {
		state.internshipByID[it.ID] = it
	}
	for i := range req.Pairs {
		pair := &req.Pairs[i]
		byTeacher := state.pairs[pair.InternshipID]
		if byTeacher == nil {
			byTeacher = make(map[int64]*models.CandidatePair)
			state.pairs[pair.InternshipID] = byTeacher
		}
		byTeacher[pair.TeacherID] = pair
	}
	return state
}

// addReason records a rejection reason once per internship, in first-seen order
func (st *solverState) addReason(internshipID int64, reason string) {
	seen := st.reasonSeen[internshipID]
	if seen == nil {
		seen = make(map[string]bool)
		st.reasonSeen[internshipID] = seen
	}
	if seen[reason] {
		return
	}
	seen[reason] = true
	st.reasons[internshipID] = append(st.reasons[internshipID], reason)
}

func (st *solverState) commit(internshipID int64, c *committed) {
	st.assignments[internshipID] = c
	st.loads[c.teacherID]++
	st.totalCost += c.score
}

func (st *solverState) move(internshipID, toTeacherID int64, newScore float64, pair *models.CandidatePair) {
	c := st.assignments[internshipID]
	st.loads[c.teacherID]--
	st.loads[toTeacherID]++
	st.totalCost += newScore - c.score
	c.teacherID = toTeacherID
	c.score = newScore
	c.distanceMeters = pair.DistanceMeters
	c.durationSecs = pair.DurationSecs
	c.refined = true
}

// assignedIDs returns the assigned internship IDs in ascending order
func (st *solverState) assignedIDs() []int64 {
	ids := make([]int64, 0, len(st.assignments))
	for id := range st.assignments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// meanLoad is the average committed load across all requested teachers
func (st *solverState) meanLoad(teacherCount int) float64 {
	if teacherCount == 0 {
		return 0
	}
	return float64(len(st.assignments)) / float64(teacherCount)
}

// sortedTeacherIDs returns the routed teacher IDs in ascending order
func sortedTeacherIDs(routed map[int64]*models.CandidatePair) []int64 {
	ids := make([]int64, 0, len(routed))
	for id := range routed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Solve runs all enabled phases and returns the full assignment result.
// Cancellation is cooperative: phase 2 stops refining when ctx is done, the
// remaining phases are linear and run to completion.
func (s *Solver) Solve(ctx context.Context, req *Request) *models.AssignmentResult {
	totalStart := time.Now()
	log.Printf("[ROUTING] Starting assignment: internships=%d teachers=%d pairs=%d",
		len(req.Internships), len(req.Teachers), len(req.Pairs))

	state := newSolverState(req)

	phaseStart := time.Now()
	assigned := s.phase1Greedy(state, req)
	metrics.RecordSolverPhaseDuration("greedy", time.Since(phaseStart).Seconds())
	log.Printf("[TIMING] Phase 1 (greedy): %v", time.Since(phaseStart))
	log.Printf("[ROUTING] Phase 1: assigned=%d unassigned=%d", assigned, len(req.Internships)-len(state.assignments))

	if s.opts.LocalSearch {
		phaseStart = time.Now()
		passes, moves := s.phase2LocalSearch(ctx, state)
		metrics.RecordSolverPhaseDuration("local_search", time.Since(phaseStart).Seconds())
		log.Printf("[TIMING] Phase 2 (local search): %v", time.Since(phaseStart))
		log.Printf("[ROUTING] Phase 2: passes=%d moves=%d total_cost=%.1f", passes, moves, state.totalCost)
	}

	if s.opts.ConeFallback && s.opts.Anchor != nil {
		phaseStart = time.Now()
		coneAssigned := s.phase3DirectionalCone(state, req)
		metrics.RecordSolverPhaseDuration("cone", time.Since(phaseStart).Seconds())
		log.Printf("[TIMING] Phase 3 (directional cone): %v", time.Since(phaseStart))
		log.Printf("[ROUTING] Phase 3: assigned=%d", coneAssigned)
	}

	if s.opts.BalanceFallback {
		phaseStart = time.Now()
		balanceAssigned := s.phase4Balance(state, req)
		metrics.RecordSolverPhaseDuration("balance", time.Since(phaseStart).Seconds())
		log.Printf("[TIMING] Phase 4 (balance): %v", time.Since(phaseStart))
		log.Printf("[ROUTING] Phase 4: assigned=%d", balanceAssigned)
	}

	result := s.buildResult(state, req, time.Since(totalStart))
	log.Printf("[ROUTING] Assignment complete: assigned=%d unassigned=%d total_cost=%.1f",
		len(result.Assignments), len(result.Unassigned), state.totalCost)
	log.Printf("[TIMING] TOTAL: %v", time.Since(totalStart))
	return result
}

// phase1Greedy places each internship with its best-scoring viable teacher,
// most constrained internships first.
func (s *Solver) phase1Greedy(state *solverState, req *Request) int {
	order := make([]*models.Internship, len(req.Internships))
	copy(order, req.Internships)
	sort.SliceStable(order, func(i, j int) bool {
		ci, cj := len(state.pairs[order[i].ID]), len(state.pairs[order[j].ID])
		if ci != cj {
			return ci < cj
		}
		return order[i].ID < order[j].ID
	})

	assigned := 0
	for _, internship := range order {
		routed := state.pairs[internship.ID]
		if len(routed) == 0 {
			state.addReason(internship.ID, reasonNoRoute)
			continue
		}

		meanLoad := state.meanLoad(len(req.Teachers))
		var best *candidate
		for _, teacherID := range sortedTeacherIDs(routed) {
			teacher := state.teacherByID[teacherID]
			if teacher == nil {
				continue
			}
			pair := routed[teacherID]
			ok, reason := s.checkHard(teacher, internship, pair, state.loads[teacherID])
			if !ok {
				state.addReason(internship.ID, reason)
				continue
			}
			cand := &candidate{
				teacher: teacher,
				pair:    pair,
				score:   s.score(internship, teacher, pair, state.loads[teacherID]+1, meanLoad),
			}
			if best == nil || betterCandidate(cand, best) {
				best = cand
			}
		}
		if best == nil {
			continue
		}

		state.commit(internship.ID, &committed{
			teacherID:      best.teacher.ID,
			score:          best.score,
			phase:          1,
			distanceMeters: best.pair.DistanceMeters,
			durationSecs:   best.pair.DurationSecs,
			candidates:     len(routed),
		})
		assigned++
		if s.opts.Verbose {
			log.Printf("[ROUTING] Phase 1: internship=%d -> teacher=%d score=%.1f duration=%.0fs",
				internship.ID, best.teacher.ID, best.score, best.pair.DurationSecs)
		}
	}
	return assigned
}

// phase2LocalSearch re-evaluates committed assignments against their other
// routed teachers and applies the first move per internship per pass that
// improves its score by more than improvementEpsilon. Returns the number of
// passes run and moves applied.
func (s *Solver) phase2LocalSearch(ctx context.Context, state *solverState) (int, int) {
	deadline := time.Now().Add(time.Duration(s.opts.TimeBudgetMS) * time.Millisecond)
	budgeted := s.opts.TimeBudgetMS > 0
	maxPasses := s.opts.MaxIterations
	if maxPasses <= 0 {
		maxPasses = 1
	}
	teacherCount := len(state.loads)

	passes, totalMoves := 0, 0
	for passes < maxPasses {
		if ctx.Err() != nil || (budgeted && time.Now().After(deadline)) {
			log.Printf("[ROUTING] Phase 2: stopping early: passes=%d", passes)
			break
		}
		passes++

		moves := 0
		for _, internshipID := range state.assignedIDs() {
			if budgeted && time.Now().After(deadline) {
				break
			}
			current := state.assignments[internshipID]
			internship := state.internshipByID[internshipID]
			routed := state.pairs[internshipID]
			curPair := routed[current.teacherID]
			curTeacher := state.teacherByID[current.teacherID]
			if curPair == nil || curTeacher == nil {
				continue
			}

			meanLoad := state.meanLoad(teacherCount)
			curScore := s.score(internship, curTeacher, curPair, state.loads[current.teacherID], meanLoad)

			for _, teacherID := range sortedTeacherIDs(routed) {
				if teacherID == current.teacherID {
					continue
				}
				teacher := state.teacherByID[teacherID]
				if teacher == nil {
					continue
				}
				pair := routed[teacherID]
				ok, _ := s.checkHard(teacher, internship, pair, state.loads[teacherID])
				if !ok {
					continue
				}
				altScore := s.score(internship, teacher, pair, state.loads[teacherID]+1, meanLoad)
				if altScore+improvementEpsilon < curScore {
					if s.opts.Verbose {
						log.Printf("[ROUTING] Phase 2: internship=%d teacher=%d->%d score=%.1f->%.1f",
							internshipID, current.teacherID, teacherID, curScore, altScore)
					}
					state.move(internshipID, teacherID, altScore, pair)
					moves++
					break
				}
			}
		}

		totalMoves += moves
		if moves == 0 {
			break
		}
	}
	return passes, totalMoves
}

// phase3DirectionalCone places still-unassigned internships with teachers
// living in the same direction from the anchor point, nearest internships
// first. Assignments carry the anchor-to-internship crow distance and a
// fixed fallback score.
func (s *Solver) phase3DirectionalCone(state *solverState, req *Request) int {
	anchor := *s.opts.Anchor

	var pending []*models.Internship
	for _, it := range req.Internships {
		if _, done := state.assignments[it.ID]; done {
			continue
		}
		if it.HasPoint() {
			pending = append(pending, it)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		di := geo.HaversineMeters(anchor, *pending[i].Point)
		dj := geo.HaversineMeters(anchor, *pending[j].Point)
		if di != dj {
			return di < dj
		}
		return pending[i].ID < pending[j].ID
	})

	assigned := 0
	for _, internship := range pending {
		internshipBearing := geo.BearingDegrees(anchor, *internship.Point)

		var best *models.Teacher
		bestSpare := 0
		for _, teacher := range req.Teachers {
			if !teacher.HasPoint() {
				continue
			}
			spare := teacher.Capacity - state.loads[teacher.ID]
			if spare <= 0 {
				continue
			}
			if !electiveCompatible(teacher, internship) || excluded(teacher, internship) {
				continue
			}
			teacherBearing := geo.BearingDegrees(anchor, *teacher.Point)
			if geo.BearingDiff(teacherBearing, internshipBearing) > s.opts.ConeHalfAngleDeg {
				continue
			}
			if best == nil || spare > bestSpare || (spare == bestSpare && teacher.ID < best.ID) {
				best = teacher
				bestSpare = spare
			}
		}
		if best == nil {
			continue
		}

		state.commit(internship.ID, &committed{
			teacherID:      best.ID,
			score:          coneFallbackScore,
			phase:          3,
			distanceMeters: geo.HaversineMeters(anchor, *internship.Point),
		})
		assigned++
		if s.opts.Verbose {
			log.Printf("[ROUTING] Phase 3: internship=%d -> teacher=%d (within %.0f° of anchor bearing)",
				internship.ID, best.ID, s.opts.ConeHalfAngleDeg)
		}
	}
	return assigned
}

// phase4Balance hands any remaining located internship to the least-loaded
// compatible teacher with spare capacity, ignoring geography.
func (s *Solver) phase4Balance(state *solverState, req *Request) int {
	var pending []*models.Internship
	for _, it := range req.Internships {
		if _, done := state.assignments[it.ID]; done {
			continue
		}
		if it.HasPoint() {
			pending = append(pending, it)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })

	assigned := 0
	for _, internship := range pending {
		var best *models.Teacher
		for _, teacher := range req.Teachers {
			if state.loads[teacher.ID] >= teacher.Capacity {
				continue
			}
			if !electiveCompatible(teacher, internship) || excluded(teacher, internship) {
				continue
			}
			if best == nil || state.loads[teacher.ID] < state.loads[best.ID] ||
				(state.loads[teacher.ID] == state.loads[best.ID] && teacher.ID < best.ID) {
				best = teacher
			}
		}
		if best == nil {
			continue
		}

		state.commit(internship.ID, &committed{
			teacherID: best.ID,
			score:     balanceFallbackScore,
			phase:     4,
		})
		assigned++
		if s.opts.Verbose {
			log.Printf("[ROUTING] Phase 4: internship=%d -> teacher=%d load=%d",
				internship.ID, best.ID, state.loads[best.ID])
		}
	}
	return assigned
}

func (s *Solver) buildResult(state *solverState, req *Request, elapsed time.Duration) *models.AssignmentResult {
	assignments := make([]models.Assignment, 0, len(state.assignments))
	for _, internshipID := range state.assignedIDs() {
		c := state.assignments[internshipID]
		assignments = append(assignments, models.Assignment{
			InternshipID:   internshipID,
			TeacherID:      c.teacherID,
			DistanceMeters: c.distanceMeters,
			DurationSecs:   c.durationSecs,
			Score:          c.score,
			Phase:          c.phase,
			Explanation:    explain(c),
		})
		metrics.RecordAssignment(c.phase)
	}

	unassigned := make([]models.UnassignedInternship, 0)
	for _, it := range req.Internships {
		if _, done := state.assignments[it.ID]; done {
			continue
		}
		var reasons []string
		switch {
		case len(state.pairs[it.ID]) == 0:
			reasons = []string{reasonNoRoute}
		case len(state.reasons[it.ID]) > 0:
			reasons = state.reasons[it.ID]
		default:
			reasons = []string{"all teachers at capacity"}
		}
		unassigned = append(unassigned, models.UnassignedInternship{
			InternshipID: it.ID,
			Reasons:      reasons,
		})
		metrics.RecordUnassigned()
	}

	return &models.AssignmentResult{
		Assignments: assignments,
		Unassigned:  unassigned,
		Stats:       buildStats(state, req, assignments, elapsed),
	}
}

func buildStats(state *solverState, req *Request, assignments []models.Assignment, elapsed time.Duration) models.AssignmentStats {
	loads := make(map[int64]int, len(req.Teachers))
	var sum float64
	for _, t := range req.Teachers {
		loads[t.ID] = state.loads[t.ID]
		sum += float64(state.loads[t.ID])
	}

	var mean, stddev float64
	if len(loads) > 0 {
		mean = sum / float64(len(loads))
		var variance float64
		for _, load := range loads {
			d := float64(load) - mean
			variance += d * d
		}
		stddev = math.Sqrt(variance / float64(len(loads)))
	}

	// Totals cover routed assignments only; fallback placements carry
	// synthetic metrics that would skew the averages
	var totalDist, totalDur float64
	routedCount := 0
	for _, a := range assignments {
		if a.Phase != 1 {
			continue
		}
		totalDist += a.DistanceMeters
		totalDur += a.DurationSecs
		routedCount++
	}
	var avgDist, avgDur float64
	if routedCount > 0 {
		avgDist = totalDist / float64(routedCount)
		avgDur = totalDur / float64(routedCount)
	}

	return models.AssignmentStats{
		TeacherLoads:        loads,
		MeanLoad:            mean,
		LoadStdDev:          stddev,
		TotalDistanceMeters: totalDist,
		TotalDurationSecs:   totalDur,
		AvgDistanceMeters:   avgDist,
		AvgDurationSecs:     avgDur,
		ElapsedMS:           elapsed.Milliseconds(),
	}
}

// explain renders the operator-facing provenance line for an assignment
func explain(c *committed) string {
	switch c.phase {
	case 1:
		text := fmt.Sprintf("best score among %d routed teachers", c.candidates)
		if c.refined {
			text += ", refined by local search"
		}
		return text
	case 3:
		return "directional fallback: teacher lies along the anchor bearing"
	case 4:
		return "balancing fallback: least-loaded compatible teacher"
	default:
		return ""
	}
}
