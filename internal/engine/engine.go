// Package engine runs the batch assignment pipeline: geocode whatever lacks
// coordinates, prune candidate teachers per internship, compute route
// metrics, then solve.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"internship-router/internal/address"
	"internship-router/internal/distance"
	"internship-router/internal/geocoding"
	"internship-router/internal/metrics"
	"internship-router/internal/models"
	"internship-router/internal/routing"
)

// Engine wires the resolver, the route calculator and the solver into one
// pipeline. It is single-threaded on purpose: the upstream providers
// self-throttle, so parallel dispatch would only reorder their queues.
type Engine struct {
	resolver   *geocoding.Resolver
	calculator distance.Calculator
	defaults   routing.Options
}

func New(resolver *geocoding.Resolver, calculator distance.Calculator, defaults routing.Options) *Engine {
	return &Engine{
		resolver:   resolver,
		calculator: calculator,
		defaults:   defaults,
	}
}

// Run executes the full pipeline for one batch and returns the assignment
// result. Internships and teachers are updated in place with resolved
// coordinates. The returned error is non-nil only when ctx is cancelled.
func (e *Engine) Run(ctx context.Context, internships []*models.Internship, teachers []*models.Teacher, opts *routing.Options) (*models.AssignmentResult, error) {
	runID := uuid.NewString()
	start := time.Now()
	options := e.effectiveOptions(opts)

	log.Printf("[ENGINE] Starting run: id=%s internships=%d teachers=%d", runID, len(internships), len(teachers))

	var warnings []string

	geocodeStart := time.Now()
	teacherFailures, err := e.locateTeachers(ctx, teachers)
	if err != nil {
		return nil, err
	}
	internshipFailures, err := e.locateInternships(ctx, internships)
	if err != nil {
		return nil, err
	}
	log.Printf("[TIMING] Geocoding: %v", time.Since(geocodeStart))
	if teacherFailures > 0 {
		warnings = append(warnings, fmt.Sprintf("%d of %d teacher addresses could not be geocoded", teacherFailures, len(teachers)))
	}
	if internshipFailures > 0 {
		warnings = append(warnings, fmt.Sprintf("%d of %d internship addresses could not be geocoded", internshipFailures, len(internships)))
	}

	routeStart := time.Now()
	pairs, degraded, err := e.buildPairs(ctx, internships, teachers, options)
	if err != nil {
		return nil, err
	}
	log.Printf("[TIMING] Route metrics: %v (pairs=%d degraded=%d)", time.Since(routeStart), len(pairs), degraded)
	if degraded > 0 {
		warnings = append(warnings, fmt.Sprintf("%d of %d route computations used road estimates", degraded, len(pairs)))
	}

	result := routing.NewSolver(options).Solve(ctx, &routing.Request{
		Internships: internships,
		Teachers:    teachers,
		Pairs:       pairs,
	})

	result.RunID = runID
	result.Warnings = warnings
	result.Stats.ElapsedMS = time.Since(start).Milliseconds()

	log.Printf("[ENGINE] Run complete: id=%s assigned=%d unassigned=%d warnings=%d elapsed=%v",
		runID, len(result.Assignments), len(result.Unassigned), len(warnings), time.Since(start))
	return result, nil
}

// effectiveOptions merges caller options with the engine defaults for the
// fields that must never be zero
func (e *Engine) effectiveOptions(opts *routing.Options) routing.Options {
	if opts == nil {
		return e.defaults
	}
	options := *opts
	if options.PruneK <= 0 {
		options.PruneK = e.defaults.PruneK
	}
	if options.PruneRadiusKM <= 0 {
		options.PruneRadiusKM = e.defaults.PruneRadiusKM
	}
	if options.ConeHalfAngleDeg <= 0 {
		options.ConeHalfAngleDeg = e.defaults.ConeHalfAngleDeg
	}
	return options
}

func (e *Engine) locateTeachers(ctx context.Context, teachers []*models.Teacher) (int, error) {
	failures := 0
	for _, teacher := range teachers {
		if teacher.HasPoint() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return failures, err
		}
		if teacher.Address == "" {
			failures++
			continue
		}
		res, err := e.resolver.Resolve(ctx, teacher.Address)
		if err != nil {
			return failures, err
		}
		if res.Status == models.GeocodeOK && res.Point != nil {
			teacher.Point = res.Point
		} else {
			failures++
			log.Printf("[ENGINE] Teacher address not geocoded: id=%d address=%q", teacher.ID, teacher.Address)
		}
	}
	return failures, nil
}

func (e *Engine) locateInternships(ctx context.Context, internships []*models.Internship) (int, error) {
	failures := 0
	for _, internship := range internships {
		// Zone exclusions match on the city, fill it from the address
		// when the caller left it out
		if internship.City == "" && internship.Address != "" {
			internship.City = address.Parse(internship.Address).City
		}

		if internship.HasPoint() {
			if internship.GeocodeStatus == "" {
				internship.GeocodeStatus = models.GeocodeOK
				internship.Precision = models.PrecisionFull
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return failures, err
		}
		if internship.Address == "" {
			internship.GeocodeStatus = models.GeocodeError
			internship.Precision = models.PrecisionNone
			failures++
			continue
		}

		res, err := e.resolver.Resolve(ctx, internship.Address)
		if err != nil {
			return failures, err
		}
		internship.GeocodeStatus = res.Status
		internship.Precision = res.Precision
		if res.Status == models.GeocodeOK && res.Point != nil {
			internship.Point = res.Point
		} else {
			failures++
			log.Printf("[ENGINE] Internship address not geocoded: id=%d student=%q address=%q",
				internship.ID, internship.StudentName, internship.Address)
		}
	}
	return failures, nil
}

// buildPairs computes route metrics for every internship against its pruned
// teacher neighborhood. A failed route never drops the pair: the estimate
// stands in and the pair is marked degraded.
func (e *Engine) buildPairs(ctx context.Context, internships []*models.Internship, teachers []*models.Teacher, opts routing.Options) ([]models.CandidatePair, int, error) {
	var pairs []models.CandidatePair
	degraded := 0

	for _, internship := range internships {
		if !internship.HasPoint() {
			continue
		}
		nearest := routing.NearestTeachers(internship, teachers, opts.PruneK, opts.PruneRadiusKM*1000)
		for _, near := range nearest {
			if err := ctx.Err(); err != nil {
				return nil, degraded, err
			}
			teacher := near.Teacher

			rm, err := e.calculator.RouteMetrics(ctx, *teacher.Point, *internship.Point)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, degraded, ctxErr
				}
				rm = distance.Fallback(*teacher.Point, *internship.Point)
				metrics.RecordRouteRequest(rm.Provider, "fallback")
				degraded++
				log.Printf("[ENGINE] Route failed, estimating: teacher=%d internship=%d err=%v", teacher.ID, internship.ID, err)
			}

			pairs = append(pairs, models.CandidatePair{
				TeacherID:      teacher.ID,
				InternshipID:   internship.ID,
				DistanceMeters: rm.DistanceMeters,
				DurationSecs:   rm.DurationSecs,
				Degraded:       rm.Degraded,
			})
		}
	}
	return pairs, degraded, nil
}
