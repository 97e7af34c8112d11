package routing

import (
	"sort"

	"internship-router/internal/geo"
	"internship-router/internal/models"
)

// TeacherDistance pairs a teacher with its crow-flight distance to one
// internship
type TeacherDistance struct {
	Teacher *models.Teacher
	Meters  float64
}

// NearestTeachers returns up to k teachers within radiusMeters of the
// internship, nearest first. A cheap bounding-box test culls most teachers
// before the exact haversine; teachers or internships without coordinates
// are skipped entirely. This caps route computations at k per internship.
func NearestTeachers(internship *models.Internship, teachers []*models.Teacher, k int, radiusMeters float64) []TeacherDistance {
	if !internship.HasPoint() || k <= 0 {
		return nil
	}

	box := geo.BoundingBox(*internship.Point, radiusMeters)

	candidates := make([]TeacherDistance, 0, len(teachers))
	for _, t := range teachers {
		if !t.HasPoint() {
			continue
		}
		if !box.Contains(*t.Point) {
			continue
		}
		meters := geo.HaversineMeters(*internship.Point, *t.Point)
		if meters > radiusMeters {
			continue
		}
		candidates = append(candidates, TeacherDistance{Teacher: t, Meters: meters})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Meters != candidates[j].Meters {
			return candidates[i].Meters < candidates[j].Meters
		}
		return candidates[i].Teacher.ID < candidates[j].Teacher.ID
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}
