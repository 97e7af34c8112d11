package routing

import (
	"strconv"
	"strings"

	"internship-router/internal/models"
)

// Reported constraint failure reasons, deduplicated per internship
const (
	reasonAtCapacity      = "teacher at capacity"
	reasonDurationLimit   = "duration above limit"
	reasonDistanceLimit   = "distance above limit"
	reasonMissingElective = "missing elective option"
	reasonExcluded        = "explicit exclusion"
	reasonNoRoute         = "no computed route"
)

// electiveSubjects lists the subjects only taken by students who picked the
// matching option. A teacher of any other subject can supervise anyone.
var electiveSubjects = map[string]bool{
	"espagnol": true, "italien": true, "allemand": true, "portugais": true,
	"latin": true, "grec": true, "chinois": true, "russe": true, "arabe": true,
	"musique": true, "arts plastiques": true, "théâtre": true, "cinéma": true,
	"histoire des arts": true,
}

// IsElectiveSubject reports whether a subject requires the student to hold a
// matching option
func IsElectiveSubject(subject string) bool {
	return electiveSubjects[strings.ToLower(strings.TrimSpace(subject))]
}

// electiveCompatible reports whether the teacher's subject allows supervising
// this internship. Non-elective subjects always do; elective subjects need
// the student to carry an option naming the subject.
func electiveCompatible(teacher *models.Teacher, internship *models.Internship) bool {
	subject := strings.ToLower(strings.TrimSpace(teacher.Subject))
	if !electiveSubjects[subject] {
		return true
	}
	for _, opt := range internship.Options {
		o := strings.ToLower(strings.TrimSpace(opt))
		if o == subject || strings.Contains(o, subject) {
			return true
		}
	}
	return false
}

// excluded reports whether one of the teacher's exclusion rules forbids this
// internship
func excluded(teacher *models.Teacher, internship *models.Internship) bool {
	for _, ex := range teacher.Exclusions {
		if ex.Value == "" {
			continue
		}
		switch ex.Kind {
		case models.ExcludeStudent:
			if ex.Value == strconv.FormatInt(internship.StudentID, 10) ||
				strings.EqualFold(ex.Value, internship.StudentName) {
				return true
			}
		case models.ExcludeClass:
			if strings.EqualFold(ex.Value, internship.ClassName) {
				return true
			}
		case models.ExcludeZone, models.ExcludeSector:
			v := strings.ToLower(ex.Value)
			if strings.Contains(strings.ToLower(internship.Address), v) ||
				strings.Contains(strings.ToLower(internship.City), v) {
				return true
			}
		}
	}
	return false
}

// checkHard evaluates the hard constraints in their fixed order and returns
// the first failure. load is the teacher's committed assignment count.
func (s *Solver) checkHard(teacher *models.Teacher, internship *models.Internship, pair *models.CandidatePair, load int) (bool, string) {
	if load >= teacher.Capacity {
		return false, reasonAtCapacity
	}
	if s.opts.MaxDurationMin > 0 && pair.DurationSecs > s.opts.MaxDurationMin*60 {
		return false, reasonDurationLimit
	}
	if s.opts.MaxDistanceKM > 0 && pair.DistanceMeters > s.opts.MaxDistanceKM*1000 {
		return false, reasonDistanceLimit
	}
	if !electiveCompatible(teacher, internship) {
		return false, reasonMissingElective
	}
	if excluded(teacher, internship) {
		return false, reasonExcluded
	}
	return true, ""
}
