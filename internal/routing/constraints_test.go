package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"internship-router/internal/models"
)

func TestIsElectiveSubject(t *testing.T) {
	assert.True(t, IsElectiveSubject("espagnol"))
	assert.True(t, IsElectiveSubject("Espagnol"))
	assert.True(t, IsElectiveSubject("  Latin "))
	assert.True(t, IsElectiveSubject("arts plastiques"))
	assert.False(t, IsElectiveSubject("mathématiques"))
	assert.False(t, IsElectiveSubject("histoire-géographie"))
	assert.False(t, IsElectiveSubject(""))
}

func TestElectiveCompatible(t *testing.T) {
	maths := testTeacher(1, 49.2, 6.2, 5)

	spanish := testTeacher(2, 49.2, 6.2, 5)
	spanish.Subject = "espagnol"

	plain := testInternship(1, 10, 49.1, 6.2)

	withOption := testInternship(2, 11, 49.1, 6.2)
	withOption.Options = []string{"Espagnol"}

	withLVOption := testInternship(3, 12, 49.1, 6.2)
	withLVOption.Options = []string{"LV2 espagnol"}

	// Non-elective subjects accept anyone
	assert.True(t, electiveCompatible(maths, plain))
	assert.True(t, electiveCompatible(maths, withOption))

	// Elective subjects require a matching student option
	assert.False(t, electiveCompatible(spanish, plain))
	assert.True(t, electiveCompatible(spanish, withOption))
	assert.True(t, electiveCompatible(spanish, withLVOption))
}

func TestExcludedStudent(t *testing.T) {
	teacher := testTeacher(1, 49.2, 6.2, 5)
	teacher.Exclusions = []models.Exclusion{{Kind: models.ExcludeStudent, Value: "42"}}

	byID := testInternship(1, 42, 49.1, 6.2)
	other := testInternship(2, 43, 49.1, 6.2)

	assert.True(t, excluded(teacher, byID))
	assert.False(t, excluded(teacher, other))

	byName := testTeacher(2, 49.2, 6.2, 5)
	byName.Exclusions = []models.Exclusion{{Kind: models.ExcludeStudent, Value: "s43"}}
	assert.True(t, excluded(byName, other))
}

func TestExcludedClass(t *testing.T) {
	teacher := testTeacher(1, 49.2, 6.2, 5)
	teacher.Exclusions = []models.Exclusion{{Kind: models.ExcludeClass, Value: "3a"}}

	internship := testInternship(1, 10, 49.1, 6.2) // class 3A
	assert.True(t, excluded(teacher, internship))

	otherClass := testInternship(2, 11, 49.1, 6.2)
	otherClass.ClassName = "4B"
	assert.False(t, excluded(teacher, otherClass))
}

func TestExcludedZoneAndSector(t *testing.T) {
	zoned := testTeacher(1, 49.2, 6.2, 5)
	zoned.Exclusions = []models.Exclusion{{Kind: models.ExcludeZone, Value: "metz"}}

	inMetz := testInternship(1, 10, 49.1, 6.2) // city Metz
	assert.True(t, excluded(zoned, inMetz))

	elsewhere := testInternship(2, 11, 49.1, 6.2)
	elsewhere.City = "Thionville"
	elsewhere.Address = "4 Rue de la Gare, 57100 Thionville"
	assert.False(t, excluded(zoned, elsewhere))

	sectored := testTeacher(2, 49.2, 6.2, 5)
	sectored.Exclusions = []models.Exclusion{{Kind: models.ExcludeSector, Value: "rue de la gare"}}
	assert.True(t, excluded(sectored, elsewhere))
}

func TestExcludedEmptyValueIgnored(t *testing.T) {
	teacher := testTeacher(1, 49.2, 6.2, 5)
	teacher.Exclusions = []models.Exclusion{{Kind: models.ExcludeZone, Value: ""}}

	assert.False(t, excluded(teacher, testInternship(1, 10, 49.1, 6.2)))
}

func TestCheckHardFirstFailureWins(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDurationMin = 10
	solver := NewSolver(opts)

	// At capacity AND over the duration limit: capacity is reported because
	// the checks run in a fixed order
	teacher := testTeacher(1, 49.2, 6.2, 1)
	internship := testInternship(1, 10, 49.1, 6.2)
	pair := routedPair(1, 1, 90000, 4000)

	ok, reason := solver.checkHard(teacher, internship, &pair, 1)
	assert.False(t, ok)
	assert.Equal(t, "teacher at capacity", reason)

	ok, reason = solver.checkHard(teacher, internship, &pair, 0)
	assert.False(t, ok)
	assert.Equal(t, "duration above limit", reason)
}

func TestCheckHardUnlimitedWhenZero(t *testing.T) {
	solver := NewSolver(DefaultOptions())

	teacher := testTeacher(1, 49.2, 6.2, 5)
	internship := testInternship(1, 10, 49.1, 6.2)
	pair := routedPair(1, 1, 500000, 20000)

	// No limits configured: even an absurd trip passes
	ok, reason := solver.checkHard(teacher, internship, &pair, 0)
	assert.True(t, ok)
	assert.Empty(t, reason)
}
