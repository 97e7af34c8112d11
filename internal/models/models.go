package models

import "time"

// GeoPoint represents a geographic point
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within WGS84 bounds
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Country identifies which national address format applies
type Country string

const (
	CountryFrance     Country = "FR"
	CountryLuxembourg Country = "LU"
	CountryUnknown    Country = ""
)

// AddressQuality classifies how much of an address could be recovered by parsing
type AddressQuality string

const (
	QualityComplete AddressQuality = "complete"
	QualityPartial  AddressQuality = "partial"
	QualityMinimal  AddressQuality = "minimal"
	QualityInvalid  AddressQuality = "invalid"
)

// GeocodeStatus marks the outcome of a geocoding attempt
type GeocodeStatus string

const (
	GeocodeOK      GeocodeStatus = "ok"
	GeocodeError   GeocodeStatus = "error"
	GeocodePending GeocodeStatus = "pending"
)

// Precision indicates which fallback tier produced the coordinates
type Precision string

const (
	PrecisionFull     Precision = "full"
	PrecisionCity     Precision = "city"
	PrecisionTownHall Precision = "townhall"
	PrecisionNone     Precision = "none"
)

// Rank orders precisions from worst (0) to best (3)
func (p Precision) Rank() int {
	switch p {
	case PrecisionFull:
		return 3
	case PrecisionCity:
		return 2
	case PrecisionTownHall:
		return 1
	default:
		return 0
	}
}

// Confidence classifies how trustworthy a geocoding result is
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

// GeocodeCacheEntry represents a cached geocoding outcome, success or failure
type GeocodeCacheEntry struct {
	AddressHash       string        `json:"address_hash"`
	Address           string        `json:"address"`
	NormalizedAddress string        `json:"normalized_address"`
	Point             *GeoPoint     `json:"point,omitempty"`
	Provider          string        `json:"provider,omitempty"`
	Confidence        Confidence    `json:"confidence,omitempty"`
	Status            GeocodeStatus `json:"status"`
	Precision         Precision     `json:"precision"`
	Query             string        `json:"query,omitempty"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// RouteCacheEntry represents a cached origin-destination road metric
type RouteCacheEntry struct {
	PairHash       string    `json:"pair_hash"`
	Origin         GeoPoint  `json:"origin"`
	Destination    GeoPoint  `json:"destination"`
	DistanceMeters float64   `json:"distance_meters"`
	DurationSecs   float64   `json:"duration_secs"`
	Provider       string    `json:"provider"`
	CreatedAt      time.Time `json:"created_at"`
}

// Internship represents a student work placement requiring supervision visits
type Internship struct {
	ID            int64         `json:"id"`
	StudentID     int64         `json:"student_id"`
	StudentName   string        `json:"student_name"`
	ClassName     string        `json:"class_name"`
	Options       []string      `json:"options,omitempty"`
	Address       string        `json:"address"`
	City          string        `json:"city,omitempty"`
	Point         *GeoPoint     `json:"point,omitempty"`
	GeocodeStatus GeocodeStatus `json:"geocode_status,omitempty"`
	Precision     Precision     `json:"precision,omitempty"`
}

// HasPoint reports whether the internship has usable coordinates
func (i *Internship) HasPoint() bool {
	return i.Point != nil && i.Point.Valid()
}

// ExclusionKind is the category an exclusion rule applies to
type ExclusionKind string

const (
	ExcludeStudent ExclusionKind = "student"
	ExcludeClass   ExclusionKind = "class"
	ExcludeZone    ExclusionKind = "zone"
	ExcludeSector  ExclusionKind = "sector"
)

// Exclusion is an explicit rule forbidding a teacher from supervising a match
type Exclusion struct {
	Kind   ExclusionKind `json:"kind"`
	Value  string        `json:"value"`
	Reason string        `json:"reason,omitempty"`
}

// Teacher represents a supervising teacher
type Teacher struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Subject    string      `json:"subject"`
	Address    string      `json:"address"`
	Point      *GeoPoint   `json:"point,omitempty"`
	Capacity   int         `json:"capacity"`
	Classes    []string    `json:"classes,omitempty"`
	Exclusions []Exclusion `json:"exclusions,omitempty"`
}

// HasPoint reports whether the teacher has usable coordinates
func (t *Teacher) HasPoint() bool {
	return t.Point != nil && t.Point.Valid()
}

// CandidatePair is a routed internship-teacher pair under consideration
type CandidatePair struct {
	TeacherID      int64   `json:"teacher_id"`
	InternshipID   int64   `json:"internship_id"`
	DistanceMeters float64 `json:"distance_meters"`
	DurationSecs   float64 `json:"duration_secs"`
	Degraded       bool    `json:"degraded,omitempty"`
}

// Assignment pairs an internship with its supervising teacher
type Assignment struct {
	InternshipID   int64   `json:"internship_id"`
	TeacherID      int64   `json:"teacher_id"`
	DistanceMeters float64 `json:"distance_meters"`
	DurationSecs   float64 `json:"duration_secs"`
	Score          float64 `json:"score"`
	Phase          int     `json:"phase"`
	Explanation    string  `json:"explanation,omitempty"`
}

// UnassignedInternship reports why an internship found no teacher
type UnassignedInternship struct {
	InternshipID int64    `json:"internship_id"`
	Reasons      []string `json:"reasons"`
}

// AssignmentStats contains aggregate stats for an assignment run.
// Distance and duration totals cover phase 1 assignments only; fallback
// phases carry placeholder metrics that would skew the averages.
type AssignmentStats struct {
	TeacherLoads        map[int64]int `json:"teacher_loads"`
	MeanLoad            float64       `json:"mean_load"`
	LoadStdDev          float64       `json:"load_std_dev"`
	TotalDistanceMeters float64       `json:"total_distance_meters"`
	TotalDurationSecs   float64       `json:"total_duration_secs"`
	AvgDistanceMeters   float64       `json:"avg_distance_meters"`
	AvgDurationSecs     float64       `json:"avg_duration_secs"`
	ElapsedMS           int64         `json:"elapsed_ms"`
}

// AssignmentResult contains the full result of an assignment run
type AssignmentResult struct {
	RunID       string                 `json:"run_id"`
	Assignments []Assignment           `json:"assignments"`
	Unassigned  []UnassignedInternship `json:"unassigned"`
	Stats       AssignmentStats        `json:"stats"`
	Warnings    []string               `json:"warnings"`
}
