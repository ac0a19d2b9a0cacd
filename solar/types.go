package solar

import "time"

// Zenith angles for the common sunrise/sunset definitions, in degrees
// measured from directly overhead.
const (
	// DefaultZenith is the apparent sunrise/sunset zenith, including
	// atmospheric refraction and the solar disk radius.
	DefaultZenith = 90.833

	ZenithCivil        = 96.0
	ZenithNautical     = 102.0
	ZenithAstronomical = 108.0
)

// DefaultUTCOffset is the UTC offset applied when the request leaves it zero.
const DefaultUTCOffset = 0.0

// Location represents a geographic position in decimal degrees
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Request represents a single sunrise/sunset calculation
type Request struct {
	Date      time.Time `json:"date"`       // Calendar date; any time-of-day component is ignored
	Location  Location  `json:"location"`   // Observer position
	Zenith    float64   `json:"zenith"`     // Degrees; zero selects DefaultZenith
	UTCOffset float64   `json:"utc_offset"` // Hours to add to UTC for local civil time, may be fractional
}

// NewRequest creates a request for the given date and location with the
// default zenith and a zero UTC offset.
func NewRequest(date time.Time, loc Location) Request {
	return Request{
		Date:      date,
		Location:  loc,
		Zenith:    DefaultZenith,
		UTCOffset: DefaultUTCOffset,
	}
}

// Outcome classifies whether a rise or set event happens on the
// requested date.
type Outcome int

const (
	// OutcomeOccurs means the event happens and Event.Time is valid.
	OutcomeOccurs Outcome = iota
	// OutcomePolarNight means the sun never rises on this date at this
	// latitude for the requested zenith.
	OutcomePolarNight
	// OutcomePolarDay means the sun never sets on this date at this
	// latitude for the requested zenith.
	OutcomePolarDay
)

// String returns a human-readable name for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeOccurs:
		return "occurs"
	case OutcomePolarNight:
		return "polar night"
	case OutcomePolarDay:
		return "polar day"
	default:
		return "unknown"
	}
}

// Event represents a single rise or set event. Time is only meaningful
// when Outcome is OutcomeOccurs.
type Event struct {
	Time    time.Time `json:"time,omitzero"`
	Outcome Outcome   `json:"outcome"`
}

// Occurs reports whether the event happens on the requested date
func (e Event) Occurs() bool {
	return e.Outcome == OutcomeOccurs
}

// Result holds the two computed events for a request
type Result struct {
	Sunrise Event `json:"sunrise"`
	Sunset  Event `json:"sunset"`
}

// DayLength returns the duration between sunrise and sunset. The second
// return value is false when either event does not occur, or when the
// wall-clock times wrap around midnight and the nominal-day ordering is
// lost.
func (r *Result) DayLength() (time.Duration, bool) {
	if r == nil || !r.Sunrise.Occurs() || !r.Sunset.Occurs() {
		return 0, false
	}
	d := r.Sunset.Time.Sub(r.Sunrise.Time)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// ValidateRequest checks the documented input ranges: latitude within
// -90..90, longitude within -180..180, UTC offset within -12..14, and a
// non-zero date. Calculate itself does not range-check its inputs; this
// helper is for callers that accept untrusted values.
func ValidateRequest(req Request) error {
	if req.Date.IsZero() {
		return &InvalidInputError{Field: "date", Message: "date must be set"}
	}
	if req.Location.Latitude < -90 || req.Location.Latitude > 90 {
		return &InvalidInputError{Field: "latitude", Message: "must be between -90 and 90"}
	}
	if req.Location.Longitude < -180 || req.Location.Longitude > 180 {
		return &InvalidInputError{Field: "longitude", Message: "must be between -180 and 180"}
	}
	if req.UTCOffset < -12 || req.UTCOffset > 14 {
		return &InvalidInputError{Field: "utc_offset", Message: "must be between -12 and 14"}
	}
	return nil
}
