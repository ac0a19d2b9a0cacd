package solar

import (
	"fmt"
	"math"
	"time"
)

// Calculate computes the local sunrise and sunset times for the request
// using the standard solar ephemeris approximation.
//
// The request date's time-of-day is ignored. A zero Zenith selects
// DefaultZenith. Latitude, longitude, zenith, and offset are used as
// given without clamping; polar day and polar night surface as tagged
// outcomes on the result. An InvalidInputError is returned for a zero
// date or for non-finite inputs that break the trigonometry outside the
// expected hour-angle boundary.
func Calculate(req Request) (*Result, error) {
	if req.Date.IsZero() {
		return nil, &InvalidInputError{Field: "date", Message: "date must be set"}
	}

	zenith := req.Zenith
	if zenith == 0 {
		zenith = DefaultZenith
	}

	n := req.Date.YearDay()
	lngHour := req.Location.Longitude / 15

	sunrise, err := computeEvent(n, lngHour, req.Location.Latitude, zenith, req.UTCOffset, true)
	if err != nil {
		return nil, err
	}
	sunset, err := computeEvent(n, lngHour, req.Location.Latitude, zenith, req.UTCOffset, false)
	if err != nil {
		return nil, err
	}

	zone := offsetZone(req.UTCOffset)
	return &Result{
		Sunrise: sunrise.toEvent(req.Date, zone),
		Sunset:  sunset.toEvent(req.Date, zone),
	}, nil
}

// eventValue is the raw outcome of a single rise/set computation: a
// local fractional hour in [0, 24) when the event occurs.
type eventValue struct {
	localHour float64
	outcome   Outcome
}

// toEvent attaches the fractional hour to the request's calendar date.
// Offset-induced wraparound keeps the wall clock on the same date.
func (v eventValue) toEvent(date time.Time, zone *time.Location) Event {
	if v.outcome != OutcomeOccurs {
		return Event{Outcome: v.outcome}
	}
	hour := int(v.localHour)
	frac := (v.localHour - float64(hour)) * 60
	minute := int(frac)
	second := int((frac - float64(minute)) * 60)
	return Event{
		Time: time.Date(date.Year(), date.Month(), date.Day(), hour, minute, second, 0, zone),
	}
}

// computeEvent runs the ephemeris approximation for one event. The
// rising event uses 6h local mean time as its starting estimate, the
// setting event 18h.
func computeEvent(n int, lngHour, latitude, zenith, utcOffset float64, rising bool) (eventValue, error) {
	eventHour := 18.0
	if rising {
		eventHour = 6.0
	}

	// Approximate time of the event, in days
	t := float64(n) + ((eventHour - lngHour) / 24)

	// Sun's mean anomaly
	m := (0.9856 * t) - 3.289

	// Sun's true longitude
	l := normalizeDegrees(m + (1.916 * sinDeg(m)) + (0.020 * sinDeg(2*m)) + 282.634)

	// Sun's right ascension, adjusted into the same quadrant as L and
	// converted to hours
	ra := normalizeDegrees(atanDeg(0.91764 * tanDeg(l)))
	lQuadrant := math.Floor(l/90) * 90
	raQuadrant := math.Floor(ra/90) * 90
	ra = (ra + (lQuadrant - raQuadrant)) / 15

	// Sun's declination
	sinDec := 0.39782 * sinDeg(l)
	cosDec := math.Cos(math.Asin(sinDec))

	// Local hour angle cosine
	cosH := (cosDeg(zenith) - (sinDec * sinDeg(latitude))) / (cosDec * cosDeg(latitude))
	switch {
	case math.IsNaN(cosH):
		return eventValue{}, &InvalidInputError{
			Field:   "location",
			Message: fmt.Sprintf("hour angle is undefined for latitude=%v longitude=%v zenith=%v", latitude, lngHour*15, zenith),
		}
	case cosH > 1:
		return eventValue{outcome: OutcomePolarNight}, nil
	case cosH < -1:
		return eventValue{outcome: OutcomePolarDay}, nil
	}

	// Hour angle, in hours
	h := acosDeg(cosH)
	if rising {
		h = 360 - h
	}
	h /= 15

	// Local mean time of the event
	lmt := h + ra - (0.06571 * t) - 6.622

	// Back to UTC, then to the requested local offset
	ut := normalizeHours(lmt - lngHour)
	localT := normalizeHours(ut + utcOffset)

	return eventValue{localHour: localT}, nil
}

// normalizeDegrees folds an angle into [0, 360)
func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// normalizeHours folds a time-of-day value into [0, 24)
func normalizeHours(h float64) float64 {
	h = math.Mod(h, 24)
	if h < 0 {
		h += 24
	}
	return h
}

// offsetZone builds a fixed time zone for a fractional UTC offset in hours
func offsetZone(offsetHours float64) *time.Location {
	if offsetHours == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+g", offsetHours), int(math.Round(offsetHours*3600)))
}

func sinDeg(deg float64) float64 { return math.Sin(deg * math.Pi / 180) }

func cosDeg(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }

func tanDeg(deg float64) float64 { return math.Tan(deg * math.Pi / 180) }

func atanDeg(x float64) float64 { return math.Atan(x) * 180 / math.Pi }

func acosDeg(x float64) float64 { return math.Acos(x) * 180 / math.Pi }
