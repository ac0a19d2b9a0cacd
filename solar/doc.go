// Package solar computes local sunrise and sunset times for a calendar
// date, geographic location, and UTC offset using the standard solar
// ephemeris approximation.
//
// The calculation is a pure function: it performs no I/O, keeps no
// state, and is safe to call concurrently. Polar day and polar night
// are reported as tagged outcomes on the result, never as errors.
//
// Basic Usage:
//
//	req := solar.Request{
//		Date: time.Date(2015, time.December, 18, 0, 0, 0, 0, time.UTC),
//		Location: solar.Location{
//			Latitude:  46.805,   // Québec City
//			Longitude: -71.2316,
//		},
//		UTCOffset: -5,
//	}
//
//	result, err := solar.Calculate(req)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if result.Sunrise.Occurs() {
//		fmt.Println("Sunrise:", result.Sunrise.Time)
//	}
//	if result.Sunset.Occurs() {
//		fmt.Println("Sunset:", result.Sunset.Time)
//	}
//
// The zenith angle controls the sunrise/sunset definition. The default
// (DefaultZenith, 90.833°) gives apparent sunrise/sunset including
// atmospheric refraction and the solar disk radius; ZenithCivil,
// ZenithNautical, and ZenithAstronomical select the matching twilight
// definitions.
//
// Returned times always carry the calendar date of the request. When
// the UTC offset pushes the wall clock past midnight, the time wraps
// into [0h, 24h) on the same date rather than rolling the date over.
package solar
