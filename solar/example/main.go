// Package main provides an example of computing sunrise and sunset times.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/devskill-org/suntimes/solar"
)

func main() {
	// Sunrise and sunset for Québec City in Eastern Standard Time
	req := solar.Request{
		Date:      time.Date(2015, time.December, 18, 0, 0, 0, 0, time.UTC),
		Location:  solar.Location{Latitude: 46.805, Longitude: -71.2316},
		Zenith:    solar.DefaultZenith,
		UTCOffset: -5,
	}

	result, err := solar.Calculate(req)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Sunrise:", result.Sunrise.Time.Format("15:04:05"))
	fmt.Println("Sunset:", result.Sunset.Time.Format("15:04:05"))

	if length, ok := result.DayLength(); ok {
		fmt.Println("Day length:", length)
	}

	// Civil twilight uses a deeper zenith angle
	req.Zenith = solar.ZenithCivil
	twilight, err := solar.Calculate(req)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Civil dawn:", twilight.Sunrise.Time.Format("15:04:05"))
	fmt.Println("Civil dusk:", twilight.Sunset.Time.Format("15:04:05"))
}
