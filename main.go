// Package main provides the suntimes entry point and CLI interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/devskill-org/suntimes/almanac"
	"github.com/devskill-org/suntimes/solar"
)

func main() {
	// Command line flags
	var (
		dateStr    = flag.String("date", "", "Target date (format: YYYY-MM-DD, default: current date)")
		offset     = flag.Float64("offset", 0, "Offset from UTC in hours (may be fractional)")
		zenith     = flag.Float64("zenith", solar.DefaultZenith, "Zenith angle in degrees")
		serve      = flag.Bool("serve", false, "Run the almanac web service instead of a one-shot calculation")
		configFile = flag.String("config", "config.json", "Configuration file path (serve mode)")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	if *serve {
		os.Exit(runServe(*configFile))
	}

	os.Exit(runCalculate(flag.Args(), *dateStr, *offset, *zenith))
}

// runCalculate performs a one-shot calculation for the positional
// latitude/longitude arguments and prints the result.
func runCalculate(args []string, dateStr string, offset, zenith float64) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Error: latitude and longitude arguments are required")
		fmt.Fprintln(os.Stderr, "Usage: suntimes [OPTIONS] LAT LON (see -help)")
		return 2
	}

	latitude, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid latitude %q: %v\n", args[0], err)
		return 2
	}
	longitude, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid longitude %q: %v\n", args[1], err)
		return 2
	}

	date := time.Now()
	if dateStr != "" {
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid date %q: %v\n", dateStr, err)
			return 2
		}
	}

	req := solar.Request{
		Date:      date,
		Location:  solar.Location{Latitude: latitude, Longitude: longitude},
		Zenith:    zenith,
		UTCOffset: offset,
	}

	if err := solar.ValidateRequest(req); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}

	result, err := solar.Calculate(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	fmt.Printf("Latitude:  %g\n", latitude)
	fmt.Printf("Longitude: %g\n", longitude)
	fmt.Printf("Date:      %s\n", date.Format("2006-01-02"))
	fmt.Printf("Offset:    %+g\n", offset)
	printEvent("Sunrise", result.Sunrise)
	printEvent("Sunset", result.Sunset)

	if length, ok := result.DayLength(); ok {
		fmt.Printf("Day length: %s\n", length)
	}

	return 0
}

// printEvent prints a single event line, or the polar explanation when
// the event does not occur.
func printEvent(name string, e solar.Event) {
	if !e.Occurs() {
		fmt.Printf("%s:   none (%s)\n", name, e.Outcome)
		return
	}
	fmt.Printf("%s:   %s\n", name, e.Time.Format("15:04:05"))
}

// runServe runs the almanac web service until interrupted
func runServe(configFile string) int {
	// Load .env for environment overrides; a missing file is fine
	_ = godotenv.Load()

	config, err := almanac.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading configuration:", err)
		return 1
	}
	config.ApplyEnv()

	fmt.Printf("Starting suntimes almanac with the following configuration:\n")
	fmt.Printf("  Location:           (%.4f, %.4f)\n", config.Latitude, config.Longitude)
	fmt.Printf("  UTC Offset:         %+g\n", config.UTCOffset)
	fmt.Printf("  Refresh Interval:   %s\n", config.RefreshInterval)
	fmt.Printf("  Server Port:        %d\n", config.ServerPort)

	if config.DryRun {
		fmt.Printf("  Mode: DRY-RUN (history writes will be simulated only)\n")
	}
	fmt.Println()

	// Create logger
	logger := log.New(os.Stdout, "[ALMANAC] ", log.LstdFlags)

	// Create service
	service := almanac.NewWithServer(config, logger)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start service in a goroutine
	go func() {
		if err := service.Start(ctx); err != nil {
			if err != context.Canceled {
				logger.Printf("Almanac error: %v", err)
			}
		}
	}()

	logger.Printf("Almanac started. Press Ctrl+C to stop...")

	// Wait for shutdown signal
	<-sigChan
	logger.Printf("Shutdown signal received, stopping almanac...")

	// Cancel context to stop the service
	cancel()

	// Give the service a moment to clean up
	service.Stop()

	logger.Printf("Almanac stopped successfully")
	return 0
}

func showHelp() {
	fmt.Println("suntimes - Compute local sunrise and sunset times for a date and location")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Computes sunrise and sunset using the standard solar ephemeris")
	fmt.Println("  approximation. Takes a latitude and longitude in decimal degrees and")
	fmt.Println("  an optional numeric UTC offset; polar day and polar night are reported")
	fmt.Println("  explicitly. With -serve it runs a web service that keeps the current")
	fmt.Println("  day's times computed for a configured location, streams the live solar")
	fmt.Println("  position over WebSocket, and can record history to PostgreSQL.")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  suntimes [OPTIONS] LAT LON")
	fmt.Println("  suntimes -serve [-config=config.json]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Sunrise/sunset for Québec City today, in UTC")
	fmt.Println("  suntimes 46.805 -71.2316")
	fmt.Println()
	fmt.Println("  # A specific date in Eastern Standard Time")
	fmt.Println("  suntimes -date=2015-12-18 -offset=-5 46.805 -71.2316")
	fmt.Println()
	fmt.Println("  # Civil twilight instead of apparent sunrise/sunset")
	fmt.Println("  suntimes -zenith=96 46.805 -71.2316")
	fmt.Println()
	fmt.Println("  # Run the almanac web service")
	fmt.Println("  suntimes -serve -config=config.json")
	fmt.Println()
	fmt.Println("  # Show this help")
	fmt.Println("  suntimes -help")
}
