// Command loadtest drives concurrent checkouts of one contended item against a
// running service and verifies that no unit is sold twice.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := &LoadTestConfig{}
	flag.StringVar(&cfg.BaseURL, "base-url", "http://localhost:8080", "Service base URL")
	flag.StringVar(&cfg.JWTSecret, "secret", os.Getenv("SB_JWT_SECRET"), "JWT secret shared with the service")
	flag.StringVar(&cfg.Issuer, "issuer", "salesboard", "JWT issuer expected by the service")
	flag.IntVar(&cfg.Buyers, "buyers", 100, "Concurrent buyers")
	flag.IntVar(&cfg.Rounds, "rounds", 5, "Checkouts attempted by each buyer")
	flag.IntVar(&cfg.Stock, "stock", 250, "Units listed for the contended item")
	out := flag.String("out", "", "Write the report as JSON to this file")
	flag.Parse()

	if len(flag.Args()) > 0 {
		switch flag.Arg(0) {
		case "light":
			cfg.Buyers, cfg.Rounds = 20, 3
		case "heavy":
			cfg.Buyers, cfg.Rounds = 500, 10
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Configuration:\n")
	fmt.Printf("- Base URL: %s\n", cfg.BaseURL)
	fmt.Printf("- Buyers: %d x %d rounds\n", cfg.Buyers, cfg.Rounds)
	fmt.Printf("- Stock: %d\n\n", cfg.Stock)

	report, err := NewLoadTester(cfg).Run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load test failed:", err)
		os.Exit(1)
	}
	report.PrintReport()

	if *out != "" {
		if err := report.SaveToFile(*out); err != nil {
			fmt.Fprintln(os.Stderr, "save report:", err)
		}
	}
	if !report.StockConserved {
		os.Exit(2)
	}
}
