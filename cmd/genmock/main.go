// Command genmock writes a synthetic satellite dataset that the forecast
// model can be trained on. The output format follows the file extension
// (.json, .csv or .xlsx).
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/satellite_30d.json -days 30 -end 2024-06-01 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/dataset"
	"github.com/couchcryptid/heatwatch-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path (.json, .csv or .xlsx)")
	days := flag.Int("days", 30, "number of days to generate")
	end := flag.String("end", "", "exclusive end date YYYY-MM-DD (default today)")
	seed := flag.Uint64("seed", 42, "random seed for reproducible output")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *days <= 0 {
		return fmt.Errorf("-days must be positive, got %d", *days)
	}

	endDate := domain.Now()
	if *end != "" {
		t, err := time.Parse(time.DateOnly, *end)
		if err != nil {
			return fmt.Errorf("parse -end: %w", err)
		}
		endDate = t
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	records := dataset.GenerateMock(endDate, *days, rng)
	if err := dataset.Save(*out, records); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}

	log.Printf("wrote %d records (%s to %s) to %s", len(records), records[0].Date, records[len(records)-1].Date, *out)
	return nil
}
