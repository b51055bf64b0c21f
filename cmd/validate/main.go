// Command validate checks a training dataset and reports what the forecast
// model would learn from it. Each file is parsed, validated record by record,
// checked for duplicate or out-of-order dates, and trained on.
//
// Usage:
//
//	go run ./cmd/validate data/mock/satellite_30d.json [more files...]
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/heatwatch-service/internal/dataset"
	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/forecast"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
)

// phase tracks pass/fail for one dataset.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: validate FILE...")
		os.Exit(2)
	}
	os.Exit(run(os.Stdout, flag.Args()))
}

func run(w io.Writer, paths []string) int {
	fmt.Fprintln(w, "=== HeatWatch Dataset Validation ===")
	fmt.Fprintln(w)

	phases := make([]*phase, 0, len(paths))
	for _, path := range paths {
		phases = append(phases, validateFile(w, path))
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func validateFile(w io.Writer, path string) *phase {
	p := &phase{name: path}

	records, err := dataset.Load(path)
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	checkDates(p, records)

	// A fresh engine per file keeps reports independent.
	engine := forecast.NewEngine(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	report, err := engine.Train(records)
	if err != nil {
		p.errorf("train: %v", err)
		return p
	}

	state := engine.State()
	fmt.Fprintf(w, "%s: %d records, mean %.1f°C, bias %.1f, accuracy %.1f%% (simulated)\n",
		path, report.SampleCount, meanTemp(records), state.Bias, report.Accuracy*100)
	return p
}

// checkDates flags repeated dates and dates that go backwards.
func checkDates(p *phase, records []domain.HistoricalRecord) {
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		if first, ok := seen[rec.Date]; ok {
			p.errorf("record %d: date %s repeats record %d", i+1, rec.Date, first)
			continue
		}
		seen[rec.Date] = i + 1
		if i > 0 && rec.Date < records[i-1].Date {
			p.errorf("record %d: date %s is before %s", i+1, rec.Date, records[i-1].Date)
		}
	}
}

func meanTemp(records []domain.HistoricalRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.AvgTemp
	}
	return sum / float64(len(records))
}
