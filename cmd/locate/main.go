// Command locate is an interactive location picker. Each line typed on stdin
// is treated as the new contents of a search box; matches appear after the
// quiet period.
//
// Usage:
//
//	go run ./cmd/locate
//
// Commands:
//
//	<text>          update the query
//	:pick N         select candidate N from the last list
//	:resolve TEXT   resolve TEXT to its best match immediately
//	:clear          drop the current selection
//	:quit           exit
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/adapter/geocode"
	"github.com/couchcryptid/heatwatch-service/internal/config"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
	"github.com/couchcryptid/heatwatch-service/internal/search"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.LogLevel = "warn"
	cfg.LogFormat = "text"
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var out sync.Mutex
	printf := func(format string, args ...any) {
		out.Lock()
		defer out.Unlock()
		fmt.Printf(format, args...)
	}

	ctrl := search.NewController(geocode.FromConfig(cfg, logger, metrics), logger, metrics,
		search.WithUpdateHook(func(s search.Session) {
			if s.Selected != nil || len(s.Candidates) == 0 {
				return
			}
			printf("results for %q:\n", s.Query)
			for i, c := range s.Candidates {
				printf("  %d. %s (%.4f, %.4f)\n", i+1, c.FullName(), c.Latitude, c.Longitude)
			}
		}),
	)
	defer ctrl.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")

		switch cmd {
		case ":quit":
			return nil
		case ":clear":
			ctrl.ClearSelection()
			printf("selection cleared\n")
		case ":pick":
			n, err := strconv.Atoi(arg)
			candidates := ctrl.Snapshot().Candidates
			if err != nil || n < 1 || n > len(candidates) {
				printf("pick a number between 1 and %d\n", len(candidates))
				continue
			}
			if err := ctrl.SelectCandidate(candidates[n-1]); err != nil {
				printf("select failed: %v\n", err)
				continue
			}
			printf("selected %s\n", candidates[n-1].FullName())
		case ":resolve":
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			c, ok, err := ctrl.ResolveExact(ctx, arg)
			cancel()
			switch {
			case err != nil:
				printf("resolve failed: %v\n", err)
			case !ok:
				printf("no place matches %q\n", arg)
			default:
				printf("%s (%.4f, %.4f)\n", c.FullName(), c.Latitude, c.Longitude)
			}
		default:
			ctrl.OnQueryChanged(line)
		}
	}
	return scanner.Err()
}
