// Command simulate runs the generator and the classifier offline. It draws a
// seeded sequence of reading sets on a fixed clock, classifies each one and
// writes the results as a JSON fixture, then prints risk-level statistics.
// With -verify it re-classifies an existing fixture and reports any drift.
//
// Usage:
//
//	go run ./cmd/simulate -n 500 -seed 7 -out data/mock/simulated_readings.json
//	go run ./cmd/simulate -verify data/mock/simulated_readings.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-early-warning/internal/domain"
	"github.com/couchcryptid/disaster-early-warning/internal/generator"
)

var baseTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// record is one fixture row.
type record struct {
	Readings  domain.ReadingSet `json:"readings"`
	RiskLevel domain.RiskLevel  `json:"risk_level"`
	Triggers  []domain.Trigger  `json:"triggers"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	n := flag.Int("n", 100, "number of reading sets to generate")
	seed := flag.Uint64("seed", 42, "random seed")
	interval := flag.Duration("interval", time.Minute, "simulated time between reading sets")
	out := flag.String("out", "", "output path for the JSON fixture (optional)")
	verify := flag.String("verify", "", "re-classify an existing fixture instead of generating")
	flag.Parse()

	if *verify != "" {
		return verifyFixture(*verify)
	}

	if *n <= 0 {
		flag.Usage()
		return errors.New("-n must be positive")
	}

	records := simulate(*n, *seed, *interval)
	log.Printf("generated %d reading sets (seed %d)", len(records), *seed)

	if *out != "" {
		if err := writeJSON(*out, records); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		log.Printf("wrote fixture: %s", *out)
	}

	printStats(records)
	return nil
}

func simulate(n int, seed uint64, interval time.Duration) []record {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	clock := clockwork.NewFakeClockAt(baseTime)

	records := make([]record, 0, n)
	for range n {
		rs := generator.NewReadingSet(rng, clock.Now())
		a := domain.Classify(rs)
		records = append(records, record{Readings: rs, RiskLevel: a.Level, Triggers: a.Triggers})
		clock.Advance(interval)
	}
	return records
}

func verifyFixture(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	var drift int
	for i, rec := range records {
		a := domain.Classify(rec.Readings)
		if a.Level != rec.RiskLevel || !slices.Equal(a.Triggers, rec.Triggers) {
			drift++
			fmt.Printf("  FAIL  record %d (%s): fixture %s %v, now %s %v\n",
				i, rec.Readings.Timestamp, rec.RiskLevel, alerts(rec.Triggers), a.Level, a.Alerts())
		}
	}

	fmt.Printf("verified %d records, %d drifted\n", len(records), drift)
	if drift > 0 {
		return fmt.Errorf("%d records no longer classify as recorded", drift)
	}
	return nil
}

func alerts(triggers []domain.Trigger) []string {
	out := make([]string, len(triggers))
	for i, t := range triggers {
		out[i] = t.Alert
	}
	return out
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(records []record) {
	levelCounts := map[domain.RiskLevel]int{}
	tierCounts := map[domain.Category]map[domain.RiskLevel]int{}
	for _, rec := range records {
		levelCounts[rec.RiskLevel]++
		for _, t := range rec.Triggers {
			if tierCounts[t.Category] == nil {
				tierCounts[t.Category] = map[domain.RiskLevel]int{}
			}
			tierCounts[t.Category][t.Level]++
		}
	}

	levels := []domain.RiskLevel{domain.RiskLow, domain.RiskModerate, domain.RiskHigh, domain.RiskCritical}

	fmt.Println("\n=== Overall risk level ===")
	for _, l := range levels {
		c := levelCounts[l]
		fmt.Printf("  %-9s %5d  (%5.1f%%)\n", l, c, 100*float64(c)/float64(len(records)))
	}

	fmt.Println("\n=== Fired tiers by category ===")
	for _, cat := range []domain.Category{domain.CategoryFlood, domain.CategorySeismic, domain.CategoryStorm} {
		fmt.Printf("  %-8s", cat)
		for _, l := range levels[1:] {
			fmt.Printf("  %s=%d", l, tierCounts[cat][l])
		}
		fmt.Println()
	}
}
