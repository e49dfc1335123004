// Command validate checks the integrity of an exported ceremony log against
// the catalog that produced it: header totals, thunder cap, timestamp order,
// state continuity under decay, catalog conformance, and phase ordering.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -log gentle_weather_ceremony_log.txt \
//	  -catalog ceremony.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/storm-shock-simulator/internal/config"
	"github.com/couchcryptid/storm-shock-simulator/internal/report"
)

func main() {
	logPath := flag.String("log", "gentle_weather_ceremony_log.txt", "path to an exported ceremony log")
	catalogPath := flag.String("catalog", "", "YAML catalog overlay used for the run (default catalog if empty)")
	flag.Parse()

	if *logPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*logPath, *catalogPath); code != 0 {
		os.Exit(code)
	}
}

func run(logPath, catalogPath string) int {
	fmt.Println("=== Ceremony Log Integrity Validation ===")
	fmt.Println()

	cat, err := config.LoadCatalog(catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}

	f, err := os.Open(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open log: %v\n", err)
		return 1
	}
	lf, err := report.ReadLog(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse log: %v\n", err)
		return 1
	}

	phases := validateAll(lf, cat)

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Run %s: %d events, %d/%d thunder\n", lf.RunID, len(lf.Events), lf.ThunderCount, lf.ThunderCap)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}
