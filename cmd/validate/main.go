// Package main provides an offline check of the company data directory:
// every record must conform to the company schema and must not list the
// same resource URL twice.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/howtheytest/contribution-server/internal/store"
)

func main() {
	dataDir := flag.String("data-dir", "data", "Data directory root (holds companies/)")
	flag.Parse()

	problems, checked, err := run(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		os.Exit(1)
	}

	for _, p := range problems {
		fmt.Println(p)
	}

	if len(problems) > 0 {
		fmt.Printf("\n%d file(s) checked, %d problem(s) found\n", checked, len(problems))
		os.Exit(1)
	}
	fmt.Printf("%d file(s) checked, all valid\n", checked)
}

func run(dataDir string) (problems []string, checked int, err error) {
	src := store.NewDirSource(dataDir)

	paths, err := filepath.Glob(filepath.Join(src.CompaniesDir(), "*.json"))
	if err != nil {
		return nil, 0, err
	}
	if len(paths) == 0 {
		return nil, 0, fmt.Errorf("no company records under %s", src.CompaniesDir())
	}
	sort.Strings(paths)

	for _, path := range paths {
		name := filepath.Base(path)
		checked++

		data, err := os.ReadFile(path) //#nosec G304 -- paths come from the local data directory
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		violations, err := store.ValidateCompanyJSON(data)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		for _, v := range violations {
			problems = append(problems, fmt.Sprintf("%s: %s", name, v))
		}
		if len(violations) > 0 {
			continue
		}

		company, err := store.DecodeCompany(data)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		// Records are named after their id so lookups by slug work.
		if want := company.ID + ".json"; name != want {
			problems = append(problems, fmt.Sprintf("%s: file name does not match id %q", name, company.ID))
		}

		// A company must not list the same resource URL twice.
		seen := make(map[string]bool, len(company.Resources))
		for _, r := range company.Resources {
			key := strings.ToLower(strings.TrimSpace(r.URL))
			if seen[key] {
				problems = append(problems, fmt.Sprintf("%s: duplicate resource URL %s", name, r.URL))
			}
			seen[key] = true
		}
	}

	return problems, checked, nil
}
