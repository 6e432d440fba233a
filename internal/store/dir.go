package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/howtheytest/contribution-server/internal/domain"
)

// DirSource reads the company records shipped with the deployment: the
// data/companies directory of a repository checkout. It backs the
// vocabulary endpoint and the offline schema check; the intake path always
// goes through the content API instead, so it sees the live base branch.
type DirSource struct {
	dir string
}

// NewDirSource creates a source over dir (the data directory root).
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// CompaniesDir returns the directory holding the per-company JSON files.
func (d *DirSource) CompaniesDir() string {
	return filepath.Join(d.dir, "companies")
}

// Companies loads every company record, sorted by file name for a stable
// order. Reads the directory fresh on every call; vocabulary derivation
// wants the current snapshot, not a cached one.
func (d *DirSource) Companies() ([]domain.Company, error) {
	pattern := filepath.Join(d.CompaniesDir(), "*.json")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	sort.Strings(paths)

	companies := make([]domain.Company, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		company, err := DecodeCompany(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		companies = append(companies, *company)
	}
	return companies, nil
}

// Vocabulary derives the selectable vocabulary from the current snapshot.
func (d *DirSource) Vocabulary() (domain.Vocabulary, error) {
	companies, err := d.Companies()
	if err != nil {
		return domain.Vocabulary{}, err
	}
	return domain.DeriveVocabulary(companies), nil
}

// KnownURLs collects every resource URL across the snapshot, for the
// global duplicate rule.
func (d *DirSource) KnownURLs() (map[string]struct{}, error) {
	companies, err := d.Companies()
	if err != nil {
		return nil, err
	}
	return domain.KnownURLs(companies), nil
}
