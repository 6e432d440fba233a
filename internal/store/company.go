// Package store provides access to the versioned company records: one JSON
// file per company under data/companies/, read through the source-control
// content API and mutated only via branch-and-pull-request.
package store

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/howtheytest/contribution-server/internal/domain"
	"github.com/howtheytest/contribution-server/internal/github"
)

// ErrNotFound marks a company that has no record yet. On the intake path
// that is not a failure, it means "new company".
var ErrNotFound = errors.New("store: company not found")

// CompanyPath returns the repository path of a company's record.
func CompanyPath(slug string) string {
	return "data/companies/" + slug + ".json"
}

// ContentSource reads repository files at a ref. *github.Client satisfies it.
type ContentSource interface {
	GetContent(ctx context.Context, path, ref string) (*github.File, error)
}

// Store reads company records from the repository's base branch.
type Store struct {
	src    ContentSource
	branch string
}

// New creates a store reading from branch.
func New(src ContentSource, branch string) *Store {
	return &Store{src: src, branch: branch}
}

// Company fetches a company record by slug. The returned revision is the
// blob SHA needed to update the file without clobbering a concurrent edit.
func (s *Store) Company(ctx context.Context, slug string) (*domain.Company, string, error) {
	file, err := s.src.GetContent(ctx, CompanyPath(slug), s.branch)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("fetch company %q: %w", slug, err)
	}

	company, err := DecodeCompany(file.Content)
	if err != nil {
		return nil, "", fmt.Errorf("company %q: %w", slug, err)
	}
	return company, file.SHA, nil
}

// DecodeCompany parses a company record.
func DecodeCompany(data []byte) (*domain.Company, error) {
	var company domain.Company
	if err := json.Unmarshal(data, &company); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &company, nil
}

// EncodeCompany serializes a company record in the repository's canonical
// form: two-space indentation, keys in struct order.
func EncodeCompany(company domain.Company) ([]byte, error) {
	data, err := json.Marshal(company, jsontext.WithIndent("  "))
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}
