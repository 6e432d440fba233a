// Package domain defines the core entities of the testing-resource
// directory: companies, their resources, contribution drafts, and the
// vocabularies derived from them.
package domain

import "github.com/howtheytest/contribution-server/internal/slug"

// Company owns an ordered list of resources. ID is a pure function of
// Name (its slug), which makes "does this company exist" a lookup by
// derived key rather than a search.
//
// Companies are created on first contribution and subsequently only
// appended to; the intake path never deletes or reorders resources.
type Company struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Industry  string     `json:"industry"`
	Resources []Resource `json:"resources"`
}

// NewCompany creates a company record with a single resource.
func NewCompany(name, industry string, first Resource) Company {
	return Company{
		ID:        slug.Make(name),
		Name:      name,
		Industry:  industry,
		Resources: []Resource{first},
	}
}

// HasResourceURL reports whether any resource matches url exactly.
// Comparison is case-sensitive string equality with no normalization;
// near-duplicate URLs are left to human reviewers.
func (c Company) HasResourceURL(url string) bool {
	for _, r := range c.Resources {
		if r.URL == url {
			return true
		}
	}
	return false
}

// WithResource returns a copy of the company with the resource appended.
// Existing resources keep their order; nothing is dropped or rewritten.
func (c Company) WithResource(r Resource) Company {
	resources := make([]Resource, 0, len(c.Resources)+1)
	resources = append(resources, c.Resources...)
	resources = append(resources, r)

	c.Resources = resources
	return c
}
