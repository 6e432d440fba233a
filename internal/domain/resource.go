package domain

import (
	"crypto/md5" //#nosec G401 -- not used for security, only for stable content ids
	"encoding/hex"
	"time"

	"github.com/howtheytest/contribution-server/internal/slug"
)

// ResourceType classifies a testing-culture artifact.
// The wire strings are fixed by the published data files.
type ResourceType string

// The closed set of resource types.
const (
	TypeBlogOrArticle ResourceType = "blog or article"
	TypeVideo         ResourceType = "video"
	TypeBook          ResourceType = "book"
	TypeRepo          ResourceType = "repo"
)

// ResourceTypes returns all valid resource types in display order.
func ResourceTypes() []ResourceType {
	return []ResourceType{TypeBlogOrArticle, TypeVideo, TypeBook, TypeRepo}
}

// ResourceTypeStrings returns the wire strings of all valid resource types,
// in display order. This is the form a Vocabulary carries.
func ResourceTypeStrings() []string {
	types := ResourceTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// Valid reports whether t is a member of the closed type enumeration.
func (t ResourceType) Valid() bool {
	switch t {
	case TypeBlogOrArticle, TypeVideo, TypeBook, TypeRepo:
		return true
	}
	return false
}

// Resource is one testing-culture artifact belonging to a company.
type Resource struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	Type        ResourceType `json:"type"`
	Topics      []string     `json:"topics"`
	Description string       `json:"description,omitempty"`
	AddedDate   string       `json:"addedDate,omitempty"` // ISO date, e.g. 2025-03-14
}

const (
	resourceIDSlugLen = 40
	resourceIDHashLen = 8
)

// NewResourceID derives the stable resource identifier from title and URL.
// The same (title, url) pair always yields the same id, and the derivation
// matches the ids already published in the dataset, so re-deriving an
// existing resource's id reproduces it exactly.
//
// Format: first 40 chars of the title slug (slug.Title, which deletes
// punctuation), a hyphen, and the first 8 hex chars of md5("title:url").
func NewResourceID(title, url string) string {
	sum := md5.Sum([]byte(title + ":" + url)) //#nosec G401
	hash := hex.EncodeToString(sum[:])[:resourceIDHashLen]

	s := slug.Title(title)
	if len(s) > resourceIDSlugLen {
		s = s[:resourceIDSlugLen]
	}
	return s + "-" + hash
}

// ISODate formats a time as the store's date format.
func ISODate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
