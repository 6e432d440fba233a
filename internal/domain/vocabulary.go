package domain

import (
	"sort"
	"strings"
)

// Vocabulary holds the known value sets offered by the contribution form.
// A user-entered value outside these sets is "new": it triggers a warning
// but never blocks submission.
type Vocabulary struct {
	CompanyNames  []string `json:"companyNames"`
	Industries    []string `json:"industries"`
	Topics        []string `json:"topics"`
	ResourceTypes []string `json:"resourceTypes"`
}

// DeriveVocabulary computes the vocabulary from a store snapshot.
// It is a pure function: recomputed on every read of the store rather than
// cached, so it can never go stale against the snapshot it was given.
func DeriveVocabulary(companies []Company) Vocabulary {
	names := make([]string, 0, len(companies))
	industries := make(map[string]struct{})
	topics := make(map[string]struct{})
	types := make(map[string]struct{})

	for _, c := range companies {
		names = append(names, c.Name)
		if c.Industry != "" {
			industries[c.Industry] = struct{}{}
		}
		for _, r := range c.Resources {
			types[string(r.Type)] = struct{}{}
			for _, topic := range r.Topics {
				topics[topic] = struct{}{}
			}
		}
	}

	sort.Strings(names)

	return Vocabulary{
		CompanyNames:  names,
		Industries:    sortedKeys(industries),
		Topics:        sortedKeys(topics),
		ResourceTypes: sortedKeys(types),
	}
}

// KnownURLs collects every resource URL across the snapshot, for the
// global duplicate check.
func KnownURLs(companies []Company) map[string]struct{} {
	urls := make(map[string]struct{})
	for _, c := range companies {
		for _, r := range c.Resources {
			urls[r.URL] = struct{}{}
		}
	}
	return urls
}

// ContainsFold reports whether values contains s, compared case-insensitively.
// This is the "is it new?" check used by the form's warning path.
func ContainsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
