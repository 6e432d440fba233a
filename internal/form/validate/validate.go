// Package validate implements the contribution validation engine.
//
// The engine is pure and side-effect free, and runs twice on the same data
// with the same rules: once on the form side before submission, once on the
// server before any mutation (the server never trusts the client). Both
// invocations share these exact grammar definitions.
package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/howtheytest/contribution-server/internal/domain"
)

// githubHandleRe matches the GitHub handle grammar: each character is
// alphanumeric, or a hyphen immediately followed by an alphanumeric.
// Length is checked separately since RE2 has no lookahead.
var githubHandleRe = regexp.MustCompile(`^[a-zA-Z0-9](?:-?[a-zA-Z0-9])*$`)

// maxGithubHandleLen is GitHub's username length cap.
const maxGithubHandleLen = 39

// IsValidGithubUsername reports whether s is a well-formed GitHub handle:
// 1-39 characters, alphanumeric, hyphens allowed but not leading, trailing,
// or doubled. The empty string is NOT valid here; callers treat absence as
// "not provided" before consulting the grammar.
func IsValidGithubUsername(s string) bool {
	if s == "" || len(s) > maxGithubHandleLen {
		return false
	}
	return githubHandleRe.MatchString(s)
}

// IsAbsoluteURL reports whether s parses as an absolute URL with a scheme
// and host. Used as a cheap gate (e.g. before a metadata fetch); the engine
// itself validates resourceUrl through its registered rule.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Violation is one broken rule. Message is the exact wire string of the
// public contract.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Engine validates contribution drafts.
type Engine struct {
	v *validator.Validate
}

// New creates the engine with the custom handle rule registered.
func New() *Engine {
	v := validator.New()

	// Registration only fails for an empty tag name.
	_ = v.RegisterValidation("github_handle", func(fl validator.FieldLevel) bool {
		return IsValidGithubUsername(fl.Field().String())
	})

	return &Engine{v: v}
}

// requiredField pairs a wire field name with its value accessor.
type requiredField struct {
	name  string
	value func(domain.ContributionDraft) string
}

// requiredFields lists every mandatory field in contract order. The first
// violation reported by the server is the first entry here that is blank.
var requiredFields = []requiredField{
	{"companyName", func(d domain.ContributionDraft) string { return d.CompanyName }},
	{"resourceUrl", func(d domain.ContributionDraft) string { return d.ResourceURL }},
	{"resourceTitle", func(d domain.ContributionDraft) string { return d.ResourceTitle }},
	{"resourceType", func(d domain.ContributionDraft) string { return d.ResourceType }},
	{"industry", func(d domain.ContributionDraft) string { return d.Industry }},
	{"contributorName", func(d domain.ContributionDraft) string { return d.ContributorName }},
}

// Validate collects all rule violations for a draft, in contract order:
// required fields first, then topics, then URL shape, then the GitHub
// handle. Rules are independent; nothing short-circuits.
func (e *Engine) Validate(d domain.ContributionDraft) []Violation {
	var violations []Violation

	for _, f := range requiredFields {
		if err := e.v.Var(strings.TrimSpace(f.value(d)), "required"); err != nil {
			violations = append(violations, Violation{
				Field:   f.name,
				Message: f.name + " is required",
			})
		}
	}

	if len(d.Topics) == 0 {
		violations = append(violations, Violation{
			Field:   "topics",
			Message: "At least one topic is required",
		})
	}

	if strings.TrimSpace(d.ResourceURL) != "" {
		if err := e.v.Var(d.ResourceURL, "url"); err != nil {
			violations = append(violations, Violation{
				Field:   "resourceUrl",
				Message: "Invalid resource URL",
			})
		}
	}

	if d.GithubUsername != "" {
		if err := e.v.Var(d.GithubUsername, "github_handle"); err != nil {
			violations = append(violations, Violation{
				Field:   "githubUsername",
				Message: "Invalid GitHub username",
			})
		}
	}

	return violations
}

// ValidateWithKnownURLs runs Validate and additionally enforces the global
// uniqueness rule: the resource URL must not already exist among any
// company's resources. The match is case-sensitive exact string equality.
func (e *Engine) ValidateWithKnownURLs(d domain.ContributionDraft, known map[string]struct{}) []Violation {
	violations := e.Validate(d)

	if _, exists := known[d.ResourceURL]; exists {
		violations = append(violations, Violation{
			Field:   "resourceUrl",
			Message: "This resource already exists in our database",
		})
	}

	return violations
}

// First returns the first violation, or nil if the draft is valid.
// The server reports only the first broken rule.
func First(violations []Violation) *Violation {
	if len(violations) == 0 {
		return nil
	}
	return &violations[0]
}
