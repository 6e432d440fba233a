// Package service implements the contribution intake flow: a validated
// draft becomes a branch, a commit, and a labeled pull request against the
// data repository. The store itself is never written directly; every
// mutation rides through review.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/howtheytest/contribution-server/internal/domain"
	"github.com/howtheytest/contribution-server/internal/errors"
	"github.com/howtheytest/contribution-server/internal/form/validate"
	"github.com/howtheytest/contribution-server/internal/github"
	"github.com/howtheytest/contribution-server/internal/logger"
	"github.com/howtheytest/contribution-server/internal/slug"
	"github.com/howtheytest/contribution-server/internal/store"
)

// branchSuffixAlphabet keeps branch names lowercase.
const (
	branchSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	branchSuffixLength   = 6
)

// RepoAPI is the slice of the GitHub client the intake flow uses.
type RepoAPI interface {
	GetContent(ctx context.Context, path, ref string) (*github.File, error)
	GetRefSHA(ctx context.Context, ref string) (string, error)
	CreateRef(ctx context.Context, ref, sha string) error
	PutFile(ctx context.Context, opts github.PutFileOptions) error
	CreatePull(ctx context.Context, pull github.NewPull) (*github.PullRequest, error)
	AddAssignees(ctx context.Context, number int, assignees []string) error
	AddLabels(ctx context.Context, number int, labels []string) error
}

// TokenVerifier checks the bot-verification token.
type TokenVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// URLIndex supplies every resource URL already published anywhere in the
// dataset, for the global duplicate rule.
type URLIndex interface {
	KnownURLs() (map[string]struct{}, error)
}

// Config holds the repository coordinates of the intake flow.
type Config struct {
	BaseBranch string
	Reviewer   string
}

// Accepted is a successful submission outcome.
type Accepted struct {
	PRURL    string
	PRNumber int
}

// Intake turns contribution drafts into pull requests.
type Intake struct {
	repo     RepoAPI
	store    *store.Store
	verifier TokenVerifier
	index    URLIndex
	engine   *validate.Engine
	cfg      Config
	logger   *logger.Logger

	now       func() time.Time
	newSuffix func() string
}

// NewIntake creates the intake service. index may be nil when no local
// snapshot is configured; the per-company duplicate check still applies.
func NewIntake(repo RepoAPI, verifier TokenVerifier, index URLIndex, cfg Config, log *logger.Logger) *Intake {
	return &Intake{
		repo:     repo,
		store:    store.New(repo, cfg.BaseBranch),
		verifier: verifier,
		index:    index,
		engine:   validate.New(),
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
		newSuffix: func() string {
			return gonanoid.MustGenerate(branchSuffixAlphabet, branchSuffixLength)
		},
	}
}

// Submit runs the full intake sequence for one draft: token verification,
// validation, duplicate check, branch, commit, pull request, reviewer, and
// labels, in that order. There is no rollback; a failure partway leaves any
// already-created branch behind for manual cleanup, and the caller sees only
// the failure of the whole sequence.
func (i *Intake) Submit(ctx context.Context, draft domain.ContributionDraft, token, remoteIP string) (*Accepted, error) {
	ok, err := i.verifier.Verify(ctx, token, remoteIP)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if !ok {
		return nil, errors.Forbidden("Bot verification failed")
	}

	if v := validate.First(i.engine.Validate(draft)); v != nil {
		return nil, errors.Validation(v.Message)
	}

	// Global duplicate rule: the URL must not exist in ANY company's
	// published resources. The per-company blob check below additionally
	// covers the live branch for the target company.
	if i.index != nil {
		known, err := i.index.KnownURLs()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "load published urls")
		}
		if v := validate.First(i.engine.ValidateWithKnownURLs(draft, known)); v != nil {
			return nil, errors.Duplicate(v.Message)
		}
	}

	companySlug := slug.Make(draft.CompanyName)

	existing, blobSHA, err := i.store.Company(ctx, companySlug)
	switch {
	case err == nil:
		// Best-effort duplicate check: racy against concurrent merges,
		// accepted as such. The blob SHA precondition on the commit catches
		// the clobbering case.
		if existing.HasResourceURL(draft.ResourceURL) {
			return nil, errors.Duplicate("This resource already exists in our database")
		}
	case errors.Is(err, store.ErrNotFound):
		existing = nil
	default:
		return nil, errors.Wrap(err, errors.CodeUpstream, "load company record")
	}

	resource := domain.Resource{
		ID:        domain.NewResourceID(draft.ResourceTitle, draft.ResourceURL),
		Title:     draft.ResourceTitle,
		URL:       draft.ResourceURL,
		Type:      domain.ResourceType(draft.ResourceType),
		Topics:    draft.Topics,
		AddedDate: domain.ISODate(i.now()),
	}

	var company domain.Company
	if existing != nil {
		company = existing.WithResource(resource)
	} else {
		company = domain.NewCompany(draft.CompanyName, draft.Industry, resource)
	}

	content, err := store.EncodeCompany(company)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "encode company record")
	}

	branch := fmt.Sprintf("contribution/%s-%d-%s", companySlug, i.now().UnixMilli(), i.newSuffix())

	baseSHA, err := i.repo.GetRefSHA(ctx, "heads/"+i.cfg.BaseBranch)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUpstream, "resolve base branch")
	}
	if err := i.repo.CreateRef(ctx, "refs/heads/"+branch, baseSHA); err != nil {
		return nil, errors.Wrap(err, errors.CodeUpstream, "create branch")
	}

	message := commitMessage(existing != nil, draft.CompanyName)
	if err := i.repo.PutFile(ctx, github.PutFileOptions{
		Path:    store.CompanyPath(companySlug),
		Message: message,
		Content: content,
		Branch:  branch,
		SHA:     blobSHA,
	}); err != nil {
		return nil, errors.Wrap(err, errors.CodeUpstream, "commit record")
	}

	pr, err := i.repo.CreatePull(ctx, github.NewPull{
		Title: message,
		Body:  pullBody(draft),
		Head:  branch,
		Base:  i.cfg.BaseBranch,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUpstream, "open pull request")
	}

	if i.cfg.Reviewer != "" {
		if err := i.repo.AddAssignees(ctx, pr.Number, []string{i.cfg.Reviewer}); err != nil {
			return nil, errors.Wrap(err, errors.CodeUpstream, "assign reviewer")
		}
	}

	labels := []string{"contribution", "new-company"}
	if existing != nil {
		labels = []string{"contribution", "resource-addition"}
	}
	if err := i.repo.AddLabels(ctx, pr.Number, labels); err != nil {
		return nil, errors.Wrap(err, errors.CodeUpstream, "label pull request")
	}

	i.logger.Info("contribution accepted",
		"company", companySlug,
		"pr", pr.Number,
		"new_company", existing == nil,
	)

	return &Accepted{PRURL: pr.HTMLURL, PRNumber: pr.Number}, nil
}

func commitMessage(existing bool, companyName string) string {
	if existing {
		return "Add resource to " + companyName
	}
	return "Add new company: " + companyName
}

// pullBody renders the structured PR description. The submitter is
// @-mentioned when a GitHub handle was provided, otherwise credited by name.
func pullBody(draft domain.ContributionDraft) string {
	submitter := draft.Attribution()

	body := fmt.Sprintf(`## Contribution Details

**Company:** %s
**Industry:** %s
**Resource Type:** %s
**Topics:** %s

### Resource Information
- **Title:** %s
- **URL:** %s

### Submitted By
%s

---

This contribution was submitted via the How They Test website.`,
		draft.CompanyName,
		draft.Industry,
		draft.ResourceType,
		strings.Join(draft.Topics, ", "),
		draft.ResourceTitle,
		draft.ResourceURL,
		submitter,
	)

	if draft.GithubUsername != "" {
		body += "\n\ncc " + submitter
	}
	return body
}
