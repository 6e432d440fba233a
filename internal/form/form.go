// Package form models the contribution form: the draft under edit, the
// combobox components bound to the vocabulary, the new-value warnings, and
// the best-effort metadata pre-fill.
//
// The form is driven by UI events on a single goroutine. The one async
// producer is the metadata suggestion fetch; it never touches the combobox
// components directly. A fetched suggestion is staged, and the host applies
// it from its own event goroutine via ApplyPendingSuggestion, so typing and
// fetching never contend for component state.
package form

import (
	"context"
	"strings"
	"sync"

	"github.com/howtheytest/contribution-server/internal/combobox"
	"github.com/howtheytest/contribution-server/internal/domain"
	"github.com/howtheytest/contribution-server/internal/form/validate"
	"github.com/howtheytest/contribution-server/internal/metadata/suggest"
)

// Suggester fetches a best-effort metadata guess for a URL.
type Suggester interface {
	Suggest(ctx context.Context, pageURL string, knownTopics []string) (suggest.Suggestion, error)
}

// Warnings holds the soft "not in our database" notices. They never block
// submission; they ask the contributor to double-check spelling.
type Warnings struct {
	Company  string
	Industry string
	Topics   []string
}

// Config wires a form to its vocabulary and collaborators.
type Config struct {
	Vocabulary domain.Vocabulary

	// KnownURLs is the set of resource URLs already published anywhere in
	// the dataset; validation rejects drafts whose URL is a member. A nil
	// set disables the global duplicate rule.
	KnownURLs map[string]struct{}

	// Suggester is optional; without it URL entry does no pre-fill.
	Suggester Suggester

	// OnSuggestion, when set, is called as soon as a fetched suggestion has
	// been staged. It runs on the fetch goroutine; the host should schedule
	// ApplyPendingSuggestion on its event goroutine in response.
	OnSuggestion func()
}

// Form owns a contribution draft and the components editing it.
type Form struct {
	// mu guards the draft fields and the suggestion generation; warnMu
	// guards the warnings, which combobox callbacks update. The split keeps
	// callbacks fired from under mu (suggestion application) deadlock-free.
	mu     sync.Mutex
	warnMu sync.Mutex
	wg     sync.WaitGroup

	company      *combobox.Combobox
	industry     *combobox.Combobox
	resourceType *combobox.Combobox
	topics       *combobox.MultiSelect

	vocab        domain.Vocabulary
	known        map[string]struct{}
	suggester    Suggester
	onSuggestion func()
	engine       *validate.Engine

	resourceURL     string
	resourceTitle   string
	contributorName string
	githubUsername  string

	warnings Warnings

	// gen counts URL-entry events; a suggestion fetched for an older
	// generation is discarded instead of clobbering newer edits. pending
	// holds the latest staged suggestion until the host applies it.
	gen        int
	pending    *suggest.Suggestion
	pendingGen int
	closed     bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// New creates a form over the given vocabulary.
func New(cfg Config) *Form {
	ctx, cancel := context.WithCancel(context.Background())

	f := &Form{
		vocab:        cfg.Vocabulary,
		known:        cfg.KnownURLs,
		suggester:    cfg.Suggester,
		onSuggestion: cfg.OnSuggestion,
		engine:       validate.New(),
		ctx:          ctx,
		cancel:       cancel,
	}

	f.company = combobox.New(combobox.Config{
		Options:     cfg.Vocabulary.CompanyNames,
		AllowAddNew: true,
		OnChange:    f.onCompanyChange,
	})
	f.industry = combobox.New(combobox.Config{
		Options:     cfg.Vocabulary.Industries,
		AllowAddNew: true,
		OnChange:    f.onIndustryChange,
	})
	f.resourceType = combobox.New(combobox.Config{
		Options: cfg.Vocabulary.ResourceTypes,
	})
	f.topics = combobox.NewMulti(combobox.MultiConfig{
		Options:  cfg.Vocabulary.Topics,
		OnChange: f.onTopicsChange,
	})

	return f
}

// Company returns the company-name combobox.
func (f *Form) Company() *combobox.Combobox { return f.company }

// Industry returns the industry combobox.
func (f *Form) Industry() *combobox.Combobox { return f.industry }

// ResourceType returns the resource-type combobox.
func (f *Form) ResourceType() *combobox.Combobox { return f.resourceType }

// Topics returns the topics multi-select.
func (f *Form) Topics() *combobox.MultiSelect { return f.topics }

// Warnings returns the current soft warnings.
func (f *Form) Warnings() Warnings {
	f.warnMu.Lock()
	defer f.warnMu.Unlock()
	w := f.warnings
	w.Topics = append([]string(nil), f.warnings.Topics...)
	return w
}

// SetResourceTitle sets the title field.
func (f *Form) SetResourceTitle(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resourceTitle = title
}

// SetContributorName sets the contributor's display name.
func (f *Form) SetContributorName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contributorName = name
}

// SetGithubUsername sets the optional GitHub handle.
func (f *Form) SetGithubUsername(handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.githubUsername = handle
}

// EnterURL records a resource URL and, when a suggester is configured and
// the URL parses, kicks off one best-effort metadata fetch. The fetch never
// blocks the caller and never mutates the form or its components; it stages
// its result for the host to apply via ApplyPendingSuggestion.
func (f *Form) EnterURL(rawURL string) {
	f.mu.Lock()
	f.resourceURL = rawURL
	f.gen++
	gen := f.gen
	f.mu.Unlock()

	if f.suggester == nil || !validate.IsAbsoluteURL(rawURL) {
		return
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		s, err := f.suggester.Suggest(f.ctx, rawURL, f.vocab.Topics)
		if err != nil || s.Empty() {
			// Advisory call: failure means no pre-fill, nothing else.
			return
		}
		if f.stageSuggestion(gen, s) && f.onSuggestion != nil {
			f.onSuggestion()
		}
	}()
}

// stageSuggestion parks a fetched result for the host goroutine. Results
// for a closed form or a superseded URL are dropped here already.
func (f *Form) stageSuggestion(gen int, s suggest.Suggestion) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || gen != f.gen {
		return false
	}
	f.pending = &s
	f.pendingGen = gen
	return true
}

// ApplyPendingSuggestion applies the staged suggestion to fields the user
// has not filled, and reports whether anything was staged and still fresh.
// It must be called from the goroutine driving the comboboxes; the fetch
// goroutine never touches them.
func (f *Form) ApplyPendingSuggestion() bool {
	f.mu.Lock()
	s := f.pending
	f.pending = nil
	if s == nil || f.closed || f.pendingGen != f.gen {
		f.mu.Unlock()
		return false
	}
	if f.resourceTitle == "" && s.Title != "" {
		f.resourceTitle = s.Title
	}
	f.mu.Unlock()

	if f.resourceType.Value() == "" && s.Type != "" {
		f.resourceType.SetValue(s.Type)
	}
	for _, topic := range s.Topics {
		if !combobox.ContainsFold(f.topics.Values(), topic) {
			f.topics.Select(topic)
		}
	}
	return true
}

// Draft assembles the current contribution draft.
func (f *Form) Draft() domain.ContributionDraft {
	f.mu.Lock()
	defer f.mu.Unlock()

	return domain.ContributionDraft{
		CompanyName:     f.company.Value(),
		ResourceURL:     f.resourceURL,
		ResourceTitle:   f.resourceTitle,
		ResourceType:    f.resourceType.Value(),
		Industry:        f.industry.Value(),
		ContributorName: f.contributorName,
		GithubUsername:  f.githubUsername,
		Topics:          f.topics.Values(),
	}
}

// Validate runs the validation engine over the current draft, including the
// global duplicate rule against the known URL set.
func (f *Form) Validate() []validate.Violation {
	return f.engine.ValidateWithKnownURLs(f.Draft(), f.known)
}

// Close tears the form down: the in-flight suggestion fetch is cancelled
// and any staged result is discarded rather than applied.
func (f *Form) Close() {
	f.mu.Lock()
	f.closed = true
	f.pending = nil
	f.mu.Unlock()
	f.cancel()
}

func (f *Form) onCompanyChange(value string) {
	f.warnMu.Lock()
	defer f.warnMu.Unlock()
	if value != "" && !combobox.ContainsFold(f.vocab.CompanyNames, value) {
		f.warnings.Company = value
	} else {
		f.warnings.Company = ""
	}
}

func (f *Form) onIndustryChange(value string) {
	f.warnMu.Lock()
	defer f.warnMu.Unlock()
	if value != "" && !combobox.ContainsFold(f.vocab.Industries, value) {
		f.warnings.Industry = value
	} else {
		f.warnings.Industry = ""
	}
}

func (f *Form) onTopicsChange(values []string) {
	f.warnMu.Lock()
	defer f.warnMu.Unlock()

	var unknown []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" && !combobox.ContainsFold(f.vocab.Topics, v) {
			unknown = append(unknown, v)
		}
	}
	f.warnings.Topics = unknown
}
