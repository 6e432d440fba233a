package form

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howtheytest/contribution-server/internal/domain"
	"github.com/howtheytest/contribution-server/internal/metadata/suggest"
)

func testVocabulary() domain.Vocabulary {
	return domain.Vocabulary{
		CompanyNames:  []string{"Spotify", "Trade Me"},
		Industries:    []string{"E-commerce", "Music"},
		Topics:        []string{"automation", "culture", "performance"},
		ResourceTypes: domain.ResourceTypeStrings(),
	}
}

// stubSuggester returns a fixed suggestion, optionally gated on a channel so
// tests can control when the result lands.
type stubSuggester struct {
	suggestion suggest.Suggestion
	err        error
	gate       chan struct{}
	calls      int
}

func (s *stubSuggester) Suggest(ctx context.Context, pageURL string, topics []string) (suggest.Suggestion, error) {
	s.calls++
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return suggest.Suggestion{}, ctx.Err()
		}
	}
	return s.suggestion, s.err
}

func TestDraft_AssemblesFromComponents(t *testing.T) {
	f := New(Config{Vocabulary: testVocabulary()})
	defer f.Close()

	f.Company().Input("spot")
	f.Company().Enter()
	f.Industry().Input("mus")
	f.Industry().Enter()
	f.ResourceType().Select("video")
	f.Topics().Input("auto")
	f.Topics().Enter()
	f.EnterURL("https://example.com/talk")
	f.SetResourceTitle("Testing at Spotify")
	f.SetContributorName("Jane Doe")
	f.SetGithubUsername("jane-doe")

	d := f.Draft()
	assert.Equal(t, "Spotify", d.CompanyName)
	assert.Equal(t, "Music", d.Industry)
	assert.Equal(t, "video", d.ResourceType)
	assert.Equal(t, []string{"automation"}, d.Topics)
	assert.Equal(t, "https://example.com/talk", d.ResourceURL)
	assert.Equal(t, "Testing at Spotify", d.ResourceTitle)
	assert.Equal(t, "Jane Doe", d.ContributorName)
	assert.Equal(t, "jane-doe", d.GithubUsername)
	assert.Empty(t, f.Validate())
}

func TestWarnings_UnknownCompanyAndIndustry(t *testing.T) {
	f := New(Config{Vocabulary: testVocabulary()})
	defer f.Close()

	f.Company().Input("Initech")
	f.Company().Enter()
	f.Industry().Input("Paper")
	f.Industry().Enter()

	w := f.Warnings()
	assert.Equal(t, "Initech", w.Company)
	assert.Equal(t, "Paper", w.Industry)

	// Correcting to a known value clears the warning.
	f.Company().Input("trade me")
	f.Company().Enter()
	assert.Empty(t, f.Warnings().Company)
}

func TestWarnings_KnownValueWithDifferentCaseIsNotWarned(t *testing.T) {
	f := New(Config{Vocabulary: testVocabulary()})
	defer f.Close()

	f.Company().Input("spotify")
	f.Company().AddNew()

	assert.Empty(t, f.Warnings().Company)
}

func TestWarnings_TopicsTrackUnknownValues(t *testing.T) {
	f := New(Config{Vocabulary: testVocabulary()})
	defer f.Close()

	f.Topics().Input("automation")
	f.Topics().Enter()
	f.Topics().Input("chaos engineering")
	f.Topics().Enter()

	assert.Equal(t, []string{"chaos engineering"}, f.Warnings().Topics)

	// Removing the unknown topic clears the warning list.
	f.Topics().Remove("chaos engineering")
	assert.Empty(t, f.Warnings().Topics)
}

func TestEnterURL_AppliesSuggestionToEmptyFields(t *testing.T) {
	stub := &stubSuggester{suggestion: suggest.Suggestion{
		Title:  "Testing at Spotify",
		Type:   "video",
		Topics: []string{"automation", "culture"},
	}}
	f := New(Config{Vocabulary: testVocabulary(), Suggester: stub})
	defer f.Close()

	f.EnterURL("https://example.com/talk")
	f.wg.Wait()
	require.True(t, f.ApplyPendingSuggestion())

	d := f.Draft()
	assert.Equal(t, "Testing at Spotify", d.ResourceTitle)
	assert.Equal(t, "video", d.ResourceType)
	assert.Equal(t, []string{"automation", "culture"}, d.Topics)
}

func TestEnterURL_FetchStagesWithoutTouchingComponents(t *testing.T) {
	stub := &stubSuggester{suggestion: suggest.Suggestion{
		Title:  "Testing at Spotify",
		Type:   "video",
		Topics: []string{"automation"},
	}}
	f := New(Config{Vocabulary: testVocabulary(), Suggester: stub})
	defer f.Close()

	f.EnterURL("https://example.com/talk")
	f.wg.Wait()

	// The completed fetch has not mutated anything; components change only
	// when the host applies the staged result from its own goroutine.
	assert.Empty(t, f.ResourceType().Value())
	assert.Empty(t, f.Topics().Values())
	assert.Empty(t, f.Draft().ResourceTitle)

	require.True(t, f.ApplyPendingSuggestion())
	assert.Equal(t, "video", f.ResourceType().Value())
	assert.Equal(t, []string{"automation"}, f.Topics().Values())

	assert.False(t, f.ApplyPendingSuggestion(), "a staged result applies once")
}

func TestOnSuggestion_NotifiesWhenResultIsStaged(t *testing.T) {
	notified := make(chan struct{}, 1)
	stub := &stubSuggester{suggestion: suggest.Suggestion{Title: "x"}}
	f := New(Config{
		Vocabulary:   testVocabulary(),
		Suggester:    stub,
		OnSuggestion: func() { notified <- struct{}{} },
	})
	defer f.Close()

	f.EnterURL("https://example.com/talk")
	f.wg.Wait()

	select {
	case <-notified:
	default:
		t.Fatal("expected a staging notification")
	}
}

func TestEnterURL_NeverOverwritesUserInput(t *testing.T) {
	stub := &stubSuggester{suggestion: suggest.Suggestion{
		Title:  "Scraped Title",
		Type:   "video",
		Topics: []string{"automation"},
	}}
	f := New(Config{Vocabulary: testVocabulary(), Suggester: stub})
	defer f.Close()

	f.SetResourceTitle("My Own Title")
	f.ResourceType().Select("book")
	f.Topics().Select("automation")

	f.EnterURL("https://example.com/talk")
	f.wg.Wait()
	require.True(t, f.ApplyPendingSuggestion())

	d := f.Draft()
	assert.Equal(t, "My Own Title", d.ResourceTitle)
	assert.Equal(t, "book", d.ResourceType)
	assert.Equal(t, []string{"automation"}, d.Topics, "no duplicate append")
}

func TestEnterURL_StaleSuggestionIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	stub := &stubSuggester{
		suggestion: suggest.Suggestion{Title: "Old Page"},
		gate:       gate,
	}
	f := New(Config{Vocabulary: testVocabulary(), Suggester: stub})
	defer f.Close()

	f.EnterURL("https://example.com/old")
	f.EnterURL("not a url") // bumps the generation without a new fetch
	close(gate)
	f.wg.Wait()

	assert.False(t, f.ApplyPendingSuggestion(), "the first fetch's result is stale")
	assert.Empty(t, f.Draft().ResourceTitle)
	assert.Equal(t, "not a url", f.Draft().ResourceURL)
}

func TestEnterURL_InvalidURLSkipsFetch(t *testing.T) {
	stub := &stubSuggester{suggestion: suggest.Suggestion{Title: "x"}}
	f := New(Config{Vocabulary: testVocabulary(), Suggester: stub})
	defer f.Close()

	f.EnterURL("example.com/no-scheme")
	f.wg.Wait()

	assert.Zero(t, stub.calls)
	assert.Equal(t, "example.com/no-scheme", f.Draft().ResourceURL)
}

func TestEnterURL_FailureLeavesDraftUntouched(t *testing.T) {
	stub := &stubSuggester{err: context.DeadlineExceeded}
	f := New(Config{Vocabulary: testVocabulary(), Suggester: stub})
	defer f.Close()

	f.EnterURL("https://example.com/talk")
	f.wg.Wait()

	assert.False(t, f.ApplyPendingSuggestion(), "a failed fetch stages nothing")
	d := f.Draft()
	assert.Empty(t, d.ResourceTitle)
	assert.Empty(t, d.ResourceType)
	assert.Empty(t, d.Topics)
}

func TestClose_DiscardsPendingSuggestion(t *testing.T) {
	gate := make(chan struct{})
	stub := &stubSuggester{
		suggestion: suggest.Suggestion{Title: "Late Result"},
		gate:       gate,
	}
	f := New(Config{Vocabulary: testVocabulary(), Suggester: stub})

	f.EnterURL("https://example.com/talk")
	f.Close()
	close(gate)
	f.wg.Wait()

	assert.False(t, f.ApplyPendingSuggestion(), "results for a torn-down form are dropped")
	assert.Empty(t, f.Draft().ResourceTitle)
}

func TestValidate_SurfacesEngineViolations(t *testing.T) {
	f := New(Config{Vocabulary: testVocabulary()})
	defer f.Close()

	violations := f.Validate()
	require.NotEmpty(t, violations)
	assert.Equal(t, "companyName is required", violations[0].Message)
}

func TestValidate_RejectsURLPublishedByAnyCompany(t *testing.T) {
	f := New(Config{
		Vocabulary: testVocabulary(),
		KnownURLs:  map[string]struct{}{"https://example.com/talk": {}},
	})
	defer f.Close()

	f.Company().Input("Trade Me")
	f.Company().Enter()
	f.Industry().Input("E-commerce")
	f.Industry().Enter()
	f.ResourceType().Select("video")
	f.Topics().Select("automation")
	f.EnterURL("https://example.com/talk")
	f.SetResourceTitle("A talk someone already submitted")
	f.SetContributorName("Jane Doe")

	violations := f.Validate()
	require.Len(t, violations, 1)
	assert.Equal(t, "This resource already exists in our database", violations[0].Message)

	// A URL nobody has published passes.
	f.EnterURL("https://example.com/other-talk")
	assert.Empty(t, f.Validate())
}
