// Package extract implements best-effort metadata extraction for resource
// URLs: a page fetch plus heuristics for title, resource type, and topic
// suggestions. Results are advisory pre-fill material, never authoritative.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/singleflight"

	"github.com/howtheytest/contribution-server/internal/domain"
	"github.com/howtheytest/contribution-server/internal/logger"
)

const (
	// DefaultTimeout bounds the page fetch.
	DefaultTimeout = 10 * time.Second

	userAgent = "HowTheyTest-Bot/1.0 (Resource metadata extraction)"

	// maxTopics caps the suggestion list at the most relevant matches.
	maxTopics = 5
)

// typeTable maps URL patterns to resource types, checked in order with
// first match winning. Blog and article patterns are listed separately for
// precedence but both resolve to the single "blog or article" wire type.
type typeEntry struct {
	typ      domain.ResourceType
	patterns []*regexp.Regexp
}

var typeTable = []typeEntry{
	{domain.TypeVideo, compileAll(
		`youtube\.com/watch`,
		`youtu\.be/`,
		`vimeo\.com`,
		`youtube\.com/embed`,
		`loom\.com`,
		`wistia\.com`,
		`dailymotion\.com`,
		`twitch\.tv/videos`,
	)},
	{domain.TypeBlogOrArticle, compileAll(
		`medium\.com`,
		`dev\.to`,
		`hashnode\.`,
		`/blog/`,
		`/posts?/`,
		`substack\.com`,
		`wordpress\.com`,
		`blogger\.com`,
		`tumblr\.com`,
		`ghost\.io`,
		`\.blog`,
	)},
	{domain.TypeRepo, compileAll(
		`github\.com/[^/]+/[^/]+/?$`,
		`gitlab\.com/[^/]+/[^/]+/?$`,
		`bitbucket\.org/[^/]+/[^/]+/?$`,
		`gitea\.`,
		`sourceforge\.net/projects`,
	)},
	{domain.TypeBook, compileAll(
		`/books?/`,
		`amazon\.com/.*/dp/`,
		`goodreads\.com/book`,
		`oreilly\.com`,
		`packtpub\.com`,
		`manning\.com`,
		`pragprog\.com`,
		`leanpub\.com`,
	)},
	{domain.TypeBlogOrArticle, compileAll(
		`arxiv\.org`,
		`acm\.org`,
		`ieee\.org`,
		`springer\.com`,
		`sciencedirect\.com`,
		`\.pdf$`,
		`/docs`,
		`/documentation`,
		`/guide`,
		`/wiki`,
		`/manual`,
		`readthedocs\.io`,
		`gitbook\.io`,
		`notion\.site`,
		`confluence\.`,
		`/talks?/`,
		`/presentations?/`,
		`/conference`,
		`slideshare\.net`,
		`speakerdeck\.com`,
		`/slides?/`,
		`/webinar`,
		`/summit`,
		`/meetup`,
		`spotify\.com/episode`,
		`podcasts\.apple\.com`,
		`anchor\.fm`,
		`/podcast`,
		`soundcloud\.com`,
		`overcast\.fm`,
		`pocketcasts\.com`,
		`castbox\.fm`,
	)},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		res[i] = regexp.MustCompile(e)
	}
	return res
}

// topicKeywords maps vocabulary topics to trigger phrases found in page
// text. A topic is only suggested if it also exists in the caller's
// vocabulary.
var topicKeywords = map[string][]string{
	"testing":             {"test", "testing", "qa", "quality assurance"},
	"automation":          {"automation", "automated", "selenium", "cypress", "playwright"},
	"ci/cd":               {"ci/cd", "continuous integration", "continuous deployment", "jenkins", "github actions", "gitlab ci"},
	"unit-testing":        {"unit test", "unittest", "jest", "mocha", "pytest"},
	"integration-testing": {"integration test", "integration testing", "api test"},
	"e2e-testing":         {"e2e", "end-to-end", "end to end"},
	"performance":         {"performance", "load test", "stress test", "jmeter", "gatling"},
	"security":            {"security", "penetration test", "security test", "vulnerability"},
	"mobile":              {"mobile", "ios", "android", "appium"},
	"api":                 {"api", "rest", "graphql", "postman"},
	"tdd":                 {"tdd", "test-driven", "test driven development"},
	"bdd":                 {"bdd", "behavior-driven", "cucumber", "gherkin"},
	"test-strategy":       {"test strategy", "testing strategy", "test plan"},
	"code-review":         {"code review", "pull request", "pr review"},
	"monitoring":          {"monitoring", "observability", "logging", "metrics"},
	"chaos-engineering":   {"chaos", "chaos engineering", "resilience"},
	"shift-left":          {"shift left", "shift-left"},
}

// titleSuffixRe strips trailing site-name suffixes like " | Site Name",
// " - Site Name", or an em dash variant.
var titleSuffixRe = regexp.MustCompile(`\s*[|\-\x{2014}]\s*.+$`)

// DetectType guesses a resource type from URL shape alone. The second
// return is false when no pattern matches.
func DetectType(rawURL string) (domain.ResourceType, bool) {
	lower := strings.ToLower(rawURL)
	for _, entry := range typeTable {
		for _, re := range entry.patterns {
			if re.MatchString(lower) {
				return entry.typ, true
			}
		}
	}
	return "", false
}

// Title pulls the best title candidate from the document: og:title, then
// twitter:title, the title meta, the <title> element, and finally the first
// h1 or h2. Site-name suffixes are stripped.
func Title(doc *goquery.Document) string {
	candidates := []string{
		doc.Find(`meta[property="og:title"]`).AttrOr("content", ""),
		doc.Find(`meta[name="twitter:title"]`).AttrOr("content", ""),
		doc.Find(`meta[name="title"]`).AttrOr("content", ""),
		doc.Find("title").Text(),
		doc.Find("h1").First().Text(),
		doc.Find("h2").First().Text(),
	}

	for _, candidate := range candidates {
		title := strings.TrimSpace(candidate)
		if title == "" {
			continue
		}
		title = titleSuffixRe.ReplaceAllString(title, "")
		return strings.TrimSpace(title)
	}
	return ""
}

var topicWordSplitRe = regexp.MustCompile(`[\s\-_]+`)

// Topics suggests vocabulary topics for the document. A topic matches when
// its full name appears in the page's key text, when every word of a
// multi-word topic appears, or when one of its trigger phrases appears.
// At most maxTopics are returned, in vocabulary order.
func Topics(doc *goquery.Document, vocabulary []string) []string {
	combined := strings.ToLower(strings.Join([]string{
		doc.Find("title").Text(),
		doc.Find(`meta[name="description"]`).AttrOr("content", ""),
		doc.Find("h1").Text(),
		doc.Find("h2").Text(),
		doc.Find(`meta[name="keywords"]`).AttrOr("content", ""),
	}, " "))

	suggested := []string{}
	seen := map[string]bool{}
	add := func(topic string) {
		if !seen[topic] {
			seen[topic] = true
			suggested = append(suggested, topic)
		}
	}

	for _, topic := range vocabulary {
		lower := strings.ToLower(topic)
		if strings.Contains(combined, lower) {
			add(topic)
			continue
		}
		words := topicWordSplitRe.Split(lower, -1)
		if len(words) > 1 && allWordsPresent(combined, words) {
			add(topic)
		}
	}

	vocabSet := map[string]bool{}
	for _, topic := range vocabulary {
		vocabSet[topic] = true
	}
	for topic, phrases := range topicKeywords {
		if seen[topic] || !vocabSet[topic] {
			continue
		}
		for _, phrase := range phrases {
			if strings.Contains(combined, phrase) {
				add(topic)
				break
			}
		}
	}

	if len(suggested) > maxTopics {
		suggested = suggested[:maxTopics]
	}
	return suggested
}

func allWordsPresent(text string, words []string) bool {
	for _, w := range words {
		if len(w) <= 2 || !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

// Result is the extraction outcome in its wire shape. Title and Type are
// pointers because "nothing found" is null, not empty string.
type Result struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Title   *string  `json:"title"`
	Type    *string  `json:"type"`
	Topics  []string `json:"topics"`
}

// Extractor fetches pages and runs the heuristics. Concurrent extractions
// of the same URL share one fetch.
type Extractor struct {
	httpClient *http.Client
	group      singleflight.Group
	logger     *logger.Logger
}

// New creates an extractor. A zero timeout falls back to DefaultTimeout.
func New(timeout time.Duration, log *logger.Logger) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Extract fetches pageURL and returns the metadata guess. A fetch or parse
// failure yields the failure shape with the type still guessed from the URL;
// extraction never returns a Go error to its caller.
func (e *Extractor) Extract(ctx context.Context, pageURL string, vocabulary []string) Result {
	doc, err := e.fetchDocument(ctx, pageURL)
	if err != nil {
		e.logger.Debug("metadata extraction failed",
			"url", pageURL,
			"error", err,
		)
		return Result{
			Success: false,
			Error:   err.Error(),
			Type:    typePtr(pageURL),
			Topics:  []string{},
		}
	}

	title := Title(doc)
	result := Result{
		Success: true,
		Type:    typePtr(pageURL),
		Topics:  Topics(doc, vocabulary),
	}
	if title != "" {
		result.Title = &title
	}
	return result
}

func (e *Extractor) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	v, err, _ := e.group.Do(pageURL, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("parse page: %w", err)
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*goquery.Document), nil
}

func typePtr(pageURL string) *string {
	if typ, ok := DetectType(pageURL); ok {
		s := string(typ)
		return &s
	}
	return nil
}
