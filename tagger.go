package inkpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Suggestion is a proposed category and tag set for a post.
type Suggestion struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// TagSuggester proposes a category and tags from a post's title and plain
// text. Implementations must be safe for concurrent use.
type TagSuggester interface {
	Suggest(ctx context.Context, title, content string) (Suggestion, error)
}

// NewTagSuggester returns the classifier-backed suggester when an endpoint is
// configured, falling back to keyword matching otherwise. The classifier
// variant also degrades to keywords when the remote call fails, so publishing
// never depends on the external service.
func NewTagSuggester(apiURL, apiKey string) TagSuggester {
	if apiURL == "" {
		return KeywordTagger{}
	}
	return &ClassifierClient{
		URL:      apiURL,
		Key:      apiKey,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Fallback: KeywordTagger{},
	}
}

// ClassifierClient calls an external text-classification endpoint. The
// request and response are plain JSON; nothing about the remote model leaks
// into the rest of the engine.
type ClassifierClient struct {
	URL      string
	Key      string
	Client   *http.Client
	Fallback TagSuggester
}

type classifyRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Suggest posts the title and content to the classifier. Any transport or
// decode failure falls through to the fallback suggester when one is set.
func (c *ClassifierClient) Suggest(ctx context.Context, title, content string) (Suggestion, error) {
	suggestion, err := c.classify(ctx, title, content)
	if err != nil && c.Fallback != nil {
		return c.Fallback.Suggest(ctx, title, content)
	}
	return suggestion, err
}

func (c *ClassifierClient) classify(ctx context.Context, title, content string) (Suggestion, error) {
	body, err := json.Marshal(classifyRequest{Title: title, Content: content})
	if err != nil {
		return Suggestion{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return Suggestion{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Key != "" {
		req.Header.Set("Authorization", "Bearer "+c.Key)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return Suggestion{}, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Suggestion{}, fmt.Errorf("classifier returned %s", resp.Status)
	}
	var suggestion Suggestion
	if err := json.NewDecoder(resp.Body).Decode(&suggestion); err != nil {
		return Suggestion{}, fmt.Errorf("classifier response: %w", err)
	}
	if suggestion.Category == "" {
		suggestion.Category = "general"
	}
	if len(suggestion.Tags) == 0 {
		suggestion.Tags = []string{"blog"}
	}
	return suggestion, nil
}

// categoryKeywords drive the offline fallback: the bucket with the most hits
// wins the category.
var categoryKeywords = map[string][]string{
	"technology": {"code", "software", "programming", "database", "server", "api", "cloud", "framework", "algorithm"},
	"tutorial":   {"how to", "guide", "step", "tutorial", "learn", "install", "setup", "example"},
	"opinion":    {"think", "believe", "opinion", "should", "argue", "disagree", "wrong", "better"},
}

// tagKeywords are the terms worth surfacing as tags when they appear.
var tagKeywords = []string{
	"go", "python", "javascript", "web", "database", "security",
	"performance", "testing", "design", "linux", "docker", "api",
}

// KeywordTagger scores fixed keyword lists against the text. It needs no
// network and always succeeds.
type KeywordTagger struct{}

// Suggest picks the category whose keyword bucket matches most often and the
// tags whose keywords appear at all, defaulting to general/blog.
func (KeywordTagger) Suggest(_ context.Context, title, content string) (Suggestion, error) {
	text := strings.ToLower(title + " " + content)

	best, bestScore := "general", 0
	for category, words := range categoryKeywords {
		score := 0
		for _, w := range words {
			score += strings.Count(text, w)
		}
		if score > bestScore || (score == bestScore && score > 0 && category < best) {
			best, bestScore = category, score
		}
	}

	var tags []string
	for _, w := range tagKeywords {
		if containsWord(text, w) {
			tags = append(tags, w)
		}
		if len(tags) == 5 {
			break
		}
	}
	if len(tags) == 0 {
		tags = []string{"blog"}
	}
	return Suggestion{Category: best, Tags: tags}, nil
}

// containsWord matches whole words only, so "go" does not fire on "algorithm".
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
