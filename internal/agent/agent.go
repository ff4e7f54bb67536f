// Package agent asks a Gemini model for biographical author details and
// fallback book descriptions. Answers are best-effort: the model may not
// know an author, and an all-null answer is a valid result.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jhakala/libris/internal/cache"
	"github.com/jhakala/libris/internal/config"
	"github.com/jhakala/libris/internal/types"
)

const authorInfoPrompt = `You are a library cataloguing assistant. Given an author's name, answer with
biographical facts you are confident about.

Respond with ONLY a JSON object, no prose, using exactly these keys:
{
  "birth_date": "YYYY-MM-DD or null",
  "death_date": "YYYY-MM-DD or null (null when still alive)",
  "nationality": "primary nationality or null",
  "sex": "male, female or null",
  "biography": "one short paragraph or null",
  "url": "a reference link (Wikipedia preferred) or null"
}

Use null for any field you are not sure about. Do not guess.

Author: %s`

const bookSummaryPrompt = `You are a library cataloguing assistant. Write a neutral, factual description
of the book below in two or three sentences, suitable for a catalogue record.
Respond with the description text only, no preamble and no markdown.

Title: %s
Authors: %s`

// generateFunc produces raw model output for a prompt. Swappable in tests.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Agent wraps a Gemini model behind catalogue-specific operations.
type Agent struct {
	apiKey   string
	model    string
	generate generateFunc
}

// New creates an agent using the configured Gemini API key and model.
func New() (*Agent, error) {
	if config.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key not set")
	}
	a := &Agent{
		apiKey: config.GeminiAPIKey,
		model:  config.GeminiModel,
	}
	a.generate = a.generateContent
	return a, nil
}

// All-null answers expire on the shorter negative TTL so an unknown
// author is retried instead of staying blank for a month.
var lookupTTL = cache.SelectNegativeCacheTTL(func(d *types.AuthorDetails) bool { return d.Empty() })

// LookupAuthor asks the model for biographical details on one author.
// Answers are cached by name. Fields the model does not know stay nil.
func (a *Agent) LookupAuthor(ctx context.Context, name string) (*types.AuthorDetails, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("empty author name")
	}

	cacheKey := strings.ToLower(trimmed)
	details, fromCache, err := cache.GetOrFetchWithTTL("author_lookup_cache", cacheKey, func() (*types.AuthorDetails, error) {
		raw, err := a.generate(ctx, fmt.Sprintf(authorInfoPrompt, trimmed))
		if err != nil {
			return nil, fmt.Errorf("author lookup for %q: %w", trimmed, err)
		}
		return parseAuthorDetails(raw)
	}, lookupTTL)
	if err != nil {
		return nil, err
	}
	if fromCache {
		slog.Debug("Author details served from cache", "author", trimmed)
	}

	return details, nil
}

// Summarize writes a short catalogue description for a book that arrived
// without one.
func (a *Agent) Summarize(ctx context.Context, title string, authors []string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("empty title")
	}

	byline := strings.Join(authors, ", ")
	if byline == "" {
		byline = "unknown"
	}

	raw, err := a.generate(ctx, fmt.Sprintf(bookSummaryPrompt, title, byline))
	if err != nil {
		return "", fmt.Errorf("summarize %q: %w", title, err)
	}

	return strings.TrimSpace(stripCodeFence(raw)), nil
}

func (a *Agent) generateContent(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer func() { _ = client.Close() }()

	model := client.GenerativeModel(a.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from gemini")
}

// parseAuthorDetails decodes the model's JSON answer, tolerating a
// surrounding markdown code fence.
func parseAuthorDetails(raw string) (*types.AuthorDetails, error) {
	cleaned := strings.TrimSpace(stripCodeFence(raw))

	var details types.AuthorDetails
	if err := json.Unmarshal([]byte(cleaned), &details); err != nil {
		return nil, fmt.Errorf("parsing author details: %w", err)
	}

	details.BirthDate = cleanField(details.BirthDate)
	details.DeathDate = cleanField(details.DeathDate)
	details.Nationality = cleanField(details.Nationality)
	details.Bio = cleanField(details.Bio)
	details.Link = cleanField(details.Link)
	details.Sex = normalizeSex(cleanField(details.Sex))
	return &details, nil
}

// cleanField drops values the model uses for "I don't know" instead of
// a JSON null.
func cleanField(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return nil
	}
	return &trimmed
}

// normalizeSex maps model output variants (M, F, Male, ...) onto the
// stored enumeration, keeping nil when the model declined to answer.
func normalizeSex(sex *string) *string {
	if sex == nil {
		return nil
	}
	var normalized string
	switch strings.ToLower(strings.TrimSpace(*sex)) {
	case "m", types.SexMale:
		normalized = types.SexMale
	case "f", types.SexFemale:
		normalized = types.SexFemale
	default:
		normalized = types.SexUnknown
	}
	return &normalized
}

// stripCodeFence removes a wrapping markdown code fence, with or without
// a language tag.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
