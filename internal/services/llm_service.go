package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/justsurfingit/career-atlas/internal/dtos"
)

// ErrExtractionDisabled is returned when no model is configured.
var ErrExtractionDisabled = errors.New("job extraction is not configured")

const maxPostingChars = 20000

type LLMService struct {
	Client llms.Model

	generate func(ctx context.Context, prompt string) (string, error)
}

// NewLLMService initializes the Gemini client.
func NewLLMService(ctx context.Context, apiKey string) (*LLMService, error) {
	if apiKey == "" {
		return nil, ErrExtractionDisabled
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel("gemini-2.5-flash"),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newLLMService(llm), nil
}

func newLLMService(model llms.Model) *LLMService {
	s := &LLMService{Client: model}
	s.generate = func(ctx context.Context, prompt string) (string, error) {
		return llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
	}
	return s
}

const jobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided text from a job posting and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Extract** the following fields strictly.
4. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "company_name": "Name of the company (e.g., Google, StartupInc)",
    "title": "Job title (e.g., Senior Backend Engineer)",
    "location": "Job location, or null when fully remote with no location",
    "remote": true,
    "description": "A clean summary of the job. Focus on Responsibilities and Requirements.",
    "job_types": ["One or more of: Full-time, Part-time, Contract, Internship"],
    "tags": ["Array", "of", "technologies", "mentioned", "e.g., Go, React, AWS"],
    "salary": "The salary string if explicitly mentioned (e.g., '$100k - $150k'), otherwise null"
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

// ExtractJobDetails turns a raw posting page into a draft listing.
func (s *LLMService) ExtractJobDetails(ctx context.Context, req dtos.JobExtractionRequest) (*dtos.JobDraft, error) {
	if s == nil || s.generate == nil {
		return nil, ErrExtractionDisabled
	}

	text, err := CleanPostingHTML(req.RawHTML)
	if err != nil {
		return nil, invalid("raw_html", err.Error())
	}
	if text == "" {
		return nil, invalid("raw_html", "posting has no readable text")
	}
	text = truncateUTF8(text, maxPostingChars)

	resp, err := s.generate(ctx, fmt.Sprintf(jobExtractionPrompt, text))
	if err != nil {
		return nil, fmt.Errorf("extract job: %w", err)
	}

	var draft dtos.JobDraft
	if err := json.Unmarshal([]byte(stripCodeFence(resp)), &draft); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	if draft.URL == "" {
		draft.URL = req.URL
	}
	draft.JobTypes = cleanList(draft.JobTypes)
	draft.Tags = cleanList(draft.Tags)
	return &draft, nil
}

// CleanPostingHTML drops page chrome (scripts, navigation, footers) and
// returns the visible text with whitespace collapsed.
func CleanPostingHTML(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, svg, nav, footer, header, form, iframe").Remove()

	root := doc.Find("main, article, [role=main]").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	return strings.Join(strings.Fields(root.Text()), " "), nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
