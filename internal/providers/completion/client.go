package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"speechable/internal/domain"
)

type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to an OpenAI-compatible chat-completions endpoint (DeepInfra by default).
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

const (
	defaultTimeout = 60 * time.Second
	DefaultBaseURL = "https://api.deepinfra.com/v1/openai"
	DefaultModel   = "meta-llama/Meta-Llama-3.1-8B-Instruct"
)

// Transform selects the system prompt and output budget of a rewrite.
type Transform string

const (
	TransformFixSpelling Transform = "fix-spelling"
	TransformLecture     Transform = "lecture"
)

// Valid reports whether t is a known transform.
func (t Transform) Valid() bool {
	_, ok := transforms[t]
	return ok
}

type transformSpec struct {
	system       string
	temperature  float64
	outputFactor float64
	usageType    domain.UsageEventType
}

var transforms = map[Transform]transformSpec{
	TransformFixSpelling: {
		system: "You are a careful copy editor. Fix spelling, grammar and punctuation in the text you are given. " +
			"Keep the original language, meaning, wording and paragraph breaks. " +
			"Reply with the corrected text only, without commentary or quotes.",
		temperature:  0.1,
		outputFactor: 1,
		usageType:    domain.UsageFixSpelling,
	},
	TransformLecture: {
		system: "You turn written material into a spoken lecture. Rewrite the text so it is pleasant to listen to: " +
			"short sentences, spelled-out abbreviations and symbols, no markdown, lists or URLs. " +
			"Keep every fact and the original language. Reply with the lecture text only.",
		temperature:  0.5,
		outputFactor: 1.5,
		usageType:    domain.UsageLecture,
	},
}

// outputHeadroom is added to every output budget so short inputs and
// estimation error do not truncate the reply.
const outputHeadroom = 256

// MaxOutputTokens is the completion budget for text: its estimated token
// count (four runes per token) scaled by the output factor, plus headroom.
func (t Transform) MaxOutputTokens(text string) int {
	inputTokens := math.Ceil(float64(utf8.RuneCountInString(text)) / 4)
	return int(math.Ceil(inputTokens*t.OutputFactor())) + outputHeadroom
}

// OutputFactor is the expected output size relative to the input.
func (t Transform) OutputFactor() float64 {
	return transforms[t].outputFactor
}

// UsageType is the audit event recorded for t.
func (t Transform) UsageType() domain.UsageEventType {
	return transforms[t].usageType
}

type Request struct {
	Transform Transform
	Text      string
	Title     string
	Locale    string
}

type Response struct {
	Text        string
	TotalTokens int
	Model       string
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// StatusError reports a non-2xx answer from the provider.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion status %d: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error {
	return domain.ErrUpstreamFailure
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("completion api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// Complete runs one transform and returns the cleaned model output.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	spec, ok := transforms[req.Transform]
	if !ok {
		return nil, fmt.Errorf("%w: unknown transform %q", domain.ErrInvalidInput, req.Transform)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}
	payload := chatRequest{
		Model:       c.model,
		Temperature: spec.temperature,
		MaxTokens:   req.Transform.MaxOutputTokens(req.Text),
		Messages: []chatMessage{
			{Role: "system", Content: spec.system},
			{Role: "user", Content: buildUserPrompt(req)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamFailure, err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", domain.ErrUpstreamFailure)
	}
	text := StripWrappingQuotes(strings.TrimSpace(out.Choices[0].Message.Content))
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrUpstreamFailure)
	}
	return &Response{
		Text:        text,
		TotalTokens: out.Usage.TotalTokens,
		Model:       coalesce(out.Model, c.model),
	}, nil
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	if title := strings.TrimSpace(req.Title); title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	if name := languageName(req.Locale); name != "" {
		fmt.Fprintf(&b, "Language: %s\n", name)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString("Text:\n")
	b.WriteString(strings.TrimSpace(req.Text))
	return b.String()
}

// languageName renders a BCP 47 tag as its English name, e.g. "id" -> "Indonesian".
func languageName(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return display.English.Languages().Name(base)
}

var quotePairs = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"“", "”"},
}

// StripWrappingQuotes removes one layer of quotes around s.
func StripWrappingQuotes(s string) string {
	for _, q := range quotePairs {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			return strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
		}
	}
	return s
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
