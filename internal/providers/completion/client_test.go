package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"speechable/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestCompleteSendsPromptAndReadsUsage(t *testing.T) {
	var captured chatRequest
	var auth, path string
	client, err := NewClient(Options{
		APIKey:  " key ",
		BaseURL: "https://llm.example.com/v1/openai/",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			auth = r.Header.Get("Authorization")
			path = r.URL.String()
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			return jsonResponse(http.StatusOK, `{"model":"m","choices":[{"message":{"content":"\"Fixed text.\""}}],"usage":{"total_tokens":42}}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	res, err := client.Complete(context.Background(), Request{
		Transform: TransformFixSpelling,
		Text:      "Fixd txt.",
		Title:     "Notes",
		Locale:    "id-ID",
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if res.Text != "Fixed text." {
		t.Fatalf("Text = %q, want %q", res.Text, "Fixed text.")
	}
	if res.TotalTokens != 42 {
		t.Fatalf("TotalTokens = %d, want 42", res.TotalTokens)
	}
	if auth != "Bearer key" {
		t.Fatalf("Authorization = %q", auth)
	}
	if path != "https://llm.example.com/v1/openai/chat/completions" {
		t.Fatalf("endpoint = %q", path)
	}
	if captured.Model != DefaultModel {
		t.Fatalf("model = %q, want %q", captured.Model, DefaultModel)
	}
	// "Fixd txt." is 3 tokens; fix-spelling expects as much output again.
	if captured.MaxTokens != 3+outputHeadroom {
		t.Fatalf("max_tokens = %d, want %d", captured.MaxTokens, 3+outputHeadroom)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
	user := captured.Messages[1].Content
	for _, want := range []string{"Title: Notes", "Language: Indonesian", "Fixd txt."} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt %q missing %q", user, want)
		}
	}
}

func TestCompleteUpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		rt   roundTripFunc
	}{
		{
			name: "transport",
			rt: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("dial tcp: refused")
			},
		},
		{
			name: "status",
			rt: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusTooManyRequests, `{"error":"slow down"}`), nil
			},
		},
		{
			name: "no choices",
			rt: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"choices":[]}`), nil
			},
		},
		{
			name: "blank content",
			rt: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"choices":[{"message":{"content":"  \"\" "}}]}`), nil
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(Options{APIKey: "k", HTTPClient: &http.Client{Transport: tt.rt}})
			if err != nil {
				t.Fatalf("NewClient returned error: %v", err)
			}
			_, err = client.Complete(context.Background(), Request{Transform: TransformLecture, Text: "hello"})
			if !errors.Is(err, domain.ErrUpstreamFailure) {
				t.Fatalf("err = %v, want ErrUpstreamFailure", err)
			}
		})
	}
}

func TestCompleteRejectsBadRequest(t *testing.T) {
	client, err := NewClient(Options{APIKey: "k", HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})}})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{Transform: "poem", Text: "x"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown transform: err = %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{Transform: TransformLecture, Text: "  "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("blank text: err = %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Options{APIKey: "  "}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestStripWrappingQuotes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: `"hello"`, want: "hello"},
		{in: `'hello'`, want: "hello"},
		{in: "“hello”", want: "hello"},
		{in: `""hello""`, want: `"hello"`},
		{in: `"unbalanced`, want: `"unbalanced`},
		{in: `"`, want: `"`},
		{in: "plain", want: "plain"},
	}
	for _, tc := range cases {
		if got := StripWrappingQuotes(tc.in); got != tc.want {
			t.Fatalf("StripWrappingQuotes(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTransformMetadata(t *testing.T) {
	if !TransformLecture.Valid() || Transform("x").Valid() {
		t.Fatal("unexpected Valid result")
	}
	if TransformLecture.OutputFactor() <= TransformFixSpelling.OutputFactor() {
		t.Fatal("lecture should budget more output than spelling fixes")
	}
	if TransformFixSpelling.UsageType() != domain.UsageFixSpelling {
		t.Fatalf("usage type = %q", TransformFixSpelling.UsageType())
	}
}

func TestMaxOutputTokens(t *testing.T) {
	text := strings.Repeat("abcd", 100)
	if got := TransformLecture.MaxOutputTokens(text); got != 150+outputHeadroom {
		t.Fatalf("lecture budget = %d, want %d", got, 150+outputHeadroom)
	}
	if got := TransformFixSpelling.MaxOutputTokens(text); got != 100+outputHeadroom {
		t.Fatalf("fix-spelling budget = %d, want %d", got, 100+outputHeadroom)
	}
}
