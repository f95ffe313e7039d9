package router

import (
	"strings"
	"testing"

	"modelrelay/internal/llm/core"
)

func testModels() map[ModelKey]core.ModelConfig {
	return map[ModelKey]core.ModelConfig{
		ModelKeyFast: {
			Provider:    core.ProviderOpenAI,
			Model:       "gpt-4o-mini",
			DisplayName: "GPT-4o mini",
		},
		ModelKeyFull: {
			Provider:    core.ProviderAnthropic,
			Model:       "claude-sonnet-4-20250514",
			DisplayName: "Claude Sonnet",
		},
	}
}

func testConfig() Config {
	return Config{
		FullPatterns: []string{"fix", "refactor", "implement"},
		FastPatterns: []string{`^what is`, `^how do i`},
		Thresholds: Thresholds{
			ShortMessageWords:          5,
			LongMessageWords:           50,
			FileAttachmentTriggersFull: true,
		},
	}
}

func mustNew(t *testing.T) *Router {
	t.Helper()
	r, err := New(testConfig(), testModels())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestRoutePrecedenceLadder(t *testing.T) {
	t.Parallel()
	r := mustNew(t)

	cases := []struct {
		name       string
		message    string
		hasFiles   bool
		want       ModelKey
		wantReason string
	}{
		{
			name:       "full pattern substring",
			message:    "fix this bug in my code",
			want:       ModelKeyFull,
			wantReason: "fix",
		},
		{
			name:       "fast pattern short question",
			message:    "what is a closure",
			want:       ModelKeyFast,
			wantReason: "what is",
		},
		{
			name:     "files attached outranks everything",
			message:  "what is a closure",
			hasFiles: true,
			want:     ModelKeyFull,
		},
		{
			name:    "short message with no pattern",
			message: "one two three four five",
			want:    ModelKeyFast,
		},
		{
			name:    "medium message defaults to full",
			message: strings.Repeat("word ", 20),
			want:    ModelKeyFull,
		},
		{
			name:    "long message",
			message: strings.Repeat("word ", 60),
			want:    ModelKeyFull,
		},
		{
			name:       "full pattern is case insensitive",
			message:    "please REFACTOR the parser",
			want:       ModelKeyFull,
			wantReason: "refactor",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := r.Route(tc.message, tc.hasFiles)
			if got.ModelKey != tc.want {
				t.Fatalf("Route(%q, %v) = %q (%s), want %q", tc.message, tc.hasFiles, got.ModelKey, got.Reason, tc.want)
			}
			if tc.wantReason != "" && !strings.Contains(strings.ToLower(got.Reason), tc.wantReason) {
				t.Fatalf("reason %q does not mention %q", got.Reason, tc.wantReason)
			}
			if got.Model.Model != testModels()[tc.want].Model {
				t.Fatalf("decision model = %q, want the %q tier model", got.Model.Model, tc.want)
			}
		})
	}
}

// TestRouteLongMessageOverridesFastPattern pins the override branch: a fast
// question padded past the long threshold stays on the full model.
func TestRouteLongMessageOverridesFastPattern(t *testing.T) {
	t.Parallel()
	r := mustNew(t)

	padded := "what is a closure " + strings.Repeat("and also ", 30)
	got := r.Route(padded, false)
	if got.ModelKey != ModelKeyFull {
		t.Fatalf("Route(padded fast question) = %q (%s), want full", got.ModelKey, got.Reason)
	}
	if !strings.Contains(got.Reason, "long message") {
		t.Fatalf("reason %q does not name the override", got.Reason)
	}
}

// TestRouteFilesAlwaysFull is the attachment property: with the trigger
// enabled, any message with files routes to full.
func TestRouteFilesAlwaysFull(t *testing.T) {
	t.Parallel()
	r := mustNew(t)

	for _, message := range []string{
		"",
		"what is a closure",
		"hi",
		strings.Repeat("word ", 100),
	} {
		got := r.Route(message, true)
		if got.ModelKey != ModelKeyFull {
			t.Fatalf("Route(%q, files) = %q, want full", message, got.ModelKey)
		}
	}
}

// TestRouteFilesTriggerDisabled verifies the flag gates the attachment rule.
func TestRouteFilesTriggerDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Thresholds.FileAttachmentTriggersFull = false
	r, err := New(cfg, testModels())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := r.Route("what is a closure", true)
	if got.ModelKey != ModelKeyFast {
		t.Fatalf("Route() with disabled trigger = %q, want fast", got.ModelKey)
	}
}

// TestRouteIsIdempotent verifies repeated calls with identical arguments
// yield an identical decision.
func TestRouteIsIdempotent(t *testing.T) {
	t.Parallel()
	r := mustNew(t)

	first := r.Route("explain this architecture decision to me please", false)
	second := r.Route("explain this architecture decision to me please", false)
	if first != second {
		t.Fatalf("decisions differ:\n%+v\n%+v", first, second)
	}
}

func TestRouteFullPatternOrderWins(t *testing.T) {
	t.Parallel()
	r := mustNew(t)

	// Message contains both "refactor" and "fix"; "fix" is configured first.
	got := r.Route("refactor or fix whichever is easier", false)
	if got.ModelKey != ModelKeyFull {
		t.Fatalf("ModelKey = %q, want full", got.ModelKey)
	}
	if !strings.Contains(got.Reason, `"fix"`) {
		t.Fatalf("reason %q should name the first configured pattern", got.Reason)
	}
}

func TestPreviewRouteProjectsDisplayName(t *testing.T) {
	t.Parallel()
	r := mustNew(t)

	preview := r.PreviewRoute("fix this bug", false)
	if preview.DisplayName != "Claude Sonnet" {
		t.Fatalf("DisplayName = %q", preview.DisplayName)
	}
	if preview.Reason == "" {
		t.Fatalf("preview reason is empty")
	}
}

func TestNewRejectsBadInputs(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	models := testModels()
	delete(models, ModelKeyFull)
	if _, err := New(cfg, models); err == nil {
		t.Fatalf("New() without a full model should fail")
	}

	cfg = testConfig()
	cfg.FastPatterns = []string{`([unclosed`}
	if _, err := New(cfg, testModels()); err == nil {
		t.Fatalf("New() with an invalid regex should fail")
	}
}
