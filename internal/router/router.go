package router

import (
	"fmt"
	"regexp"
	"strings"

	"modelrelay/internal/llm/core"
)

// ModelKey names a routable model tier.
type ModelKey string

const (
	ModelKeyFast ModelKey = "fast"
	ModelKeyFull ModelKey = "full"
)

// Thresholds tune the length heuristics at the bottom of the precedence
// ladder.
type Thresholds struct {
	ShortMessageWords          int  `toml:"short_message_words"`
	LongMessageWords           int  `toml:"long_message_words"`
	FileAttachmentTriggersFull bool `toml:"file_attachment_triggers_full"`
}

// Config is the routing rule set. Pattern order is significant: the first
// match wins, so callers put their most specific patterns first.
// FullPatterns are plain substrings; FastPatterns are regular expressions.
type Config struct {
	FullPatterns []string   `toml:"full_patterns"`
	FastPatterns []string   `toml:"fast_patterns"`
	Thresholds   Thresholds `toml:"thresholds"`
}

// Decision is the outcome of one routing call. Produced fresh per call and
// never cached; the reason is display text, not a machine contract.
type Decision struct {
	ModelKey ModelKey
	Model    core.ModelConfig
	Reason   string
}

// Preview is the display-only projection of a Decision.
type Preview struct {
	DisplayName string
	Reason      string
}

// Router selects a model tier from message content, attachment state, and
// length thresholds. It is read-only after New and safe for concurrent use.
type Router struct {
	cfg          Config
	models       map[ModelKey]core.ModelConfig
	fullPatterns []string
	fastPatterns []*regexp.Regexp
}

// New compiles a routing rule set. Both the fast and full tiers must be
// present in models; fast patterns must be valid regular expressions.
func New(cfg Config, models map[ModelKey]core.ModelConfig) (*Router, error) {
	for _, key := range []ModelKey{ModelKeyFast, ModelKeyFull} {
		if _, ok := models[key]; !ok {
			return nil, fmt.Errorf("router: missing %q model", key)
		}
	}

	fullPatterns := make([]string, 0, len(cfg.FullPatterns))
	for _, pattern := range cfg.FullPatterns {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		fullPatterns = append(fullPatterns, pattern)
	}

	fastPatterns := make([]*regexp.Regexp, 0, len(cfg.FastPatterns))
	for _, pattern := range cfg.FastPatterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("router: fast pattern %q: %w", pattern, err)
		}
		fastPatterns = append(fastPatterns, re)
	}

	copied := make(map[ModelKey]core.ModelConfig, len(models))
	for key, model := range models {
		copied[key] = model
	}

	return &Router{
		cfg:          cfg,
		models:       copied,
		fullPatterns: fullPatterns,
		fastPatterns: fastPatterns,
	}, nil
}

// Route decides the model tier for one message. The rules form a strict
// precedence ladder; the first matching rule wins and there is no scoring.
// File attachment outranks everything, explicit pattern signals outrank the
// generic length heuristics, and the ambiguous middle defaults to the full
// model because under-serving a coding task costs more than over-serving a
// trivial one.
func (r *Router) Route(message string, hasFiles bool) Decision {
	if hasFiles && r.cfg.Thresholds.FileAttachmentTriggersFull {
		return r.decide(ModelKeyFull, "files attached")
	}

	lowered := strings.ToLower(strings.TrimSpace(message))
	wordCount := len(strings.Fields(lowered))

	for _, pattern := range r.fullPatterns {
		if strings.Contains(lowered, pattern) {
			return r.decide(ModelKeyFull, fmt.Sprintf("matched full pattern %q", pattern))
		}
	}

	for _, re := range r.fastPatterns {
		if !re.MatchString(lowered) {
			continue
		}
		// Long messages stay on the full model even when phrased as a
		// simple question.
		if wordCount > r.cfg.Thresholds.LongMessageWords {
			return r.decide(ModelKeyFull, fmt.Sprintf("long message (%d words) overrides fast pattern", wordCount))
		}
		return r.decide(ModelKeyFast, fmt.Sprintf("matched fast pattern %q", re.String()))
	}

	if wordCount <= r.cfg.Thresholds.ShortMessageWords {
		return r.decide(ModelKeyFast, fmt.Sprintf("short message (%d words)", wordCount))
	}
	if wordCount >= r.cfg.Thresholds.LongMessageWords {
		return r.decide(ModelKeyFull, fmt.Sprintf("long message (%d words)", wordCount))
	}
	return r.decide(ModelKeyFull, "no rule matched, defaulting to full")
}

// PreviewRoute projects the routing decision for display. Same rules,
// no side effects.
func (r *Router) PreviewRoute(message string, hasFiles bool) Preview {
	decision := r.Route(message, hasFiles)
	name := decision.Model.DisplayName
	if name == "" {
		name = decision.Model.Model
	}
	return Preview{DisplayName: name, Reason: decision.Reason}
}

// Model returns the configured model for a tier.
func (r *Router) Model(key ModelKey) (core.ModelConfig, bool) {
	model, ok := r.models[key]
	return model, ok
}

func (r *Router) decide(key ModelKey, reason string) Decision {
	return Decision{ModelKey: key, Model: r.models[key], Reason: reason}
}
