package main

import (
	"bytes"
	"strings"
	"testing"

	"modelrelay/internal/config"
	"modelrelay/internal/llm"
	"modelrelay/internal/router"
)

func keyedConfig() config.Config {
	cfg := config.Default()
	cfg.Providers.OpenAI.APIKey = "openai-key"
	cfg.Providers.Anthropic.APIKey = "anthropic-key"
	cfg.Providers.Google.APIKey = "google-key"
	return cfg
}

func TestBuildMuxRegistersKeyedProviders(t *testing.T) {
	t.Parallel()

	mux, err := buildMux(keyedConfig())
	if err != nil {
		t.Fatalf("buildMux() error = %v", err)
	}
	if mux == nil {
		t.Fatalf("expected mux, got nil")
	}
}

func TestBuildRouterUsesConfiguredTiers(t *testing.T) {
	t.Parallel()

	rt, err := buildRouter(config.Default())
	if err != nil {
		t.Fatalf("buildRouter() error = %v", err)
	}

	decision := rt.Route("fix this bug", false)
	if decision.ModelKey != router.ModelKeyFull {
		t.Fatalf("ModelKey = %q, want full", decision.ModelKey)
	}
	if decision.Model.Provider != llm.ProviderAnthropic {
		t.Fatalf("full tier provider = %q", decision.Model.Provider)
	}
}

func TestResolveDecisionForcedTier(t *testing.T) {
	t.Parallel()

	rt, err := buildRouter(config.Default())
	if err != nil {
		t.Fatalf("buildRouter() error = %v", err)
	}

	decision, err := resolveDecision(rt, "fix this bug", false, "fast")
	if err != nil {
		t.Fatalf("resolveDecision() error = %v", err)
	}
	if decision.ModelKey != router.ModelKeyFast {
		t.Fatalf("ModelKey = %q, want forced fast", decision.ModelKey)
	}

	if _, err := resolveDecision(rt, "hi", false, "medium"); err == nil {
		t.Fatalf("resolveDecision() with unknown tier should fail")
	}
}

func TestRouteCommandPrintsPreview(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"route", "--config", "/nonexistent/config.toml", "what", "is", "a", "closure"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "GPT-4o mini") {
		t.Fatalf("output %q does not name the fast tier model", out.String())
	}
}
