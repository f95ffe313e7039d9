package main

import (
	"fmt"
	"os"
	"strings"

	"modelrelay/internal/config"
	"modelrelay/internal/llm"
	"modelrelay/internal/router"
	"modelrelay/internal/usage"

	"github.com/spf13/cobra"
)

func main() {
	if err := execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "modelrelay: %v\n", err)
		os.Exit(1)
	}
}

func execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "modelrelay",
		Short:         "modelrelay routes and streams chat completions across LLM providers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	cmd.AddCommand(newAskCmd(&configPath))
	cmd.AddCommand(newRouteCmd(&configPath))
	return cmd
}

func newAskCmd(configPath *string) *cobra.Command {
	var (
		system    string
		tier      string
		hasFiles  bool
		maxTokens int
	)

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Route a message to a model tier and stream the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.LoadOptions{Path: strings.TrimSpace(*configPath)})
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			rt, err := buildRouter(cfg)
			if err != nil {
				return fmt.Errorf("build router: %w", err)
			}
			mux, err := buildMux(cfg)
			if err != nil {
				return fmt.Errorf("build providers: %w", err)
			}

			message := strings.Join(args, " ")
			decision, err := resolveDecision(rt, message, hasFiles, tier)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "using %s (%s)\n", displayName(decision.Model), decision.Reason)

			req := &llm.Request{
				System:    system,
				Messages:  []llm.Message{llm.TextMessage(llm.RoleUser, message)},
				MaxTokens: maxTokens,
			}

			stream, err := mux.Stream(cmd.Context(), decision.Model, req)
			if err != nil {
				return fmt.Errorf("stream: %w", err)
			}

			tracker := usage.NewTracker()
			var failure error
			for ev := range stream {
				switch ev.Type {
				case llm.EventTextDelta:
					_, _ = fmt.Fprint(cmd.OutOrStdout(), ev.TextDelta)
				case llm.EventDone:
					_, _ = fmt.Fprintln(cmd.OutOrStdout())
					if ev.Done != nil {
						tracker.Record(decision.Model, ev.Done.Usage)
					}
				case llm.EventError:
					failure = ev.Err
				}
			}
			if failure != nil {
				return failure
			}

			total := tracker.Total()
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "tokens: %d in / %d out, cost: $%.6f\n",
				total.InputTokens, total.OutputTokens, total.CostUSD)
			return nil
		},
	}

	cmd.Flags().StringVar(&system, "system", "", "System prompt")
	cmd.Flags().StringVar(&tier, "tier", "", `Force a model tier ("fast" or "full") instead of routing`)
	cmd.Flags().BoolVar(&hasFiles, "files", false, "Treat the message as having file attachments")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Output token budget (0 uses the model's configured limit)")
	return cmd
}

func newRouteCmd(configPath *string) *cobra.Command {
	var hasFiles bool

	cmd := &cobra.Command{
		Use:   "route [message]",
		Short: "Preview the routing decision for a message without calling a provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.LoadOptions{Path: strings.TrimSpace(*configPath)})
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			rt, err := buildRouter(cfg)
			if err != nil {
				return fmt.Errorf("build router: %w", err)
			}

			preview := rt.PreviewRoute(strings.Join(args, " "), hasFiles)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", preview.DisplayName, preview.Reason)
			return nil
		},
	}

	cmd.Flags().BoolVar(&hasFiles, "files", false, "Treat the message as having file attachments")
	return cmd
}

func buildRouter(cfg config.Config) (*router.Router, error) {
	models, err := cfg.ModelConfigs()
	if err != nil {
		return nil, err
	}
	return router.New(cfg.RouterConfig(), models)
}

// buildMux registers one adapter per provider that has credentials. A model
// routed to a keyless provider fails at dispatch as not configured.
func buildMux(cfg config.Config) (*llm.Mux, error) {
	retrySettings, err := cfg.RetrySettings()
	if err != nil {
		return nil, err
	}
	retry := llm.RetryPolicy{
		MaxRetries: retrySettings.MaxRetries,
		BaseDelay:  retrySettings.BaseDelay,
		MaxDelay:   retrySettings.MaxDelay,
	}

	registry := llm.NewRegistry()
	if key := strings.TrimSpace(cfg.Providers.OpenAI.APIKey); key != "" {
		registry.Register(llm.ProviderOpenAI, llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  key,
			BaseURL: cfg.Providers.OpenAI.BaseURL,
			Retry:   retry,
		}))
	}
	if key := strings.TrimSpace(cfg.Providers.Anthropic.APIKey); key != "" {
		registry.Register(llm.ProviderAnthropic, llm.NewAnthropicProvider(llm.AnthropicConfig{
			APIKey:  key,
			BaseURL: cfg.Providers.Anthropic.BaseURL,
			Version: cfg.Providers.Anthropic.Version,
			Retry:   retry,
		}))
	}
	if key := strings.TrimSpace(cfg.Providers.Google.APIKey); key != "" {
		registry.Register(llm.ProviderGoogle, llm.NewGoogleProvider(llm.GoogleConfig{
			APIKey:  key,
			BaseURL: cfg.Providers.Google.BaseURL,
		}))
	}
	return llm.NewMux(registry), nil
}

func resolveDecision(rt *router.Router, message string, hasFiles bool, tier string) (router.Decision, error) {
	tier = strings.ToLower(strings.TrimSpace(tier))
	if tier == "" {
		return rt.Route(message, hasFiles), nil
	}

	key := router.ModelKey(tier)
	model, ok := rt.Model(key)
	if !ok {
		return router.Decision{}, fmt.Errorf("unknown tier %q", tier)
	}
	return router.Decision{ModelKey: key, Model: model, Reason: "forced by --tier"}, nil
}

func displayName(model llm.ModelConfig) string {
	if model.DisplayName != "" {
		return model.DisplayName
	}
	return model.Model
}
