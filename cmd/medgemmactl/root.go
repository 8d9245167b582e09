package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"medgemma/internal/analysis"
	"medgemma/internal/config"
	"medgemma/internal/engine"
	"medgemma/internal/probe"
	"medgemma/internal/registry"
	"medgemma/pkg/types"
)

type globalOpts struct {
	envFile  string
	logLevel string
	config   string
}

// buildRootCmd constructs the command tree. Reports go to out; logs go to stderr.
func buildRootCmd(out io.Writer) *cobra.Command {
	g := &globalOpts{}
	root := &cobra.Command{
		Use:           "medgemmactl",
		Short:         "Operator tools for medgemmad: hub access probes, local smoke tests, API calls",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env.local", "Dotenv file loaded before reading the environment (ignored if missing)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&g.config, "config", "", "medgemmad config file (YAML, TOML or JSON)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if g.envFile != "" {
			if _, err := os.Stat(g.envFile); err == nil {
				if err := godotenv.Overload(g.envFile); err != nil {
					return fmt.Errorf("load %s: %w", g.envFile, err)
				}
			}
		}
		lvl, err := zerolog.ParseLevel(strings.ToLower(g.logLevel))
		if err != nil {
			return err
		}
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(lvl).With().Timestamp().Logger()
		probe.SetLogger(log)
		engine.SetLogger(log)
		return nil
	}

	probeCmd := &cobra.Command{Use: "probe", Short: "Check model access", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("probe requires a subcommand: hub|local")
	}}
	probeCmd.AddCommand(newProbeHubCmd(g, out), newProbeLocalCmd(g, out))
	root.AddCommand(probeCmd, newAnalyzeCmd(out), newHealthCmd(out))
	return root
}

// loadConfig mirrors medgemmad: defaults, optional file, then environment.
func (g *globalOpts) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if g.config != "" {
		var err error
		if cfg, err = config.Load(g.config); err != nil {
			return cfg, err
		}
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}

func newProbeHubCmd(g *globalOpts, out io.Writer) *cobra.Command {
	var models []string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:     "hub",
		Short:   "Check the Hugging Face token, model licenses and inference for MedGemma candidates",
		Example: "  medgemmactl probe hub\n  medgemmactl probe hub --model google/medgemma-4b-it",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cfg.HFToken == "" {
				return fmt.Errorf("no hub token: set HUGGING_FACE_TOKEN or HF_TOKEN")
			}
			hub := engine.NewHubClient(cfg.HFToken,
				engine.WithHubURL(cfg.Hub.URL),
				engine.WithInferenceURL(cfg.Hub.InferenceURL),
				engine.WithRequestTimeout(timeout),
			)
			rep := probe.ProbeHub(cmd.Context(), hub, models)
			if err := probe.WriteHubReport(out, rep); err != nil {
				return err
			}
			if rep.AuthErr != nil {
				return rep.AuthErr
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&models, "model", probe.Candidates, "Models to probe, in order of preference")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Per-request timeout")
	return cmd
}

func newProbeLocalCmd(g *globalOpts, out io.Writer) *cobra.Command {
	var questions []string
	var maxTokens int
	cmd := &cobra.Command{
		Use:     "local",
		Short:   "Load the configured backend and answer sample medical questions",
		Example: "  medgemmactl probe local\n  MEDGEMMA_BACKEND=llama-server LLAMA_SERVER_URL=http://127.0.0.1:8080 medgemmactl probe local",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			svc, closeFn, err := openService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			rep, err := probe.RunLocal(cmd.Context(), svc, questions, maxTokens)
			if err != nil {
				return err
			}
			if err := probe.WriteLocalReport(out, rep); err != nil {
				return err
			}
			if n := rep.Failures(); n > 0 {
				return fmt.Errorf("%d of %d questions failed", n, len(rep.Answers))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&questions, "question", probe.SampleQuestions, "Question to ask (repeatable)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 150, "Maximum new tokens per answer")
	return cmd
}

// openService loads the configured model and returns the analysis service around it.
func openService(ctx context.Context, cfg config.Config) (*analysis.Service, func(), error) {
	lists := [][]registry.Entry{registry.Builtin()}
	if cfg.Catalog != "" {
		extra, err := registry.LoadCatalog(cfg.Catalog)
		if err != nil {
			return nil, nil, err
		}
		lists = append(lists, extra)
	}
	if local, err := registry.ScanGGUF(cfg.ModelsDir); err == nil {
		lists = append(lists, local)
	}
	catalog := registry.Merge(lists...)

	ecfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, nil, err
	}
	bopts, err := cfg.BackendOptions(catalog)
	if err != nil {
		return nil, nil, err
	}
	backend, err := engine.OpenBackend(cfg.Backend, bopts)
	if err != nil {
		return nil, nil, err
	}
	adapter, err := engine.New(ecfg, backend, engine.WithPublisher(engine.LogPublisher{}))
	if err != nil {
		return nil, nil, err
	}
	if err := adapter.Load(ctx); err != nil {
		_ = adapter.Close()
		return nil, nil, err
	}
	return analysis.NewService(adapter, catalog), func() { _ = adapter.Close() }, nil
}

func newAnalyzeCmd(out io.Writer) *cobra.Command {
	var (
		url, taskType, clinical string
		maxTokens               int
		temperature             float64
		timeout                 time.Duration
	)
	cmd := &cobra.Command{
		Use:     "analyze <input>",
		Short:   "Send an analysis request to a running medgemmad",
		Example: "  medgemmactl analyze --type clinical_qa \"What are the symptoms of pneumonia?\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.AnalyzeRequest{Input: &args[0], Type: taskType, Context: clinical}
			if cmd.Flags().Changed("max-tokens") || cmd.Flags().Changed("temperature") {
				req.Options = &types.AnalyzeOptions{}
				if cmd.Flags().Changed("max-tokens") {
					req.Options.MaxTokens = &maxTokens
				}
				if cmd.Flags().Changed("temperature") {
					req.Options.Temperature = &temperature
				}
			}
			resp, err := probe.NewClient(url, timeout).Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("generation failed on %s: %s", resp.Model, resp.Error)
			}
			tokens := 0
			if resp.TokensGenerated != nil {
				tokens = *resp.TokensGenerated
			}
			_, err = fmt.Fprintf(out, "%s\n\n(model %s, %d tokens, %.2fs)\n", *resp.Result, resp.Model, tokens, resp.ProcessingTime)
			return err
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8000", "medgemmad base URL")
	cmd.Flags().StringVar(&taskType, "type", "", "Task type: general|clinical_qa|text_analysis|search_enhancement|image_analysis")
	cmd.Flags().StringVar(&clinical, "context", "", "Clinical context prepended to the input")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", engine.DefaultMaxTokens, "Maximum new tokens")
	cmd.Flags().Float64Var(&temperature, "temperature", engine.DefaultTemperature, "Sampling temperature")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Request timeout")
	return cmd
}

func newHealthCmd(out io.Writer) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show the health of a running medgemmad",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := probe.NewClient(url, 10*time.Second).Health(cmd.Context())
			if err != nil {
				return err
			}
			model := "none"
			if h.ModelID != nil {
				model = *h.ModelID
			}
			_, err = fmt.Fprintf(out, "status=%s model_loaded=%t model=%s\n", h.Status, h.ModelLoaded, model)
			return err
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8000", "medgemmad base URL")
	return cmd
}
