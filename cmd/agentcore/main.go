// Command agentcore runs a task through the reasoning protocol with the full
// collaborator stack wired: provider adapter, tool registry, runtime guard,
// context manager, metrics, and SQLite tracing.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"agentcore/pkg/config"
	"agentcore/pkg/contextmgr"
	"agentcore/pkg/guard"
	"agentcore/pkg/llm"
	"agentcore/pkg/llm/anthropic"
	"agentcore/pkg/llm/google"
	"agentcore/pkg/llm/ollama"
	"agentcore/pkg/llm/openai"
	"agentcore/pkg/logx"
	"agentcore/pkg/metrics"
	"agentcore/pkg/reasoning"
	"agentcore/pkg/toolloop"
	"agentcore/pkg/tools"
	"agentcore/pkg/trace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agentcore: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "agentcore.yaml", "path to the YAML config file")
	model := flag.String("model", "", "model name (overrides config)")
	secretsPath := flag.String("secrets", "", "path to an encrypted secrets file")
	metricsAddr := flag.String("metrics-addr", "", "listen address for Prometheus metrics (empty disables)")
	flag.Parse()

	task := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if task == "" {
		return fmt.Errorf("usage: agentcore [flags] <task>")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *model != "" {
		cfg.Model.DefaultModel = *model
	}

	secrets, err := loadSecrets(*secretsPath)
	if err != nil {
		return err
	}

	client, err := newClient(cfg.Model.DefaultModel, secrets)
	if err != nil {
		return err
	}

	registry := tools.NewRegistry()
	registry.MustRegister(&tools.ShellTool{})
	registry.MustRegister(&tools.ReadFileTool{})
	registry.MustRegister(&tools.WriteFileTool{})
	registry.MustRegister(&tools.HTTPGetTool{})

	store, err := trace.Open(cfg.Trace.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	recorder := metrics.NewRecorder(nil)
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	enforcer := guard.NewRuntimeEnforcer(guard.Limits{
		AllowedCommands: cfg.Guard.AllowedCommands,
		ReadPaths:       cfg.Guard.ReadPaths,
		WritePaths:      cfg.Guard.WritePaths,
		AllowedHosts:    cfg.Guard.AllowedHosts,
		MaxIterations:   cfg.Guard.MaxIterations,
		MaxDuration:     cfg.Guard.MaxDuration(),
	})
	manager := contextmgr.New(cfg.Model.DefaultModel, cfg.MaxContextTokens)

	loop := toolloop.New(client, registry, toolloop.Config{
		MaxIterations:            cfg.ToolLoop.MaxIterations,
		MaxToolCallsPerIteration: cfg.ToolLoop.MaxToolCallsPerIteration,
		ErrorThreshold:           cfg.ToolLoop.ErrorThreshold,
		EnableDoubleConfirmation: cfg.ToolLoop.EnableDoubleConfirmation,
		LoopDetectionThreshold:   cfg.ToolLoop.LoopDetectionThreshold,
	},
		toolloop.WithGovernance(guard.NewPolicy(nil)),
		toolloop.WithEnforcer(enforcer),
		toolloop.WithLeakScanner(guard.NewLeakScanner()),
		toolloop.WithObserver(store),
		toolloop.WithContextManager(manager),
		toolloop.WithRecorder(recorder),
		toolloop.WithTruncator(manager.TruncateToolOutput),
	)

	protocol := reasoning.New(client, loop, reasoning.Config{
		MaxSteps:             cfg.Reasoning.MaxSteps,
		QualityGateThreshold: cfg.Reasoning.QualityGateThreshold,
		EnableAntiCriteria:   cfg.Reasoning.EnableAntiCriteria,
	}, reasoning.WithRecorder(recorder))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	logx.Infof("starting run %s with model %s", runID, cfg.Model.DefaultModel)

	result, err := protocol.Run(ctx, reasoning.Input{
		TaskInput:   task,
		Model:       cfg.Model.DefaultModel,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	})
	if err != nil {
		return err
	}

	out := map[string]any{
		"run_id":       runID,
		"termination":  result.Termination.String(),
		"total_steps":  result.TotalSteps,
		"reset_count":  result.ResetCount,
		"final_output": result.FinalOutput,
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

// loadSecrets decrypts the secrets file when one is configured, prompting for
// the password on the terminal. Without a file, lookups fall through to the
// environment.
func loadSecrets(path string) (*config.Secrets, error) {
	if path == "" {
		return config.NewSecrets(), nil
	}
	fmt.Fprint(os.Stderr, "Secrets password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return config.LoadEncrypted(path, string(password))
}

// newClient selects the provider adapter by model name.
func newClient(model string, secrets *config.Secrets) (llm.LLMClient, error) {
	switch {
	case strings.HasPrefix(model, "claude"):
		key, err := secrets.Get("ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return anthropic.NewClient(key, model), nil
	case strings.HasPrefix(model, "gpt") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3"):
		key, err := secrets.Get("OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return openai.NewClient(key, model), nil
	case strings.HasPrefix(model, "gemini"):
		key, err := secrets.Get("GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		return google.NewClient(key, model), nil
	default:
		host := os.Getenv("OLLAMA_HOST")
		return ollama.NewClient(host, model), nil
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logx.Warnf("metrics server stopped: %v", err)
	}
}
