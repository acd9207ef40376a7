package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"api-testgen/internal/config"
	"api-testgen/internal/generator"
	"api-testgen/internal/llm"
	"api-testgen/internal/logger"
	"api-testgen/internal/parser"
	"api-testgen/internal/reporter"
	"api-testgen/internal/store"
	"api-testgen/internal/types"
)

const continuationFileName = "continuation_state.json"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "test-connection":
		runTestConnection(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  api-testgen generate -url <base-url> | -spec <file> [-config path] [-resume state.json]")
	fmt.Println("  api-testgen test-connection [-config path]")
}

func runGenerate(args []string) {
	generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
	specURL := generateCmd.String("url", "", "Base URL of the API exposing a swagger/openapi document")
	specFile := generateCmd.String("spec", "", "Path to a local OpenAPI/Swagger document")
	configPath := generateCmd.String("config", "", "Path to the application config file")
	resumePath := generateCmd.String("resume", "", "Path to a continuation state file from a truncated run")
	if err := generateCmd.Parse(args); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	if *specURL == "" && *specFile == "" {
		fmt.Println("Error: either -url or -spec is required")
		generateCmd.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	llmCfg, err := config.LoadLLMConfig(cfg.Generation.LLMConfigPath)
	if err != nil {
		log.Fatalf("Failed to load LLM configuration: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.Output.LogDir)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Close()

	// Parse the API specification into endpoints
	spec, endpoints, err := parseSpec(*specURL, *specFile)
	if err != nil {
		log.Fatalf("Failed to parse API specification: %v", err)
	}
	fmt.Printf("Found %d endpoints in %q\n", len(endpoints), spec.Title)

	testStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open test store: %v", err)
	}
	defer testStore.Close()

	provider, err := llm.NewProvider(llmCfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to create LLM provider: %v", err)
	}

	// Build the session: fresh, or seeded from a saved continuation state.
	var session *generator.Session
	if *resumePath != "" {
		state, err := generator.LoadContinuationState(*resumePath)
		if err != nil {
			log.Fatalf("Failed to load continuation state: %v", err)
		}
		session = generator.NewContinuationSession(state, spec, endpoints)
		fmt.Printf("Resuming generation for %d remaining endpoints\n", len(session.Endpoints))
	} else {
		session = generator.NewSession(spec, endpoints)
	}

	// Ctrl-C is the external cancellation signal; a cancelled run still
	// produces a partial result and a resumable state file.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := generator.NewOrchestrator(provider, appLogger, generator.Hooks{
		OnTestGenerated: func(ctx context.Context, test *types.TestCase) error {
			return testStore.SaveTestCase(ctx, test)
		},
		OnProgress: func(p generator.Progress) {
			fmt.Printf("\rGenerated %d tests (%d/%d endpoints covered)", p.TestsGenerated, p.EndpointsCompleted, p.EndpointsTotal)
		},
	})

	result := orchestrator.GenerateTests(ctx, session)
	fmt.Println()

	if state := result.ContinuationState(spec.ID, provider.Name()); state != nil {
		statePath := filepath.Join(cfg.Output.Dir, continuationFileName)
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
		if err := generator.SaveContinuationState(state, statePath); err != nil {
			log.Fatalf("Failed to save continuation state: %v", err)
		}
		fmt.Printf("Continuation state saved to %s (resume with -resume %s)\n", statePath, statePath)
	}

	reportPath, err := reporter.NewReporter(cfg.Output.Dir).GenerateReport(provider.Name(), spec, result)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Printf("Report written to %s\n", reportPath)

	switch {
	case result.Err == nil:
		fmt.Printf("Generation completed: %d tests persisted\n", len(result.Tests))
	case errors.Is(result.Err, generator.ErrTokenLimitReached):
		fmt.Printf("Generation truncated by the provider's token budget after %d tests\n", len(result.Tests))
	case errors.Is(result.Err, generator.ErrAborted):
		fmt.Printf("Generation aborted after %d tests\n", len(result.Tests))
	default:
		log.Fatalf("Generation failed after %d tests: %v", len(result.Tests), result.Err)
	}
}

func runTestConnection(args []string) {
	connCmd := flag.NewFlagSet("test-connection", flag.ExitOnError)
	configPath := connCmd.String("config", "", "Path to the application config file")
	if err := connCmd.Parse(args); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	llmCfg, err := config.LoadLLMConfig(cfg.Generation.LLMConfigPath)
	if err != nil {
		log.Fatalf("Failed to load LLM configuration: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.Output.LogDir)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Close()

	provider, err := llm.NewProvider(llmCfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to create LLM provider: %v", err)
	}

	result := provider.TestConnection(context.Background())
	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
	if !result.Success {
		os.Exit(1)
	}
}

// parseSpec loads the API specification from a URL or a local file
func parseSpec(specURL, specFile string) (types.Spec, []types.Endpoint, error) {
	swaggerParser := parser.NewSwaggerParser(specURL, 1)
	if specFile != "" {
		data, err := os.ReadFile(specFile)
		if err != nil {
			return types.Spec{}, nil, fmt.Errorf("failed to read spec file: %w", err)
		}
		return swaggerParser.ParseData(data)
	}
	return swaggerParser.ParseEndpoints()
}

// openStore picks the persistence backend from configuration
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "database":
		return store.NewSQLStore(cfg.Storage.Database)
	case "file":
		return store.NewFileStore(cfg.Output.Dir)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}
