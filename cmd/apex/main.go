package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MartinT518/APEX-performance-sub001/pkg/agents"
	"github.com/MartinT518/APEX-performance-sub001/pkg/api"
	"github.com/MartinT518/APEX-performance-sub001/pkg/coach"
	"github.com/MartinT518/APEX-performance-sub001/pkg/config"
	"github.com/MartinT518/APEX-performance-sub001/pkg/observability"
	"github.com/MartinT518/APEX-performance-sub001/pkg/phase"
	"github.com/MartinT518/APEX-performance-sub001/pkg/retry"
	"github.com/MartinT518/APEX-performance-sub001/pkg/rulestore"
	"github.com/MartinT518/APEX-performance-sub001/pkg/snapshot"
	"github.com/MartinT518/APEX-performance-sub001/pkg/substitution"
)

// ANSI colors
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorRed   = "\033[31m"
	ColorGreen = "\033[32m"
	ColorBlue  = "\033[34m"
	ColorCyan  = "\033[36m"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// startServer is swapped out in tests.
var startServer = runServer

// Run dispatches a subcommand and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		return startServer(stdout, stderr)
	}

	switch args[1] {
	case "serve", "server":
		return startServer(stdout, stderr)
	case "decide":
		return runDecideCmd(args[2:], stdout, stderr)
	case "doctor":
		return runDoctorCmd(stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "%sAPEX%s - daily coaching decision engine\n\n", ColorBold+ColorBlue, ColorReset)
	fmt.Fprintln(w, "Usage: apex <command> [options]")
	fmt.Fprintln(w, "")

	printSection(w, "SERVER")
	printCommand(w, "serve", "Start the decision API (default)")

	printSection(w, "EVALUATION")
	printCommand(w, "decide", "Evaluate one day from a JSON request file")

	printSection(w, "UTILITIES")
	printCommand(w, "doctor", "Check rules, phases and snapshot store")
	printCommand(w, "help", "Show this help")
	fmt.Fprintln(w, "")
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s:%s\n", ColorBold+ColorCyan, title, ColorReset)
}

func printCommand(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "  %s%-12s%s %s\n", ColorGreen, name, ColorReset, desc)
}

// runtimeDeps is everything an engine needs besides the request.
type runtimeDeps struct {
	engine    *coach.Engine
	telemetry *observability.Provider
	store     *openedStore
}

func (d *runtimeDeps) Close(ctx context.Context) {
	if d.telemetry != nil {
		_ = d.telemetry.Shutdown(ctx)
	}
	if d.store != nil {
		_ = d.store.Close()
	}
}

// buildEngine wires config -> telemetry -> store -> rules -> phases ->
// thresholds -> engine.
func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runtimeDeps, error) {
	deps := &runtimeDeps{}

	otelCfg := observability.DefaultConfig()
	otelCfg.Enabled = cfg.OTelEnabled
	otelCfg.OTLPEndpoint = cfg.OTelEndpoint
	otelCfg.Insecure = cfg.OTelInsecure
	otelCfg.SnapshotBackend = cfg.SnapshotBackend
	tel, err := observability.New(ctx, otelCfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	deps.telemetry = tel

	st, err := openStore(ctx, cfg)
	if err != nil {
		deps.Close(ctx)
		return nil, fmt.Errorf("snapshot store: %w", err)
	}
	deps.store = st

	table, err := rulestore.LoadConfigured(ctx, rulestore.Config{
		Location: cfg.RulesSource,
		Region:   cfg.AWSRegion,
		Endpoint: cfg.S3Endpoint,
	}, rulesPolicy())
	if err != nil {
		deps.Close(ctx)
		return nil, fmt.Errorf("rules: %w", err)
	}

	cal, err := loadCalendar(cfg.PhasesFile)
	if err != nil {
		deps.Close(ctx)
		return nil, fmt.Errorf("phases: %w", err)
	}

	th, err := config.LoadThresholds(cfg.ThresholdsFile)
	if err != nil {
		deps.Close(ctx)
		return nil, fmt.Errorf("thresholds: %w", err)
	}

	engine, err := coach.New(coach.Options{
		Cache:     snapshot.NewCache(st.Store, coach.SnapshotPolicy(cfg.SnapshotWriteAttempts)),
		Panel:     agents.NewPanel(th),
		Vetoes:    substitution.NewEngine(table),
		Calendar:  cal,
		Telemetry: tel,
		Logger:    logger.With("component", "coach"),
	})
	if err != nil {
		deps.Close(ctx)
		return nil, err
	}
	deps.engine = engine
	return deps, nil
}

func rulesPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.PolicyID = "rules-fetch"
	return p
}

func loadCalendar(path string) (*phase.Calendar, error) {
	if path == "" {
		return phase.Static(phase.DefaultFallback()), nil
	}
	return phase.Load(path)
}

func runServer(stdout, stderr io.Writer) int {
	fmt.Fprintf(stdout, "%sAPEX coach starting...%s\n", ColorBold+ColorBlue, ColorReset)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	logger := observability.NewLogger(stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer deps.Close(context.Background())
	log.Printf("[apex] snapshot store: %s", deps.store.Backend)
	log.Printf("[apex] rules: version %s", deps.engine.RuleVersion())

	limiter := api.NewGlobalRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewServer(deps.engine, logger).Handler(limiter),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(stdout, "Listening on %s%s%s\n", ColorBold+ColorGreen, srv.Addr, ColorReset)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(stderr, "Error: server: %v\n", err)
			return 1
		}
	case <-ctx.Done():
		log.Println("[apex] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(stderr, "Error: shutdown: %v\n", err)
			return 1
		}
	}
	return 0
}

func runDecideCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("decide", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var inputPath, userID, date string
	cmd.StringVar(&inputPath, "input", "", "Path to a daily request JSON file (REQUIRED)")
	cmd.StringVar(&userID, "user", "", "Override the request's user_id")
	cmd.StringVar(&date, "date", "", "Override the request's date (YYYY-MM-DD)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if inputPath == "" {
		fmt.Fprintln(stderr, "Error: --input is required")
		cmd.Usage()
		return 2
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	var req coach.DailyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		fmt.Fprintf(stderr, "Error: parse %s: %v\n", inputPath, err)
		return 2
	}
	if userID != "" {
		req.UserID = userID
	}
	if date != "" {
		req.Date = date
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	logger := observability.NewLogger(stderr, cfg.LogLevel)
	ctx := context.Background()

	deps, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer deps.Close(ctx)

	res, err := deps.engine.Decide(ctx, req)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, coach.ErrInvalidRequest) || errors.Is(err, phase.ErrNoPhase) {
			return 2
		}
		return 1
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Fprintln(stdout, string(out))
	return 0
}
