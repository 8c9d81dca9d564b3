package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/portrait-gen-go/internal/app"
	"github.com/kapu/portrait-gen-go/internal/capability"
	"github.com/kapu/portrait-gen-go/internal/config"
	"github.com/kapu/portrait-gen-go/internal/domain"
	"github.com/kapu/portrait-gen-go/internal/util"
)

func main() {
	subject := flag.String("subject", "", "subject name to generate portraits for")
	batchFile := flag.String("batch", "", "file with one subject name per line")
	stylesFlag := flag.String("styles", "", "comma-separated styles (default: configured styles)")
	force := flag.Bool("force", false, "regenerate even if outputs exist")
	listModels := flag.Bool("list-models", false, "list known models and exit")
	flag.Parse()

	if *listModels {
		for _, name := range capability.ListModels() {
			marker := " "
			if name == capability.RecommendedModel() {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return
	}

	if *subject == "" && *batchFile == "" {
		fmt.Fprintln(os.Stderr, "either -subject or -batch is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Portrait generator starting...",
		zap.String("model", cfg.Gemini.Model),
		zap.String("output_dir", cfg.Output.Dir),
	)

	styles, err := resolveStyles(*stylesFlag, cfg)
	if err != nil {
		logger.Error("Invalid styles", zap.Error(err))
		os.Exit(2)
	}

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble pipeline", zap.Error(err))
		os.Exit(1)
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	subjects, err := resolveSubjects(*subject, *batchFile)
	if err != nil {
		logger.Error("Could not read subjects", zap.Error(err))
		os.Exit(1)
	}

	results := container.Orchestrator.GenerateBatch(ctx, subjects, styles, *force)

	failures := 0
	for _, result := range results {
		if !result.Success {
			failures++
		}
		printResult(result)
	}

	logger.Info("Done",
		zap.Int("subjects", len(results)),
		zap.Int("failures", failures),
	)
	if failures > 0 {
		os.Exit(1)
	}
}

func resolveStyles(flagValue string, cfg *config.Config) ([]domain.Style, error) {
	names := cfg.Output.Styles
	if flagValue != "" {
		names = strings.Split(flagValue, ",")
	}

	styles := make([]domain.Style, 0, len(names))
	for _, name := range names {
		style, ok := domain.ParseStyle(name)
		if !ok {
			return nil, fmt.Errorf("unknown style %q", name)
		}
		styles = append(styles, style)
	}
	return styles, nil
}

func resolveSubjects(subject, batchFile string) ([]string, error) {
	if subject != "" {
		return []string{subject}, nil
	}

	file, err := os.Open(batchFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var subjects []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		subjects = append(subjects, line)
	}
	return subjects, scanner.Err()
}

func printResult(result *domain.PortraitResult) {
	status := "OK"
	if !result.Success {
		status = "FAILED"
	}
	fmt.Printf("%-7s %s (%s)\n", status, result.Subject, util.FormatElapsed(result.Elapsed))

	for style, path := range result.Files {
		verdict := ""
		if eval, ok := result.Evaluations[style]; ok {
			if eval.Passed {
				verdict = "passed"
			} else {
				verdict = "below threshold"
			}
		}
		fmt.Printf("        %-9s %s  %s\n", style, path, verdict)
	}
	for _, msg := range result.Errors {
		fmt.Printf("        error: %s\n", msg)
	}
}
