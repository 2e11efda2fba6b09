package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"rastro/internal/adapters/output"
	_ "rastro/internal/analyzers/all"
	"rastro/internal/analyzers/darkweb"
	"rastro/internal/core/domain"
	"rastro/internal/core/extract"
	"rastro/internal/core/ports"
	"rastro/internal/core/usecases"
	"rastro/internal/platform/config"
	"rastro/internal/platform/httpclient"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/rate"
	"rastro/internal/platform/registry"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <identifier>",
		Short: "Analyze an identifier and pivot through what it reveals",
		Long: `Scan detects the identifier type, runs every applicable analyzer,
pivots into the identifiers those results expose (bounded by --depth)
and correlates the full result set.

Examples:
  # Analyze an IP
  rastro scan 203.0.113.7

  # Analyze an email, pivoting two levels deep, as JSON
  rastro scan --depth 2 --format json ghost@example.com

  # Attach a photo whose EXIF should be analyzed alongside the seed
  rastro scan --attach vacation.jpg ghostuser`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	cmd.Flags().IntP("depth", "d", -1, "Maximum pivot depth (overrides config)")
	cmd.Flags().DurationP("timeout", "t", 0, "Overall run timeout (overrides config)")
	cmd.Flags().StringP("format", "f", "", "Output format: table, json or markdown")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringArrayP("attach", "a", nil, "Image or document file to analyze with the seed (repeatable)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	applyFlags(cmd.Flags(), &cfg)

	logger := logx.New()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logx.LevelDebug)
	}

	seed, companions, err := detectSeed(args[0])
	if err != nil {
		return err
	}

	attachments, err := collectAttachments(cmd)
	if err != nil {
		return err
	}

	engine, closeAll, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer closeAll()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if timeout := cfg.Timeout(); timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := engine.RunAnalysis(ctx, seed, append(companions, attachments...))
	if err != nil {
		return err
	}

	return writeReport(cmd, cfg, report)
}

// applyFlags overlays explicit flag values onto the loaded configuration.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if depth, _ := flags.GetInt("depth"); depth >= 0 {
		cfg.MaxDepth = depth
	}
	if timeout, _ := flags.GetDuration("timeout"); timeout > 0 {
		cfg.TimeoutS = int(timeout / time.Second)
	}
	if format, _ := flags.GetString("format"); format != "" {
		cfg.Format = format
	}
}

// detectSeed extracts every entity from the text and takes the first one as
// the seed; the rest accompany it at depth zero.
func detectSeed(text string) (domain.Entity, []domain.Entity, error) {
	entities := extract.All(text)
	if len(entities) == 0 {
		return domain.Entity{}, nil, fmt.Errorf("no recognizable identifier in %q", text)
	}
	return entities[0], entities[1:], nil
}

// collectAttachments turns --attach paths into artifact entities.
func collectAttachments(cmd *cobra.Command) ([]domain.Entity, error) {
	paths, _ := cmd.Flags().GetStringArray("attach")

	out := make([]domain.Entity, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("attachment %s: %w", path, err)
		}
		out = append(out, domain.Entity{Type: artifactType(path), Value: path})
	}
	return out, nil
}

func artifactType(path string) domain.EntityType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".tiff", ".heic":
		return domain.EntityTypeImage
	default:
		return domain.EntityTypeDocument
	}
}

// buildEngine wires the analyzer set and the engine with their shared
// dependencies.
func buildEngine(cfg config.Config, logger logx.Logger) (*usecases.Engine, func(), error) {
	sharedCfg := httpclient.DefaultConfig()
	sharedCfg.ProxyURL = cfg.ProxyURL
	shared := httpclient.New(sharedCfg, logger)
	limiter := rate.NewAnalystLimiter()

	set, err := registry.Global().Build(cfg.Analyzers, registry.Deps{
		HTTP:    shared,
		Limiter: limiter,
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("no usable analyzers: %w", err)
	}

	var feed ports.Enricher
	if cfg.DarkWeb.Enabled {
		if dwCfg, ok := cfg.Analyzers["darkweb"]; ok && dwCfg.APIKey != "" {
			feed = darkweb.NewEnricher(dwCfg, logger)
		} else {
			logger.Warn("dark web enrichment enabled but no API key configured")
		}
	}

	engine := usecases.NewEngine(usecases.EngineOptions{
		Analyzers: set,
		IntelFeed: feed,
		Logger:    logger,
		MaxDepth:  cfg.MaxDepth,
	})

	return engine, func() {
		if err := set.Close(); err != nil {
			logger.Warn("analyzer shutdown", "error", err.Error())
		}
	}, nil
}

// writeReport renders the report in the configured format and destination.
func writeReport(cmd *cobra.Command, cfg config.Config, report *domain.RunReport) error {
	dest := cmd.OutOrStdout()

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		dest = f
	}

	writer, err := output.ForFormat(cfg.Format, dest)
	if err != nil {
		return err
	}
	return writer.Write(report)
}
