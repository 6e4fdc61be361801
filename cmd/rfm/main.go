package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"rfm-segmentation/internal/config"
	"rfm-segmentation/internal/errors"
	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/observability"
	"rfm-segmentation/internal/report"
	"rfm-segmentation/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()

	if err != nil {
		slog.Error("rfm failed", "code", errors.CodeOf(err), "error", err)
		os.Exit(errors.ExitCode(err))
	}
}

type flags struct {
	envFile      string
	input        string
	outputDir    string
	analysisDate string
	binning      string
	campaigns    string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:   "rfm",
		Short: "Segment customers by recency, frequency and monetary value",
		Long: `rfm reads a customer table, scores every customer on recency, frequency and
monetary value, maps the scores to named segments and writes the identifiers of
customers matching each campaign profile to CSV files.

Configuration comes from the environment (optionally a .env file); flags
override it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			logger := observability.NewLogger(cfg.Logger, stderr)
			slog.SetDefault(logger)

			return run(cmd.Context(), cfg, logger, stdout)
		},
	}

	root.PersistentFlags().StringVar(&f.envFile, "env-file", config.DefaultEnvFile, "env file loaded before reading the environment")
	root.Flags().StringVar(&f.input, "input", "", "customer CSV file (INPUT_FILE)")
	root.Flags().StringVar(&f.outputDir, "output-dir", "", "directory for exported files (OUTPUT_DIR)")
	root.Flags().StringVar(&f.analysisDate, "analysis-date", "", "pin the analysis date, YYYY-MM-DD (ANALYSIS_DATE)")
	root.Flags().StringVar(&f.binning, "binning", "", "score binning: quantile or width (SCORE_BINNING)")
	root.Flags().StringVar(&f.campaigns, "campaigns", "", "YAML campaign definitions (CAMPAIGNS_FILE)")

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newRulesCmd())

	return root
}

// loadConfig reads the environment and applies any flags the user set.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return nil, errors.ConfigWrap(err, "load configuration")
	}

	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.Input.CSVFile = f.input
	}
	if changed("output-dir") {
		cfg.Output.Dir = f.outputDir
	}
	if changed("analysis-date") {
		if err := cfg.SetAnalysisDate(f.analysisDate); err != nil {
			return nil, errors.ConfigWrap(err, "invalid --analysis-date")
		}
	}
	if changed("binning") {
		cfg.Analysis.Binning = strings.ToLower(strings.TrimSpace(f.binning))
	}
	if changed("campaigns") {
		cfg.Campaigns.File = f.campaigns
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigWrap(err, "invalid configuration")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	runID := xid.New().String()
	ctx = observability.WithRunID(ctx, runID)
	runLogger := observability.ForRun(ctx, logger)

	runLogger.Info("starting segmentation",
		"input", cfg.Input.CSVFile,
		"output_dir", cfg.Output.Dir,
		"binning", cfg.Analysis.Binning,
	)

	var campaigns []models.Campaign
	if cfg.Campaigns.File != "" {
		var err error
		campaigns, err = config.LoadCampaigns(cfg.Campaigns.File)
		if err != nil {
			return errors.ConfigWrap(err, "load campaigns")
		}
		runLogger.Info("campaigns loaded", "file", cfg.Campaigns.File, "count", len(campaigns))
	}

	seg := services.NewSegmentation(logger, services.Options{
		AnalysisDate: cfg.Analysis.Date,
		OffsetDays:   cfg.Analysis.OffsetDays,
		Binning:      services.Binning(cfg.Analysis.Binning),
		Campaigns:    campaigns,
	})

	if err := seg.LoadFromCSV(ctx, cfg.Input.CSVFile); err != nil {
		return err
	}

	result, err := seg.Run(ctx)
	if err != nil {
		return err
	}

	err = observability.Trace(ctx, runLogger, "export", func(ctx context.Context, span *observability.Span) error {
		written, err := report.Write(ctx, result.Summary, report.Options{
			Dir:         cfg.Output.Dir,
			SummaryJSON: cfg.Output.SummaryJSON,
			HTML:        cfg.Output.HTML,
		})
		span.SetTag("files", strconv.Itoa(len(written)))
		for _, path := range written {
			runLogger.Info("file written", "path", path)
		}
		return err
	})
	if err != nil {
		return err
	}

	if err := report.WriteSummary(stdout, result.Summary, result.TopByMonetary, result.TopByFrequency); err != nil {
		return errors.ExportWrap(err, "write summary")
	}

	runLogger.Info("segmentation finished")
	return nil
}
