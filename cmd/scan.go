package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/intellisa/iacsec/api/schemas"
	"github.com/intellisa/iacsec/internal/config"
	"github.com/intellisa/iacsec/internal/detector"
	"github.com/intellisa/iacsec/internal/modelcache"
	"github.com/intellisa/iacsec/internal/observability"
	"github.com/intellisa/iacsec/internal/orchestrator"
	"github.com/intellisa/iacsec/internal/postfilter"
	"github.com/intellisa/iacsec/internal/registry"
	"github.com/intellisa/iacsec/internal/reporting"
)

const defaultRules = "http,weak-crypto,hardcoded-secret,suspicious-comment"

// newScanCmd creates and configures the `scan` command.
func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Runs the detector and post-filter pipeline and exports findings",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so CLI flags override config file
			// and environment values with the right precedence.
			if err := viper.BindPFlag("engine.worker_concurrency", cmd.Flags().Lookup("concurrency")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// 1. Configuration finalization.
			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("failed to unmarshal config with flag overrides: %w", err)
			}

			cfg.Scan = config.ScanConfig{
				Path:         viper.GetString("path"),
				Tech:         strings.ToLower(viper.GetString("tech")),
				Rules:        splitRules(viper.GetString("rules")),
				Postfilter:   viper.GetString("postfilter"),
				Threshold:    viper.GetFloat64("threshold"),
				ThresholdSet: cmd.Flags().Changed("threshold"),
				Formats:      normalizeFormats(viper.GetStringSlice("format")),
				Out:          viper.GetString("out"),
				FailOnHigh:   viper.GetBool("fail_on_high"),
			}

			// Configuration and validation errors are rejected before any
			// work begins: fail fast, no partial output.
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !schemas.Tech(cfg.Scan.Tech).Valid() {
				return fmt.Errorf("unsupported tech %q: choose one of auto, ansible, chef, puppet", cfg.Scan.Tech)
			}
			for _, format := range cfg.Scan.Formats {
				if !reporting.ValidFormat(format) {
					return fmt.Errorf("%w: %q", reporting.ErrUnsupportedFormat, format)
				}
			}

			scanID := uuid.New().String()
			logger.Info("Starting new triage scan",
				zap.String("scanID", scanID),
				zap.String("path", cfg.Scan.Path),
				zap.String("tech", cfg.Scan.Tech),
				zap.Strings("rules", cfg.Scan.Rules),
				zap.String("postfilter", cfg.Scan.Postfilter),
			)

			// 2. Core components.
			orch, err := initializeScanComponents(&cfg, logger)
			if err != nil {
				return &ExitError{Code: 2, Message: "failed to initialize pipeline", Err: err}
			}

			// 3. Pipeline execution.
			summary, err := orch.Run(ctx, scanID)
			if err != nil {
				return &ExitError{Code: 2, Message: "pipeline execution failed", Err: err}
			}

			// 4. Exit decision.
			if n := len(summary.Blocking); n > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("%d blocking finding(s) detected", n)}
			}

			fmt.Println("No blocking findings identified")
			return nil
		},
	}

	scanCmd.Flags().String("path", ".", "Path to scan (file or directory)")
	scanCmd.Flags().String("tech", "auto", "IaC technology: auto, ansible, chef, puppet")
	scanCmd.Flags().String("rules", defaultRules, "Comma-separated rule ids (informational)")
	scanCmd.Flags().String("postfilter", "codet5p-220m", "Post-filter model name from the registry")
	scanCmd.Flags().Float64("threshold", 0, "Override the model's default classification threshold")
	scanCmd.Flags().StringSliceP("format", "f", []string{reporting.FormatSARIF}, "Output format (repeatable): sarif, json, csv, table")
	scanCmd.Flags().StringP("out", "o", "artifacts/iacsec.sarif", "Output path for the SARIF report; other formats derive their suffix")
	scanCmd.Flags().Bool("fail_on_high", false, "Treat only high-severity TPs as blocking findings")
	scanCmd.Flags().IntP("concurrency", "j", 0, "Number of concurrent scoring workers (overrides config/env)")
	scanCmd.Flags().String("detector_bin", "", "Path to the GLITCH detector binary (defaults to PATH lookup)")

	return scanCmd
}

// initializeScanComponents handles dependency injection for a scan run.
func initializeScanComponents(cfg *config.Config, logger *zap.Logger) (*orchestrator.Orchestrator, error) {
	reg, err := registry.Load(cfg.Model.RegistryPath)
	if err != nil {
		return nil, err
	}

	cacheDir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}

	cache := modelcache.New(cacheDir, nil, logger)
	loader := postfilter.NewLoader(reg, cache, logger)
	runner := detector.NewGlitch(viper.GetString("detector_bin"), logger)

	return orchestrator.New(cfg, logger, runner, loader)
}

// splitRules parses the comma-separated rules flag.
func splitRules(raw string) []string {
	var rules []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			rules = append(rules, part)
		}
	}
	return rules
}

// normalizeFormats lowercases and de-duplicates the requested formats.
func normalizeFormats(values []string) []string {
	var formats []string
	seen := make(map[string]bool)
	for _, value := range values {
		format := strings.ToLower(strings.TrimSpace(value))
		if format == "" || seen[format] {
			continue
		}
		seen[format] = true
		formats = append(formats, format)
	}
	return formats
}

func init() {
	rootCmd.AddCommand(newScanCmd())
}
