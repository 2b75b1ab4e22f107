// File: cmd/fetch_model.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/intellisa/iacsec/internal/config"
	"github.com/intellisa/iacsec/internal/modelcache"
	"github.com/intellisa/iacsec/internal/observability"
	"github.com/intellisa/iacsec/internal/postfilter"
	"github.com/intellisa/iacsec/internal/registry"
)

// newFetchModelCmd creates the `fetch-model` command, which pre-downloads a
// post-filter model so a later scan starts with a warm cache.
func newFetchModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-model [name]",
		Short: "Resolves, downloads, and verifies a post-filter model ahead of a scan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			name := "codet5p-220m"
			if len(args) == 1 {
				name = args[0]
			}

			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("failed to unmarshal config: %w", err)
			}

			reg, err := registry.Load(cfg.Model.RegistryPath)
			if err != nil {
				return &ExitError{Code: 2, Message: "failed to load model registry", Err: err}
			}

			cacheDir, err := cfg.CacheDir()
			if err != nil {
				return &ExitError{Code: 2, Message: "failed to resolve cache dir", Err: err}
			}

			loader := postfilter.NewLoader(reg, modelcache.New(cacheDir, nil, logger), logger)
			handle, err := loader.Load(name)
			if err != nil {
				return &ExitError{Code: 2, Message: fmt.Sprintf("failed to fetch model %q", name), Err: err}
			}

			logger.Info("Model ready",
				zap.String("model", handle.Descriptor()),
				zap.String("framework", handle.Framework),
			)
			fmt.Printf("Model %s ready.\nCached weights at: %s\n", handle.Descriptor(), handle.Path)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newFetchModelCmd())
}
