package main

import (
	"github.com/spf13/cobra"

	"github.com/llm-d-incubation/homgp/internal/logger"
)

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:          "homgp",
		Short:        "homgp - Gaussian process surrogates with homoskedastic noise",
		Long:         `homgp fits Gaussian process surrogates to replicated designs by maximum likelihood and predicts from them.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				logger.SetLevel(logLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.AddCommand(newFitCmd(), newPredictCmd(), newServeCmd())
	return root
}
