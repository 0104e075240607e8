package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llm-d-incubation/homgp/pkg/config"
	"github.com/llm-d-incubation/homgp/pkg/gp"
)

func newFitCmd() *cobra.Command {
	var configPath, outPath string
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a model from a YAML or JSON specification",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := config.LoadFitSpec(configPath)
			if err != nil {
				return err
			}
			m, err := gp.FitFromSpec(spec)
			if err != nil {
				return fmt.Errorf("fit: %w", err)
			}
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				if err := gp.Save(f, m); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m.Summary())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "fit specification file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the fitted model to this file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
