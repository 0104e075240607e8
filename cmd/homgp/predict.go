package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/llm-d-incubation/homgp/pkg/config"
	"github.com/llm-d-incubation/homgp/pkg/gp"
	"github.com/llm-d-incubation/homgp/pkg/utils"
)

type predictOutput struct {
	Mean []float64   `json:"mean"`
	SD2  []float64   `json:"sd2"`
	Nugs []float64   `json:"nugs"`
	Cov  [][]float64 `json:"cov,omitempty"`
}

func newPredictCmd() *cobra.Command {
	var modelPath, xArg, xprimeArg string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict from a saved model",
		Long: `Predict from a model written by "homgp fit --out". Query rows are separated
by ';' and columns by ',', e.g. --x "0.5,1;2,3".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(modelPath)
			if err != nil {
				return err
			}
			m, err := gp.Load(f)
			f.Close()
			if err != nil {
				return err
			}
			x, err := parseMatrix(xArg)
			if err != nil {
				return err
			}
			var xprime *mat.Dense
			if xprimeArg != "" {
				if xprime, err = parseMatrix(xprimeArg); err != nil {
					return err
				}
			}
			var p *gp.Prediction
			if xprime != nil {
				p, err = m.Predict(x, xprime)
			} else {
				p, err = m.Predict(x, nil)
			}
			if err != nil {
				return err
			}
			out := predictOutput{Mean: p.Mean, SD2: p.SD2, Nugs: p.Nugs}
			if p.Cov != nil {
				r, _ := p.Cov.Dims()
				for i := range r {
					out.Cov = append(out.Cov, mat.Row(nil, i, p.Cov))
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "saved model file")
	cmd.Flags().StringVar(&xArg, "x", "", "query rows")
	cmd.Flags().StringVar(&xprimeArg, "xprime", "", "rows for the posterior covariance with x")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("x")
	return cmd
}

func parseMatrix(s string) (*mat.Dense, error) {
	rows, err := utils.ParseRows(s, config.RowSeparator, config.ColumnSeparator)
	if err != nil {
		return nil, err
	}
	return gp.NewMatrix(rows)
}
