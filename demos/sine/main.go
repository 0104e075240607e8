package main

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/llm-d-incubation/homgp/internal/logger"
	"github.com/llm-d-incubation/homgp/pkg/gp"
)

func main() {
	logger.InitLogger()
	defer logger.SyncLogger()

	x := []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2, 2 * math.Pi}
	z := make([]float64, len(x))
	for i, v := range x {
		z[i] = math.Sin(v)
	}

	opts := gp.DefaultFitOptions()
	opts.Lower = []float64{0.1}
	opts.Upper = []float64{10}
	model, err := gp.Fit(gp.Column(x), z, opts)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Printf("theta=%v g=%.3g beta0=%.4f nu=%.4f ll=%.4f\n",
		model.Theta, model.G, model.Beta0, model.NuHat, model.LL)
	fmt.Printf("%s after %d iterations (%s)\n", model.Status, model.NitOpt, model.Msg)

	query := mat.NewDense(3, 1, []float64{math.Pi / 4, math.Pi / 2, 5})
	pred, err := model.Predict(query, nil)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	for i := range pred.Mean {
		fmt.Printf("x=%.4f mean=%.4f sd2=%.3g true=%.4f\n",
			query.At(i, 0), pred.Mean[i], pred.SD2[i], math.Sin(query.At(i, 0)))
	}
}
