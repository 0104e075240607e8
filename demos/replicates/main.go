package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/llm-d-incubation/homgp/internal/logger"
	"github.com/llm-d-incubation/homgp/pkg/gp"
)

func main() {
	logger.InitLogger()
	defer logger.SyncLogger()

	// 20 sites with 1 to 10 noisy replicates each
	rng := rand.New(rand.NewPCG(1, 2))
	var x, z []float64
	for i := range 20 {
		site := float64(i) / 19
		for range 1 + rng.IntN(10) {
			x = append(x, site)
			z = append(z, truth(site)+0.1*rng.NormFloat64())
		}
	}

	opts := gp.DefaultFitOptions()
	opts.Lower = []float64{0.1}
	opts.Upper = []float64{5}
	model, err := gp.Fit(gp.Column(x), z, opts)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	s := model.Summary()
	fmt.Printf("%d observations at %d sites\n", s.N, s.Unique)
	fmt.Printf("theta=%v g=%.4g nu=%.4g noise var=%.4g (true 0.01)\n",
		model.Theta, model.G, model.NuHat, model.NuHat*model.G)
	fmt.Printf("%s after %d iterations, %s\n", model.Status, model.NitOpt, model.Time)

	grid := mat.NewDense(11, 1, nil)
	for i := range 11 {
		grid.Set(i, 0, float64(i)/10)
	}
	pred, err := model.Predict(grid, nil)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	for i := range pred.Mean {
		v := grid.At(i, 0)
		fmt.Printf("x=%.1f mean=%+.4f sd=%.4f true=%+.4f\n", v, pred.Mean[i], math.Sqrt(pred.SD2[i]), truth(v))
	}
}

func truth(x float64) float64 {
	return math.Sin(2*math.Pi*x) + 0.5*x
}
