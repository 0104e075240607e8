package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gonum.org/v1/gonum/mat"

	"github.com/llm-d-incubation/homgp/internal/logger"
	"github.com/llm-d-incubation/homgp/pkg/config"
	"github.com/llm-d-incubation/homgp/pkg/gp"
	"github.com/llm-d-incubation/homgp/pkg/manager"
)

// Handlers for REST API calls

// Prediction with its covariance as rows
type PredictionResponse struct {
	*gp.Prediction
	Cov [][]float64 `json:"cov,omitempty"`
}

// Result of a stateless fit and predict
type FitPredictResponse struct {
	Model      gp.Summary         `json:"model"`
	Prediction PredictionResponse `json:"prediction"`
}

func fit(c *gin.Context) {
	name := c.Param("name")
	var spec config.FitSpec
	if err := c.BindJSON(&spec); err != nil {
		return
	}
	spec.SetDefaults()
	e, err := models.Fit(c.Request.Context(), name, &spec)
	if err != nil {
		abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, e.Summary())
}

func getModels(c *gin.Context) {
	entries := models.List()
	summaries := make([]manager.EntrySummary, len(entries))
	for i, e := range entries {
		summaries[i] = e.Summary()
	}
	c.IndentedJSON(http.StatusOK, summaries)
}

func getModel(c *gin.Context) {
	name := c.Param("name")
	e, ok := models.Get(name)
	if !ok {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "model " + name + " not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, e.Summary())
}

func predict(c *gin.Context) {
	name := c.Param("name")
	var spec config.PredictSpec
	if err := c.BindJSON(&spec); err != nil {
		return
	}
	x, xprime, err := queryMatrices(&spec)
	if err != nil {
		abort(c, err)
		return
	}
	p, err := models.Predict(c.Request.Context(), name, x, xprime)
	if err != nil {
		abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, newPredictionResponse(p))
}

func rebuild(c *gin.Context) {
	name := c.Param("name")
	robust, err := strconv.ParseBool(c.DefaultQuery(RobustParam, "false"))
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "invalid " + RobustParam + " value"})
		return
	}
	e, err := models.Rebuild(name, robust)
	if err != nil {
		abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, e.Summary())
}

func strip(c *gin.Context) {
	e, err := models.Strip(c.Param("name"))
	if err != nil {
		abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, e.Summary())
}

func removeModel(c *gin.Context) {
	e, err := models.Remove(c.Request.Context(), c.Param("name"))
	if err != nil {
		abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, e.Summary())
}

func fitPredict(c *gin.Context) {
	var spec config.FitPredictSpec
	if err := c.BindJSON(&spec); err != nil {
		return
	}
	spec.Spec.SetDefaults()
	x, xprime, err := queryMatrices(&spec.PredictSpec)
	if err != nil {
		abort(c, err)
		return
	}
	ctx := c.Request.Context()
	model, err := models.FitModel(ctx, &spec.Spec)
	if err != nil {
		abort(c, err)
		return
	}
	p, err := models.PredictModel(ctx, StatelessModelName, model, x, xprime)
	if err != nil {
		abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, FitPredictResponse{
		Model:      model.Summary(),
		Prediction: newPredictionResponse(p),
	})
}

func queryMatrices(spec *config.PredictSpec) (mat.Matrix, mat.Matrix, error) {
	x, err := gp.NewMatrix(spec.X)
	if err != nil {
		return nil, nil, err
	}
	if len(spec.XPrime) == 0 {
		return x, nil, nil
	}
	xprime, err := gp.NewMatrix(spec.XPrime)
	if err != nil {
		return nil, nil, err
	}
	return x, xprime, nil
}

func newPredictionResponse(p *gp.Prediction) PredictionResponse {
	resp := PredictionResponse{Prediction: p}
	if p.Cov != nil {
		r, _ := p.Cov.Dims()
		resp.Cov = make([][]float64, r)
		for i := range r {
			resp.Cov[i] = mat.Row(nil, i, p.Cov)
		}
	}
	return resp
}

// abort maps an error to its status: unknown models are 404, numerical
// failures 422, everything else a bad request.
func abort(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, manager.ErrModelNotFound):
		status = http.StatusNotFound
	case errors.Is(err, gp.ErrNotPositiveDefinite), errors.Is(err, gp.ErrNoFeasiblePoint),
		errors.Is(err, gp.ErrSingular):
		status = http.StatusUnprocessableEntity
	}
	logger.Log.Warnf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.IndentedJSON(status, gin.H{"message": err.Error()})
}
