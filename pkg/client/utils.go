package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/llm-d-incubation/homgp/internal/constants"
	"github.com/llm-d-incubation/homgp/pkg/config"
	"github.com/llm-d-incubation/homgp/pkg/manager"
	"github.com/llm-d-incubation/homgp/pkg/rest"
	"github.com/llm-d-incubation/homgp/pkg/utils"
)

var ErrRequestFailed = errors.New("request failed")

// Client of a homgp REST server
type Client struct {
	URL  string
	HTTP *http.Client
}

// NewClient addresses the server at HOMGP_HOST:HOMGP_PORT.
func NewClient() *Client {
	var host, port string
	if host = os.Getenv(constants.RestHostEnvName); host == "" {
		host = constants.DefaultRestHost
	}
	if port = os.Getenv(constants.RestPortEnvName); port == "" {
		port = constants.DefaultRestPort
	}
	return &Client{URL: "http://" + host + ":" + port, HTTP: &http.Client{}}
}

// fit a named model on a statefull server
func (c *Client) Fit(name string, spec *config.FitSpec) (*manager.EntrySummary, error) {
	return post(c, FitVerb+"/"+url.PathEscape(name), spec, manager.EntrySummary{})
}

// fit and predict on any server
func (c *Client) FitPredict(spec *config.FitPredictSpec) (*rest.FitPredictResponse, error) {
	return post(c, FitPredictVerb, spec, rest.FitPredictResponse{})
}

// predict from a named model
func (c *Client) Predict(name string, spec *config.PredictSpec) (*rest.PredictionResponse, error) {
	return post(c, PredictVerb+"/"+url.PathEscape(name), spec, rest.PredictionResponse{})
}

func (c *Client) GetModels() (*[]manager.EntrySummary, error) {
	return get(c, ModelsVerb, []manager.EntrySummary{})
}

func (c *Client) GetModel(name string) (*manager.EntrySummary, error) {
	return get(c, ModelVerb+"/"+url.PathEscape(name), manager.EntrySummary{})
}

func (c *Client) RemoveModel(name string) (*manager.EntrySummary, error) {
	return get(c, RemoveVerb+"/"+url.PathEscape(name), manager.EntrySummary{})
}

func (c *Client) Rebuild(name string, robust bool) (*manager.EntrySummary, error) {
	return get(c, fmt.Sprintf("%s/%s?%s=%t", RebuildVerb, url.PathEscape(name), rest.RobustParam, robust),
		manager.EntrySummary{})
}

func (c *Client) Strip(name string) (*manager.EntrySummary, error) {
	return get(c, StripVerb+"/"+url.PathEscape(name), manager.EntrySummary{})
}

// send a POST with a JSON body and decode the reply
func post[T interface{}](c *Client, path string, body any, t T) (*T, error) {
	byteValue, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.URL+"/"+path, bytes.NewBuffer(byteValue))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	return do(c, req, t)
}

func get[T interface{}](c *Client, path string, t T) (*T, error) {
	req, err := http.NewRequest(http.MethodGet, c.URL+"/"+path, nil)
	if err != nil {
		return nil, err
	}
	return do(c, req, t)
}

func do[T interface{}](c *Client, req *http.Request, t T) (*T, error) {
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &msg)
		return nil, fmt.Errorf("%w: %s %s: %s %s", ErrRequestFailed, req.Method, req.URL.Path, res.Status, msg.Message)
	}
	return utils.FromDataToSpec(body, t)
}
