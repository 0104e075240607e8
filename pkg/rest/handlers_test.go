package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/llm-d-incubation/homgp/pkg/manager"
)

const fitBody = `{
  "data": {"x": [[0], [1], [2], [3], [4], [2]], "z": [0, 0.84, 0.91, 0.14, -0.76, 0.95]},
  "known": {"theta": [2], "g": 0.01}
}`

func call(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](rec *httptest.ResponseRecorder) T {
	var out T
	ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
	return out
}

var _ = Describe("StateFullServer", func() {
	var h http.Handler

	BeforeEach(func() {
		h = NewStateFullServer().Handler()
	})

	It("fits, predicts and lists a model", func() {
		rec := call(h, http.MethodPost, "/fit/sine", fitBody)
		Expect(rec.Code).To(Equal(http.StatusOK))
		entry := decode[manager.EntrySummary](rec)
		Expect(entry.Name).To(Equal("sine"))
		Expect(entry.ID).NotTo(BeEmpty())
		Expect(entry.Summary.Unique).To(Equal(5))
		Expect(entry.Summary.N).To(Equal(6))
		Expect(entry.Summary.HasKi).To(BeTrue())

		rec = call(h, http.MethodPost, "/predict/sine", `{"x": [[0.5], [2.5]], "xprime": [[1], [2], [3]]}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		pred := decode[struct {
			Mean []float64   `json:"mean"`
			SD2  []float64   `json:"sd2"`
			Nugs []float64   `json:"nugs"`
			Cov  [][]float64 `json:"cov"`
		}](rec)
		Expect(pred.Mean).To(HaveLen(2))
		Expect(pred.SD2).To(HaveLen(2))
		Expect(pred.Nugs).To(HaveLen(2))
		Expect(pred.Cov).To(HaveLen(2))
		Expect(pred.Cov[0]).To(HaveLen(3))

		rec = call(h, http.MethodGet, "/getModels", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode[[]manager.EntrySummary](rec)).To(HaveLen(1))

		rec = call(h, http.MethodGet, "/getModel/sine", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("strips and rebuilds the inverse covariance", func() {
		Expect(call(h, http.MethodPost, "/fit/sine", fitBody).Code).To(Equal(http.StatusOK))

		rec := call(h, http.MethodGet, "/strip/sine", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode[manager.EntrySummary](rec).Summary.HasKi).To(BeFalse())

		rec = call(h, http.MethodGet, "/rebuild/sine?robust=true", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode[manager.EntrySummary](rec).Summary.HasKi).To(BeTrue())

		Expect(call(h, http.MethodGet, "/rebuild/sine?robust=maybe", "").Code).To(Equal(http.StatusBadRequest))
	})

	It("removes a model", func() {
		Expect(call(h, http.MethodPost, "/fit/sine", fitBody).Code).To(Equal(http.StatusOK))
		Expect(call(h, http.MethodGet, "/removeModel/sine", "").Code).To(Equal(http.StatusOK))
		Expect(call(h, http.MethodGet, "/getModel/sine", "").Code).To(Equal(http.StatusNotFound))
		Expect(call(h, http.MethodGet, "/removeModel/sine", "").Code).To(Equal(http.StatusNotFound))
	})

	It("reports unknown models", func() {
		rec := call(h, http.MethodGet, "/getModel/missing", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring("model missing not found"))

		Expect(call(h, http.MethodPost, "/predict/missing", `{"x": [[1]]}`).Code).To(Equal(http.StatusNotFound))
		Expect(call(h, http.MethodGet, "/strip/missing", "").Code).To(Equal(http.StatusNotFound))
	})

	It("rejects invalid requests", func() {
		Expect(call(h, http.MethodPost, "/fit/bad", `{"data": {"x": [[0], [1]], "z": [1]}}`).Code).
			To(Equal(http.StatusBadRequest))
		Expect(call(h, http.MethodPost, "/fit/bad", `{"data": `).Code).To(Equal(http.StatusBadRequest))

		Expect(call(h, http.MethodPost, "/fit/sine", fitBody).Code).To(Equal(http.StatusOK))
		Expect(call(h, http.MethodPost, "/predict/sine", `{"x": [[1, 2]]}`).Code).To(Equal(http.StatusBadRequest))
		Expect(call(h, http.MethodPost, "/predict/sine", `{"x": []}`).Code).To(Equal(http.StatusBadRequest))
	})

	It("serves metrics", func() {
		Expect(call(h, http.MethodPost, "/fit/sine", fitBody).Code).To(Equal(http.StatusOK))
		Expect(call(h, http.MethodPost, "/predict/sine", `{"x": [[0.5]]}`).Code).To(Equal(http.StatusOK))

		rec := call(h, http.MethodGet, "/metrics", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`homgp_fits_total{cov_type="Gaussian",outcome="fixed",trend_type="OK"} 1`))
		Expect(rec.Body.String()).To(ContainSubstring(`homgp_predictions_total{model_name="sine"} 1`))
		Expect(rec.Body.String()).To(ContainSubstring("homgp_models 1"))
	})
})

var _ = Describe("StateLessServer", func() {
	var h http.Handler

	BeforeEach(func() {
		h = NewStateLessServer().Handler()
	})

	It("fits and predicts in one call", func() {
		rec := call(h, http.MethodPost, "/fitPredict", `{"spec": `+fitBody+`, "x": [[0.5], [1.5], [2.5]]}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		resp := decode[struct {
			Model struct {
				Status string `json:"status"`
			} `json:"model"`
			Prediction struct {
				Mean []float64 `json:"mean"`
			} `json:"prediction"`
		}](rec)
		Expect(resp.Model.Status).To(Equal("fixed"))
		Expect(resp.Prediction.Mean).To(HaveLen(3))
	})

	It("keeps no models", func() {
		Expect(call(h, http.MethodGet, "/getModels", "").Code).To(Equal(http.StatusNotFound))
	})
})
