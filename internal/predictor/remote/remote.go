// Package remote delegates fitting and prediction to a model server over HTTP.
//
// Fit uploads the train and validation sets as back-to-back XDR records
// (train first, then val) to FitURL when it is set. Predict posts the test
// inputs as JSON:
//
//	{"stepsIn": 24, "stepsOut": 12, "features": 5, "inputs": [[...], ...]}
//
// and expects {"predictions": [[...], ...]} with one row per sample.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/httputil"
	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/window"
	"gonum.org/v1/gonum/mat"
)

const (
	contentTypeJSON = "application/json"
	contentTypeXDR  = "application/x-xdr"
	maxBodyBytes    = 64 * 1024 * 1024
)

var _ predictor.Predictor = (*Remote)(nil)

type PredictRequest struct {
	StepsIn  int         `json:"stepsIn"`
	StepsOut int         `json:"stepsOut"`
	Features int         `json:"features"`
	Inputs   [][]float64 `json:"inputs"`
}

type PredictResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

func New(cfg *Config) (*Remote, error) {
	if cfg.PredictURL == "" {
		return nil, dataerr.InvalidConfig("predictURL", cfg.PredictURL, "must be set for the remote predictor")
	}
	client, err := httputil.NewClientFromConfig(cfg.HTTPClientConfig(), cfg.RequestTimeout, false)
	if err != nil {
		return nil, fmt.Errorf("remote predictor: %w", err)
	}
	return &Remote{cfg: cfg, client: client}, nil
}

type Remote struct {
	cfg    *Config
	client *http.Client
}

func (r *Remote) Name() string {
	return "remote"
}

func (r *Remote) Fit(ctx context.Context, train, val *window.SampleSet) error {
	if train.Len() == 0 {
		return fmt.Errorf("remote fit: %w", dataerr.ErrEmptySampleSet)
	}
	if r.cfg.FitURL == "" {
		logging.FromContext(ctx).Debugf("remote fit: no fit url, model server is assumed trained")
		return nil
	}

	var buf bytes.Buffer
	if err := window.Encode(&buf, train); err != nil {
		return fmt.Errorf("remote fit: encode train: %w", err)
	}
	if val != nil {
		if err := window.Encode(&buf, val); err != nil {
			return fmt.Errorf("remote fit: encode val: %w", err)
		}
	}
	resp, err := r.post(ctx, r.cfg.FitURL, contentTypeXDR, &buf)
	if err != nil {
		return fmt.Errorf("remote fit: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(ioutil.Discard, resp.Body)
	return nil
}

func (r *Remote) Predict(ctx context.Context, test *window.SampleSet) (*mat.Dense, error) {
	if test.Len() == 0 {
		return nil, fmt.Errorf("remote predict: %w", dataerr.ErrEmptySampleSet)
	}
	flat := test.FlatInputs()
	req := PredictRequest{
		StepsIn:  test.StepsIn(),
		StepsOut: test.StepsOut(),
		Features: test.FeatureCount(),
		Inputs:   make([][]float64, test.Len()),
	}
	for i := range req.Inputs {
		req.Inputs[i] = mat.Row(nil, i, flat)
	}
	b, err := json.Marshal(&req)
	if err != nil {
		return nil, fmt.Errorf("remote predict: marshal request: %w", err)
	}

	resp, err := r.post(ctx, r.cfg.PredictURL, contentTypeJSON, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("remote predict: %w", err)
	}
	defer resp.Body.Close()

	var out PredictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("remote predict: decode response: %w", err)
	}
	return toDense(out.Predictions, test.Len(), test.StepsOut())
}

func (r *Remote) post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error with sending request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("model server responded %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return resp, nil
}

// toDense checks the rows returned by the model server against the expected
// numSamples x nOut shape without truncating or padding.
func toDense(rows [][]float64, n, nOut int) (*mat.Dense, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	if len(rows) != n || cols != nOut {
		return nil, &dataerr.ShapeMismatchError{Expected: []int{n, nOut}, Actual: []int{len(rows), cols}}
	}
	out := mat.NewDense(n, nOut, nil)
	for i, row := range rows {
		if len(row) != nOut {
			return nil, &dataerr.ShapeMismatchError{Expected: []int{n, nOut}, Actual: []int{len(rows), len(row)}}
		}
		out.SetRow(i, row)
	}
	return out, nil
}
