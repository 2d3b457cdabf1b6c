package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errx "github.com/maleon-core-poc/server/internal/core/error"
)

// GrowthFeatures are the five inputs of the growth-potential model.
type GrowthFeatures struct {
	Code         string
	Municipality string
	V1           float64
	V2           float64
	V3           float64
}

// Classifier predicts a discrete growth-potential label.
type Classifier interface {
	Predict(ctx context.Context, f GrowthFeatures) (string, error)
}

// HTTPClassifier calls a model server hosting the pre-trained growth model.
// Request body: {"instances": [[code, municipality, v1, v2, v3]]}.
// Response body: {"predictions": [label]}.
type HTTPClassifier struct {
	URL  string
	HTTP *http.Client
}

func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{URL: url, HTTP: &http.Client{Timeout: timeout}}
}

type predictRequest struct {
	Instances [][]any `json:"instances"`
}

type predictResponse struct {
	Predictions []any `json:"predictions"`
}

func (c *HTTPClassifier) Predict(ctx context.Context, f GrowthFeatures) (string, error) {
	if c.URL == "" {
		return "", errx.WrapUpstream("classifier", fmt.Errorf("no model server configured"))
	}
	body, err := json.Marshal(predictRequest{
		Instances: [][]any{{f.Code, f.Municipality, f.V1, f.V2, f.V3}},
	})
	if err != nil {
		return "", fmt.Errorf("encode prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errx.WrapUpstream("classifier", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errx.WrapUpstream("classifier", fmt.Errorf("status %d: %s", resp.StatusCode, snippet))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errx.WrapUpstream("classifier", fmt.Errorf("decode prediction: %w", err))
	}
	if len(out.Predictions) == 0 {
		return "", errx.WrapUpstream("classifier", fmt.Errorf("empty prediction"))
	}
	return labelOf(out.Predictions[0]), nil
}

// labelOf flattens the label; some exports wrap it in a one-element array.
func labelOf(v any) string {
	if arr, ok := v.([]any); ok && len(arr) > 0 {
		return labelOf(arr[0])
	}
	return fmt.Sprint(v)
}

var _ Classifier = (*HTTPClassifier)(nil)
