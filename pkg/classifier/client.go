package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rniirs/news-harvester/pkg/httpclient"
)

// Prediction is the classifier response payload.
type Prediction struct {
	Label      string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// Client predicts a category label for a piece of text.
type Client interface {
	Predict(ctx context.Context, text string) (Prediction, error)
}

// HTTPClient talks to the classifier prediction endpoint.
type HTTPClient struct {
	endpoint string
	client   *resty.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a classifier client; timeout bounds every Predict call.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint: strings.TrimSpace(endpoint),
		client:   httpclient.NewRestyJSONClient(timeout),
	}
}

// Predict posts {"text": text} and decodes {"prediction", "confidence"}.
func (c *HTTPClient) Predict(ctx context.Context, text string) (Prediction, error) {
	if c == nil || c.endpoint == "" {
		return Prediction{}, errors.New("classifier endpoint is not configured")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		Post(c.endpoint)
	if err != nil {
		return Prediction{}, fmt.Errorf("classifier request: %w", err)
	}
	if resp.IsError() {
		return Prediction{}, fmt.Errorf("classifier response status %d", resp.StatusCode())
	}

	var pred Prediction
	if err := json.Unmarshal(resp.Body(), &pred); err != nil {
		return Prediction{}, fmt.Errorf("decode classifier response: %w", err)
	}
	pred.Label = strings.TrimSpace(pred.Label)
	if pred.Label == "" {
		return Prediction{}, errors.New("classifier returned an empty prediction")
	}
	return pred, nil
}
