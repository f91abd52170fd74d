package detection

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	json "github.com/goccy/go-json"
	"icd/internal/models"
	"icd/internal/providers"
	"icd/internal/structures"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSize = 4 << 20 // 4 MB

var ErrMalformedPrediction = errors.New("malformed prediction")

// DetectorInterface classifies one image.
type DetectorInterface interface {
	Detect(ctx context.Context, image []byte) (models.DetectionResult, error)
}

// HTTPDetector calls a hosted object-detection endpoint that takes a base64
// encoded image body and answers with {"predictions": [...]}.
type HTTPDetector struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     providers.Logger
}

type prediction struct {
	Class      *string  `json:"class"`
	Confidence *float64 `json:"confidence"`
}

type predictionResponse struct {
	Predictions []prediction `json:"predictions"`
}

func NewHTTPDetector(conf *structures.Config, logger providers.Logger) DetectorInterface {
	timeout := conf.Detector.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDetector{
		endpoint:   conf.Detector.URL,
		apiKey:     conf.Detector.ApiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (d *HTTPDetector) Detect(ctx context.Context, image []byte) (models.DetectionResult, error) {
	target, err := d.requestURL()
	if err != nil {
		return nil, err
	}

	body := base64.StdEncoding.EncodeToString(image)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read detector response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("detector returned status %d: %s", resp.StatusCode, truncate(string(payload), 200))
	}

	var decoded predictionResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode detector response: %w", err)
	}

	result, err := toDetections(decoded.Predictions)
	if err != nil {
		return nil, err
	}
	d.logger.Debugf(providers.TypePost, "Detector answered with %d predictions in %s", len(result), time.Since(start))
	return result, nil
}

func (d *HTTPDetector) requestURL() (string, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid detector url: %w", err)
	}
	if d.apiKey != "" {
		q := u.Query()
		q.Set("api_key", d.apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// toDetections rejects entries the counting step cannot interpret.
func toDetections(predictions []prediction) (models.DetectionResult, error) {
	result := make(models.DetectionResult, 0, len(predictions))
	for i, p := range predictions {
		if p.Class == nil || *p.Class == "" {
			return nil, fmt.Errorf("%w: prediction %d has no class", ErrMalformedPrediction, i)
		}
		if p.Confidence == nil {
			return nil, fmt.Errorf("%w: prediction %d has no confidence", ErrMalformedPrediction, i)
		}
		if c := *p.Confidence; c < 0 || c > 1 {
			return nil, fmt.Errorf("%w: prediction %d confidence %v outside [0,1]", ErrMalformedPrediction, i, c)
		}
		result = append(result, models.Detection{Label: *p.Class, Confidence: *p.Confidence})
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
