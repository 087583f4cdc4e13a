// Package luis classifies utterances with a LUIS v3 prediction endpoint.
package luis

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dentabot/breaker"
	"dentabot/dialog"
	"dentabot/metrics"
	"dentabot/provider"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized    = errors.New("luis: authentication failed")
	ErrInvalidResponse = errors.New("luis: invalid response")
)

type Client struct {
	logger  *zap.Logger
	cfg     provider.LuisConfig
	http    *http.Client
	breaker *breaker.Breaker
}

func NewClient(logger *zap.Logger, cfg provider.LuisConfig, b *breaker.Breaker) *Client {
	return &Client{
		logger:  logger,
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: b,
	}
}

func (c *Client) predictURL(utterance string) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.cfg.Endpoint, "/"))
	if err != nil {
		return "", err
	}
	u.Path += "/luis/prediction/v3.0/apps/" + url.PathEscape(c.cfg.AppId) +
		"/slots/" + url.PathEscape(c.cfg.Slot) + "/predict"
	q := u.Query()
	q.Set("query", utterance)
	q.Set("show-all-intents", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) Classify(ctx context.Context, utterance string) (result dialog.ClassificationResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveCollaborator("luis", start, err) }()

	return breaker.Do(c.breaker, func() (dialog.ClassificationResult, error) {
		return c.predict(ctx, utterance)
	})
}

func (c *Client) predict(ctx context.Context, utterance string) (dialog.ClassificationResult, error) {
	target, err := c.predictURL(utterance)
	if err != nil {
		return dialog.ClassificationResult{}, errors.Wrap(err, "build url")
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return dialog.ClassificationResult{}, errors.Wrap(err, "new request")
	}
	request.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.ApiKey)
	request.Header.Set("accept", "application/json")
	request.Header.Set("x-ms-client-request-id", uuid.New().String())

	response, err := c.http.Do(request)
	if err != nil {
		return dialog.ClassificationResult{}, errors.Wrap(err, "predict")
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		return dialog.ClassificationResult{}, ErrUnauthorized
	}
	if response.StatusCode != http.StatusOK {
		return dialog.ClassificationResult{}, errors.Errorf("luis: unexpected status %d", response.StatusCode)
	}
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return dialog.ClassificationResult{}, errors.Wrap(err, "read body")
	}

	result, err := Parse(data)
	if err != nil {
		return dialog.ClassificationResult{}, err
	}
	c.logger.Debug("classified",
		zap.String("topIntent", result.TopIntent),
		zap.Float64("score", result.Score(result.TopIntent)),
		zap.Any("entities", result.Entities),
	)
	return result, nil
}

// Parse normalizes a v3 prediction response. Entity spans come from
// prediction.entities.$instance, falling back to plain string values.
func Parse(data []byte) (dialog.ClassificationResult, error) {
	if !gjson.ValidBytes(data) {
		return dialog.ClassificationResult{}, ErrInvalidResponse
	}
	prediction := gjson.GetBytes(data, "prediction")
	if !prediction.Exists() {
		return dialog.ClassificationResult{}, errors.Wrap(ErrInvalidResponse, "missing prediction")
	}

	result := dialog.ClassificationResult{
		TopIntent:    prediction.Get("topIntent").String(),
		IntentScores: map[string]float64{},
		Entities:     map[string][]string{},
	}

	prediction.Get("intents").ForEach(func(name, intent gjson.Result) bool {
		result.IntentScores[name.String()] = intent.Get("score").Float()
		return true
	})

	entities := prediction.Get("entities")
	entities.Get("$instance").ForEach(func(slot, spans gjson.Result) bool {
		for _, span := range spans.Array() {
			if text := span.Get("text").String(); text != "" {
				result.Entities[slot.String()] = append(result.Entities[slot.String()], text)
			}
		}
		return true
	})
	entities.ForEach(func(slot, values gjson.Result) bool {
		name := slot.String()
		if name == "$instance" || len(result.Entities[name]) > 0 {
			return true
		}
		for _, v := range values.Array() {
			if v.Type == gjson.String && v.String() != "" {
				result.Entities[name] = append(result.Entities[name], v.String())
			}
		}
		return true
	})
	return result, nil
}
