// Package scheduler talks to the dentist scheduling backend.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dentabot/breaker"
	"dentabot/metrics"
	"dentabot/provider"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type Client struct {
	logger  *zap.Logger
	cfg     provider.SchedulerConfig
	http    *http.Client
	breaker *breaker.Breaker
}

func NewClient(logger *zap.Logger, cfg provider.SchedulerConfig, b *breaker.Breaker) *Client {
	return &Client{
		logger:  logger,
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: b,
	}
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.Endpoint, "/") + "/" + path
}

// GetAvailability lists the open time slots, optionally for one location.
func (c *Client) GetAvailability(ctx context.Context, location string) (string, error) {
	target := c.endpoint("availability")
	if location != "" {
		target += "?" + url.Values{"location": {location}}.Encode()
	}
	data, err := c.call(ctx, "availability", http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}

	result := gjson.ParseBytes(data)
	if !result.IsArray() {
		return "", errors.New("scheduler: availability is not a list")
	}
	var slots []string
	for _, slot := range result.Array() {
		if s := strings.TrimSpace(slot.String()); s != "" {
			slots = append(slots, s)
		}
	}
	if len(slots) == 0 {
		return "There are no time slots available right now.", nil
	}
	return "Current time slots available: " + strings.Join(slots, ", "), nil
}

func (c *Client) ScheduleAppointment(ctx context.Context, at string) (string, error) {
	if _, err := c.call(ctx, "schedule", http.MethodPost, c.endpoint("schedule"), map[string]string{"time": at}); err != nil {
		return "", err
	}
	return "An appointment is set for " + at, nil
}

func (c *Client) DeleteAppointment(ctx context.Context, at string) (string, error) {
	if _, err := c.call(ctx, "delete", http.MethodPost, c.endpoint("delete"), map[string]string{"time": at}); err != nil {
		return "", err
	}
	return "Your appointment for " + at + " has been cancelled", nil
}

func (c *Client) call(ctx context.Context, op string, method string, target string, payload interface{}) (data []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveCollaborator("scheduler_"+op, start, err)
		if err != nil {
			c.logger.Error("scheduler", zap.String("op", op), zap.NamedError("err", err))
		}
	}()

	return breaker.Do(c.breaker, func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			b, err := json.Marshal(payload)
			if err != nil {
				return nil, err
			}
			body = bytes.NewReader(b)
		}
		request, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, errors.Wrap(err, "new request")
		}
		if payload != nil {
			request.Header.Set("content-type", "application/json")
		}
		request.Header.Set("accept", "application/json")
		request.Header.Set("x-ms-client-request-id", uuid.New().String())

		response, err := c.http.Do(request)
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		defer response.Body.Close()

		data, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, errors.Wrap(err, "read body")
		}
		if response.StatusCode < 200 || response.StatusCode > 299 {
			return nil, errors.Errorf("scheduler: %s returned status %d: %s", op, response.StatusCode, strings.TrimSpace(string(data)))
		}
		return data, nil
	})
}
