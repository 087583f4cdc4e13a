// Package qna answers free-form questions from a QnA Maker knowledge base.
package qna

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
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

var ErrInvalidResponse = errors.New("qna: invalid response")

type Client struct {
	logger  *zap.Logger
	cfg     provider.QnAConfig
	http    *http.Client
	breaker *breaker.Breaker
}

func NewClient(logger *zap.Logger, cfg provider.QnAConfig, b *breaker.Breaker) *Client {
	if cfg.Top <= 0 {
		cfg.Top = 1
	}
	return &Client{
		logger:  logger,
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: b,
	}
}

func (c *Client) Answer(ctx context.Context, utterance string) (answers []dialog.QnaAnswer, err error) {
	start := time.Now()
	defer func() { metrics.ObserveCollaborator("qna", start, err) }()

	return breaker.Do(c.breaker, func() ([]dialog.QnaAnswer, error) {
		return c.generateAnswer(ctx, utterance)
	})
}

func (c *Client) generateAnswer(ctx context.Context, utterance string) ([]dialog.QnaAnswer, error) {
	body, err := json.Marshal(map[string]interface{}{
		"question": utterance,
		"top":      c.cfg.Top,
	})
	if err != nil {
		return nil, err
	}

	target := strings.TrimRight(c.cfg.Endpoint, "/") + "/qnamaker/knowledgebases/" + c.cfg.KnowledgeBase + "/generateAnswer"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	request.Header.Set("Authorization", "EndpointKey "+c.cfg.EndpointKey)
	request.Header.Set("content-type", "application/json")
	request.Header.Set("x-ms-client-request-id", uuid.New().String())

	response, err := c.http.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "generate answer")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, errors.Errorf("qna: unexpected status %d", response.StatusCode)
	}
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	answers, err := Parse(data, c.cfg.ScoreThreshold)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("answered", zap.Int("answers", len(answers)))
	return answers, nil
}

// Parse normalizes a generateAnswer response. Scores are scaled to [0,1],
// answers at or below threshold are dropped and the rest ranked best first.
func Parse(data []byte, threshold float64) ([]dialog.QnaAnswer, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidResponse
	}
	list := gjson.GetBytes(data, "answers")
	if !list.IsArray() {
		return nil, errors.Wrap(ErrInvalidResponse, "missing answers")
	}

	answers := make([]dialog.QnaAnswer, 0)
	for _, item := range list.Array() {
		answer := dialog.QnaAnswer{
			Answer: item.Get("answer").String(),
			Score:  item.Get("score").Float() / 100,
		}
		if answer.Answer == "" || answer.Score <= threshold {
			continue
		}
		answers = append(answers, answer)
	}
	sort.SliceStable(answers, func(i, j int) bool {
		return answers[i].Score > answers[j].Score
	})
	return answers, nil
}
