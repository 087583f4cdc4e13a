package qna

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dentabot/breaker"
	"dentabot/provider"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParse(t *testing.T) {
	data := `{"answers": [
		{"questions": ["q2"], "answer": "Second", "score": 45.5, "id": 2},
		{"questions": ["q1"], "answer": "We accept most insurance plans.", "score": 92.1, "id": 1},
		{"questions": ["q3"], "answer": "Weak", "score": 12.0, "id": 3}
	]}`

	answers, err := Parse([]byte(data), 0.3)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "We accept most insurance plans.", answers[0].Answer)
	assert.InDelta(t, 0.921, answers[0].Score, 1e-9)
	assert.Equal(t, "Second", answers[1].Answer)
}

func TestParse_NoMatch(t *testing.T) {
	data := `{"answers": [{"questions": [], "answer": "No good match found in KB.", "score": 0, "id": -1}]}`

	answers, err := Parse([]byte(data), 0.3)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{"error": "bad"}`), 0.3)
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}

func TestClient_Answer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/qnamaker/knowledgebases/kb-1/generateAnswer", r.URL.Path)
		assert.Equal(t, "EndpointKey ek", r.Header.Get("Authorization"))

		var body struct {
			Question string `json:"question"`
			Top      int    `json:"top"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "What if I do not have insurance?", body.Question)
		assert.Equal(t, 1, body.Top)

		_, _ = w.Write([]byte(`{"answers": [{"answer": "We offer payment plans.", "score": 88}]}`))
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), provider.QnAConfig{
		Endpoint:       server.URL + "/",
		KnowledgeBase:  "kb-1",
		EndpointKey:    "ek",
		ScoreThreshold: 0.3,
		Timeout:        5 * time.Second,
	}, breaker.New("qna", breaker.DefaultConfig(), zap.NewNop()))

	answers, err := client.Answer(context.Background(), "What if I do not have insurance?")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "We offer payment plans.", answers[0].Answer)
}
