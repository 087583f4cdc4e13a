package luis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dentabot/breaker"
	"dentabot/dialog"
	"dentabot/provider"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const availabilityPrediction = `{
  "query": "Show appointment availability at Chicago",
  "prediction": {
    "topIntent": "GetAvailability",
    "intents": {
      "GetAvailability": {"score": 0.85},
      "ScheduleAppointment": {"score": 0.07},
      "None": {"score": 0.01}
    },
    "entities": {
      "location": ["Chicago"],
      "$instance": {
        "location": [
          {"type": "location", "text": "Chicago", "startIndex": 34, "length": 7, "score": 0.97}
        ]
      }
    }
  }
}`

func TestParse(t *testing.T) {
	result, err := Parse([]byte(availabilityPrediction))
	require.NoError(t, err)

	assert.Equal(t, dialog.IntentGetAvailability, result.TopIntent)
	assert.InDelta(t, 0.85, result.Score(dialog.IntentGetAvailability), 1e-9)
	assert.InDelta(t, 0.07, result.Score(dialog.IntentScheduleAppointment), 1e-9)
	assert.Equal(t, []string{"Chicago"}, result.Entities[dialog.SlotLocation])
	assert.Equal(t, dialog.ShowAvailability, dialog.Route(result))
}

func TestParse_EntitiesWithoutInstance(t *testing.T) {
	data := `{"prediction": {"topIntent": "ScheduleAppointment",
		"intents": {"ScheduleAppointment": {"score": 0.9}},
		"entities": {"time": ["8am"], "datetimeV2": [{"type": "time", "values": []}]}}}`

	result, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"8am"}, result.Entities[dialog.SlotTime])
	assert.Empty(t, result.Entities["datetimeV2"])
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	assert.True(t, errors.Is(err, ErrInvalidResponse))

	_, err = Parse([]byte(`{"error": {"code": "401"}}`))
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}

func newTestClient(url string) *Client {
	return NewClient(zap.NewNop(), provider.LuisConfig{
		Endpoint: url,
		AppId:    "app-1",
		ApiKey:   "secret",
		Slot:     "production",
		Timeout:  5 * time.Second,
	}, breaker.New("luis", breaker.DefaultConfig(), zap.NewNop()))
}

func TestClient_Classify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/luis/prediction/v3.0/apps/app-1/slots/production/predict", r.URL.Path)
		assert.Equal(t, "Show appointment availability at Chicago", r.URL.Query().Get("query"))
		assert.Equal(t, "true", r.URL.Query().Get("show-all-intents"))
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.NotEmpty(t, r.Header.Get("x-ms-client-request-id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(availabilityPrediction))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Classify(context.Background(), "Show appointment availability at Chicago")
	require.NoError(t, err)
	assert.Equal(t, dialog.IntentGetAvailability, result.TopIntent)
}

func TestClient_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Classify(context.Background(), "hi")
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Classify(context.Background(), "hi")
	assert.Error(t, err)
}
