package provider

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
telegram-bot:
  enabled: true
  api-key: "123:abc"
luis:
  endpoint: "https://westus.api.cognitive.microsoft.com"
  app-id: "app"
  api-key: "key"
qna:
  endpoint: "https://dentaqna.azurewebsites.net"
  knowledge-base: "kb"
  endpoint-key: "ek"
scheduler:
  endpoint: "https://scheduler.example.com/api/"
slots:
  backend: redis
  ttl: 10m
`

func TestDecode(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	require.NoError(t, v.ReadConfig(strings.NewReader(sampleConfig)))

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.True(t, cfg.TelegramBotConfig.Enabled)
	assert.Equal(t, "123:abc", cfg.TelegramBotConfig.ApiKey)
	assert.Equal(t, "app", cfg.LuisConfig.AppId)
	assert.Equal(t, "production", cfg.LuisConfig.Slot)
	assert.Equal(t, 10*time.Second, cfg.LuisConfig.Timeout)
	assert.Equal(t, "kb", cfg.QnAConfig.KnowledgeBase)
	assert.Equal(t, 0.3, cfg.QnAConfig.ScoreThreshold)
	assert.Equal(t, "redis", cfg.SlotsConfig.Backend)
	assert.Equal(t, 10*time.Minute, cfg.SlotsConfig.TTL)
	assert.Equal(t, ":3978", cfg.ServerConfig.Addr)
	assert.Equal(t, uint32(5), cfg.BreakerConfig.FailureThreshold)
	assert.Equal(t, "logs/dentabot.log", cfg.LoggerConfig.Filename)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", "json", &buf)

	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}
