package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"dentabot/bot"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// handleWebchat serves one conversation per websocket connection. Every text
// frame is a turn and every reply goes back as its own text frame.
func (s *Server) handleWebchat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade", zap.NamedError("err", err))
		return
	}
	defer conn.Close()

	conversationId := "webchat-" + uuid.New().String()
	user := bot.Account{Id: "user-" + conversationId}
	self := bot.Account{Id: s.cfg.BotId}
	logger := s.logger.With(zap.String("conversation", conversationId))
	logger.Debug("ws connected", zap.String("remote", r.RemoteAddr))
	defer func() {
		// the conversation ends with the connection
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.dispatcher.Dispatch(ctx, bot.Activity{Type: bot.ActivityReset, ConversationId: conversationId}); err != nil {
			logger.Warn("ws reset", zap.NamedError("err", err))
		}
		logger.Debug("ws closed")
	}()

	ctx := r.Context()
	send := func(act bot.Activity) bool {
		replies, err := s.dispatcher.Dispatch(ctx, act)
		if err != nil {
			return false
		}
		for _, text := range replies {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				logger.Warn("ws write", zap.NamedError("err", err))
				return false
			}
		}
		return true
	}

	if !send(bot.Activity{
		Type:           bot.ActivityConversationUpdate,
		ConversationId: conversationId,
		Recipient:      self,
		MembersAdded:   []bot.Account{user},
	}) {
		return
	}

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("ws read", zap.NamedError("err", err))
			}
			return
		}
		if messageType != websocket.TextMessage || strings.TrimSpace(string(p)) == "" {
			continue
		}
		if !send(bot.Activity{
			Type:           bot.ActivityMessage,
			ConversationId: conversationId,
			Text:           string(p),
			From:           user,
			Recipient:      self,
		}) {
			return
		}
	}
}
