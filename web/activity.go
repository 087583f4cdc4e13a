package web

import (
	"encoding/json"
	"net/http"

	"dentabot/bot"

	"go.uber.org/zap"
)

// activity is the subset of a Bot Framework activity the bot understands.
type activity struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	From         bot.Account   `json:"from"`
	Recipient    bot.Account   `json:"recipient"`
	Conversation conversation  `json:"conversation"`
	MembersAdded []bot.Account `json:"membersAdded"`
}

type conversation struct {
	Id string `json:"id"`
}

const maxActivityBytes = 64 << 10

type replyActivity struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type activityResponse struct {
	Replies []replyActivity `json:"replies"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var in activity
	r.Body = http.MaxBytesReader(w, r.Body, maxActivityBytes)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if in.Conversation.Id == "" {
		http.Error(w, "conversation.id is required", http.StatusBadRequest)
		return
	}
	if in.Recipient.Id == "" {
		in.Recipient.Id = s.cfg.BotId
	}

	replies, err := s.dispatcher.Dispatch(r.Context(), bot.Activity{
		Type:           bot.ActivityType(in.Type),
		ConversationId: in.Conversation.Id,
		Text:           in.Text,
		From:           in.From,
		Recipient:      in.Recipient,
		MembersAdded:   in.MembersAdded,
	})
	if err != nil {
		s.logger.Warn("activity", zap.String("conversation", in.Conversation.Id), zap.NamedError("err", err))
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
		return
	}

	resp := activityResponse{Replies: make([]replyActivity, 0, len(replies))}
	for _, text := range replies {
		resp.Replies = append(resp.Replies, replyActivity{Type: "message", Text: text})
	}
	writeJSON(w, http.StatusOK, resp)
}
