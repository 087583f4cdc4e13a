// Package dialog turns independently classified utterances into a coherent
// multi-turn appointment transaction.
package dialog

import "context"

// Slot names reported by the classifier.
const (
	SlotTime     = "time"
	SlotLocation = "location"
)

// Intent labels the router acts on.
const (
	IntentGetAvailability            = "GetAvailability"
	IntentScheduleAppointment        = "ScheduleAppointment"
	IntentDeleteScheduledAppointment = "DeleteScheduledAppointment"
)

// ClassificationResult is the classifier output normalized at the boundary.
type ClassificationResult struct {
	TopIntent    string
	IntentScores map[string]float64
	// Entities maps a slot name to its extracted spans in utterance order.
	Entities map[string][]string
}

// Score returns the confidence of intent, zero when it was not scored.
func (c ClassificationResult) Score(intent string) float64 {
	return c.IntentScores[intent]
}

// QnaAnswer is one ranked answer from the question answering service.
type QnaAnswer struct {
	Answer string
	Score  float64
}

// ConversationSlots is the slot state carried between turns of one conversation.
type ConversationSlots struct {
	RequestedTime     string `json:"requestedTime"`
	RequestedLocation string `json:"requestedLocation"`
}

func (s ConversationSlots) IsEmpty() bool {
	return s.RequestedTime == "" && s.RequestedLocation == ""
}

// SlotStore holds ConversationSlots keyed by conversation id.
// Get on an unknown conversation returns empty slots.
type SlotStore interface {
	Get(ctx context.Context, conversationId string) (ConversationSlots, error)
	Set(ctx context.Context, conversationId string, slots ConversationSlots) error
	Clear(ctx context.Context, conversationId string) error
}

type Classifier interface {
	Classify(ctx context.Context, utterance string) (ClassificationResult, error)
}

type QnA interface {
	Answer(ctx context.Context, utterance string) ([]QnaAnswer, error)
}

type Scheduler interface {
	GetAvailability(ctx context.Context, location string) (string, error)
	ScheduleAppointment(ctx context.Context, time string) (string, error)
	DeleteAppointment(ctx context.Context, time string) (string, error)
}
