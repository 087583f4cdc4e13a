package dialog

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrScheduler = errors.New("scheduler request failed")
	ErrSlots     = errors.New("slot store unavailable")
)

// Turn is one classified utterance of a conversation.
type Turn struct {
	ConversationId string
	Classification ClassificationResult
	Answers        []QnaAnswer
}

// Outcome is what a turn produced. Reply is never empty.
type Outcome struct {
	Action Action
	Reply  string
}

// Manager runs the slot filling state machine. Callers must serialize turns
// of the same conversation.
type Manager struct {
	logger    *zap.Logger
	scheduler Scheduler
	slots     SlotStore
}

func NewManager(logger *zap.Logger, scheduler Scheduler, slots SlotStore) *Manager {
	return &Manager{
		logger:    logger,
		scheduler: scheduler,
		slots:     slots,
	}
}

// Handle routes the turn and applies it. Slots are only written after the
// scheduler call of the turn succeeded. A non-nil error is returned together
// with a user facing reply describing the failure.
func (m *Manager) Handle(ctx context.Context, turn Turn) (Outcome, error) {
	action := Route(turn.Classification)
	out := Outcome{Action: action}
	logger := m.logger.With(
		zap.String("conversation", turn.ConversationId),
		zap.Stringer("action", action),
	)

	if action == Fallback {
		out.Reply = fallbackReply(turn.Answers)
		return out, nil
	}

	current, err := m.slots.Get(ctx, turn.ConversationId)
	if err != nil {
		out.Reply = ApologyText
		return out, errors.Wrapf(ErrSlots, "get: %v", err)
	}

	var next ConversationSlots
	switch action {
	case ShowAvailability:
		out.Reply, next, err = m.showAvailability(ctx, turn.Classification, current)
	case ScheduleAppointment:
		out.Reply, next, err = m.schedule(ctx, turn.Classification, current)
	case CancelAppointment:
		out.Reply, next, err = m.cancel(ctx, current)
	}
	if err != nil {
		logger.Error("scheduler", zap.NamedError("err", err))
		out.Reply = SchedulerFailureText
		return out, err
	}

	if next != current {
		if next.IsEmpty() {
			err = m.slots.Clear(ctx, turn.ConversationId)
		} else {
			err = m.slots.Set(ctx, turn.ConversationId, next)
		}
		if err != nil {
			out.Reply = ApologyText
			return out, errors.Wrapf(ErrSlots, "commit: %v", err)
		}
		logger.Debug("slots updated",
			zap.String("time", next.RequestedTime),
			zap.String("location", next.RequestedLocation),
		)
	}
	return out, nil
}

func (m *Manager) showAvailability(ctx context.Context, c ClassificationResult, current ConversationSlots) (string, ConversationSlots, error) {
	// only a location named in this turn narrows the query and the reply
	next := current
	location, ok := ExtractFirst(c.Entities, SlotLocation)
	if ok {
		next.RequestedLocation = location
	}

	availability, err := m.scheduler.GetAvailability(ctx, location)
	if err != nil {
		return "", current, errors.Wrapf(ErrScheduler, "get availability: %v", err)
	}
	return availabilityReply(availability, location), next, nil
}

func (m *Manager) schedule(ctx context.Context, c ClassificationResult, current ConversationSlots) (string, ConversationSlots, error) {
	at, ok := ExtractFirst(c.Entities, SlotTime)
	if !ok {
		return MissingTimeText, current, nil
	}

	next := current
	if location, ok := ExtractFirst(c.Entities, SlotLocation); ok {
		next.RequestedLocation = location
	}

	confirmation, err := m.scheduler.ScheduleAppointment(ctx, at)
	if err != nil {
		return "", current, errors.Wrapf(ErrScheduler, "schedule %q: %v", at, err)
	}
	next.RequestedTime = at
	return scheduledReply(confirmation, next.RequestedLocation), next, nil
}

func (m *Manager) cancel(ctx context.Context, current ConversationSlots) (string, ConversationSlots, error) {
	if current.RequestedTime == "" {
		return NoAppointmentText, current, nil
	}

	confirmation, err := m.scheduler.DeleteAppointment(ctx, current.RequestedTime)
	if err != nil {
		return "", current, errors.Wrapf(ErrScheduler, "delete %q: %v", current.RequestedTime, err)
	}
	return cancelledReply(confirmation, current.RequestedLocation), ConversationSlots{}, nil
}

// Reset drops whatever the conversation carried over.
func (m *Manager) Reset(ctx context.Context, conversationId string) error {
	if err := m.slots.Clear(ctx, conversationId); err != nil {
		return errors.Wrapf(ErrSlots, "clear: %v", err)
	}
	return nil
}
