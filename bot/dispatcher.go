// Package bot is the channel independent entry point for inbound activities.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dentabot/dialog"
	"dentabot/lane"
	"dentabot/metrics"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ActivityType string

const (
	ActivityMessage            ActivityType = "message"
	ActivityConversationUpdate ActivityType = "conversationUpdate"
	ActivityReset              ActivityType = "reset"
)

const turnTimeout = 30 * time.Second

type Account struct {
	Id   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Activity is one inbound event of a conversation.
type Activity struct {
	Type           ActivityType
	ConversationId string
	Text           string
	From           Account
	// Recipient is the bot itself.
	Recipient    Account
	MembersAdded []Account
}

type Dispatcher struct {
	logger     *zap.Logger
	classifier dialog.Classifier
	qna        dialog.QnA
	manager    *dialog.Manager
	lanes      *lane.Lanes
}

func NewDispatcher(logger *zap.Logger, classifier dialog.Classifier, qna dialog.QnA, manager *dialog.Manager) *Dispatcher {
	return &Dispatcher{
		logger:     logger,
		classifier: classifier,
		qna:        qna,
		manager:    manager,
		lanes:      lane.New(),
	}
}

// Dispatch handles act after earlier activities of the same conversation and
// returns the replies to send, in order.
func (d *Dispatcher) Dispatch(ctx context.Context, act Activity) ([]string, error) {
	var replies []string
	err := d.lanes.Do(ctx, act.ConversationId, func(ctx context.Context) {
		replies = d.handle(ctx, act)
	})
	if err != nil {
		return nil, errors.Wrap(err, "dispatch")
	}
	return replies, nil
}

// Submit queues act and hands its replies to send once handled. It does not block.
func (d *Dispatcher) Submit(act Activity, send func(replies []string)) {
	d.lanes.Go(act.ConversationId, func() {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()
		send(d.handle(ctx, act))
	})
}

// Notify queues a fixed reply behind earlier activities of the conversation.
func (d *Dispatcher) Notify(conversationId, text string, send func(replies []string)) {
	d.lanes.Go(conversationId, func() {
		send([]string{text})
	})
}

// Wait blocks until every submitted activity has been handled.
func (d *Dispatcher) Wait() {
	d.lanes.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, act Activity) []string {
	switch act.Type {
	case ActivityMessage:
		return []string{d.OnMessage(ctx, act)}
	case ActivityConversationUpdate:
		return d.OnMembersAdded(act)
	case ActivityReset:
		return []string{d.reset(ctx, act.ConversationId)}
	default:
		d.logger.Debug("ignored activity", zap.String("type", string(act.Type)))
		return nil
	}
}

// OnMembersAdded greets every added member except the bot itself.
func (d *Dispatcher) OnMembersAdded(act Activity) []string {
	var replies []string
	for _, member := range act.MembersAdded {
		if member.Id == act.Recipient.Id {
			continue
		}
		replies = append(replies, dialog.WelcomeText)
		metrics.MembersWelcomed.Inc()
	}
	return replies
}

// OnMessage runs one message turn. It always returns a reply.
func (d *Dispatcher) OnMessage(ctx context.Context, act Activity) string {
	start := time.Now()
	defer func() { metrics.TurnDuration.Observe(time.Since(start).Seconds()) }()

	logger := d.logger.Named(fmt.Sprintf("[%s:%s]", act.ConversationId, act.From.Id))
	text := strings.TrimSpace(act.Text)
	logger.Info("request", zap.String("message", text))
	if text == "" {
		return dialog.HelpText
	}

	var (
		classification dialog.ClassificationResult
		answers        []dialog.QnaAnswer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		classification, err = d.classifier.Classify(gctx, text)
		return errors.Wrap(err, "classify")
	})
	g.Go(func() (err error) {
		answers, err = d.qna.Answer(gctx, text)
		return errors.Wrap(err, "qna")
	})
	if err := g.Wait(); err != nil {
		logger.Error("understand", zap.NamedError("err", err))
		metrics.TurnErrors.WithLabelValues("understand").Inc()
		return dialog.ApologyText
	}

	out, err := d.manager.Handle(ctx, dialog.Turn{
		ConversationId: act.ConversationId,
		Classification: classification,
		Answers:        answers,
	})
	metrics.TurnsTotal.WithLabelValues(out.Action.String()).Inc()
	if err != nil {
		kind := "slots"
		if errors.Is(err, dialog.ErrScheduler) {
			kind = "scheduler"
		}
		metrics.TurnErrors.WithLabelValues(kind).Inc()
		logger.Error("turn", zap.String("action", out.Action.String()), zap.NamedError("err", err))
	}
	logger.Info("reply", zap.String("message", out.Reply))
	return out.Reply
}

func (d *Dispatcher) reset(ctx context.Context, conversationId string) string {
	if err := d.manager.Reset(ctx, conversationId); err != nil {
		d.logger.Error("reset", zap.String("conversation", conversationId), zap.NamedError("err", err))
		return dialog.ApologyText
	}
	return dialog.ResetText
}
