package tg

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dentabot/bot"
	"dentabot/dialog"
	"dentabot/provider"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of the Telegram API the bot replies through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

func NewBot(logger *zap.Logger, cfg provider.TelegramBotConfig, dispatcher *bot.Dispatcher) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		logger:     logger,
		cfg:        cfg,
		dispatcher: dispatcher,
		ctx:        ctx,
		cancel:     cancel,
	}
}

type Bot struct {
	logger *zap.Logger

	cfg provider.TelegramBotConfig

	dispatcher *bot.Dispatcher

	sender Sender
	self   tgbotapi.User

	ctx    context.Context
	cancel context.CancelFunc
}

func (b *Bot) newAPI() (*tgbotapi.BotAPI, error) {
	if !b.cfg.UseProxy {
		return tgbotapi.NewBotAPI(b.cfg.ApiKey)
	}
	proxy, err := url.Parse(b.cfg.HttpProxy)
	if err != nil {
		return nil, err
	}
	tr := &http.Transport{
		Proxy:           http.ProxyURL(proxy),
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return tgbotapi.NewBotAPIWithClient(b.cfg.ApiKey, tgbotapi.APIEndpoint, &http.Client{
		Transport: tr,
		Timeout:   time.Second * 30,
	})
}

func (b *Bot) Start() error {
	tgBot, err := b.newAPI()
	if err != nil {
		return err
	}

	b.logger.Debug("Authorized", zap.String("account", tgBot.Self.UserName))

	b.sender = tgBot
	b.self = tgBot.Self

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	go func() {
		updates := tgBot.GetUpdatesChan(u)
		logger := b.logger

		logger.Debug("bot start")
		defer logger.Debug("bot stopped")

		for {
			select {
			case <-b.ctx.Done():
				tgBot.StopReceivingUpdates()
				return
			case update := <-updates:
				b.HandleUpdate(update)
			}
		}
	}()
	return nil
}

// HandleUpdate turns one Telegram update into a dispatcher activity. Replies
// are sent asynchronously, in order per chat.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	message := update.Message
	if message == nil {
		return
	}
	chatId := message.Chat.ID
	act := bot.Activity{
		ConversationId: strconv.FormatInt(chatId, 10),
		Recipient:      account(&b.self),
	}
	if message.From != nil {
		act.From = account(message.From)
	}

	if len(message.NewChatMembers) > 0 {
		act.Type = bot.ActivityConversationUpdate
		for i := range message.NewChatMembers {
			act.MembersAdded = append(act.MembersAdded, account(&message.NewChatMembers[i]))
		}
		b.dispatcher.Submit(act, b.replier(chatId, 0))
		return
	}

	if message.Text == "" {
		return
	}

	// Reply to other user's messages will not be processed
	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil &&
		message.ReplyToMessage.From.UserName != b.self.UserName {
		return
	}

	if message.IsCommand() {
		send := b.replier(chatId, message.MessageID)
		switch message.Command() {
		case "start":
			b.dispatcher.Notify(act.ConversationId, dialog.WelcomeText, send)
		case "help":
			b.dispatcher.Notify(act.ConversationId, dialog.HelpText, send)
		case "reset":
			act.Type = bot.ActivityReset
			b.dispatcher.Submit(act, send)
		default:
			b.dispatcher.Notify(act.ConversationId, "I can't understand your command.", send)
		}
		return
	}

	act.Type = bot.ActivityMessage
	act.Text = message.Text
	b.dispatcher.Submit(act, b.replier(chatId, message.MessageID))
}

func (b *Bot) replier(chatId int64, replyTo int) func([]string) {
	return func(replies []string) {
		for _, text := range replies {
			b.Send(reply(chatId, replyTo, text))
		}
	}
}

func reply(chatId int64, replyTo int, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatId, text)
	msg.ReplyToMessageID = replyTo
	return msg
}

func account(u *tgbotapi.User) bot.Account {
	return bot.Account{Id: strconv.FormatInt(u.ID, 10), Name: u.String()}
}

func (b *Bot) Send(msg tgbotapi.MessageConfig) {
	_, err := b.sender.Send(msg)
	if err != nil {
		b.logger.Error("tg send", zap.NamedError("err", err))
	}
}

func (b *Bot) Stop() error {
	b.logger.Debug("bot stop")
	b.cancel()
	b.dispatcher.Wait()
	return nil
}
