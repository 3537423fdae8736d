package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/assistant-bot/internal/imaging"
	"github.com/xaenox/assistant-bot/internal/models"
	"go.uber.org/zap"
)

const shareContactButton = "Share Contact"

// Bot is the Telegram long-polling transport in front of the Dispatcher.
type Bot struct {
	api        *tgbotapi.BotAPI
	dispatcher *Dispatcher
	lanes      *lanes
	logger     *zap.Logger
}

// NewAPI connects to Telegram and routes the library's logging through zap.
func NewAPI(token string, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(&zapBotLogger{log: logger.Named("tgbotapi").Sugar()}); err != nil {
		return nil, fmt.Errorf("failed to set bot logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return api, nil
}

func New(api *tgbotapi.BotAPI, dispatcher *Dispatcher, logger *zap.Logger) *Bot {
	return &Bot{
		api:        api,
		dispatcher: dispatcher,
		lanes:      newLanes(),
		logger:     logger.Named("telegram"),
	}
}

// Start polls for updates until ctx is cancelled, then waits for events
// already being handled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Polling for updates", zap.String("username", b.api.Self.UserName))

	// in-flight events finish even after shutdown is requested
	handleCtx := context.WithoutCancel(ctx)
	defer b.lanes.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Stopped polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			ev, ok := toEvent(update.Message)
			if !ok {
				continue
			}
			out := &chatResponder{api: b.api, chatID: ev.ChatID}
			b.lanes.Submit(ev.Sender.ExternalID, func() {
				b.dispatcher.Dispatch(handleCtx, ev, out)
			})
		}
	}
}

// toEvent classifies a Telegram message. Messages without a sender or any
// supported payload are dropped.
func toEvent(message *tgbotapi.Message) (models.Event, bool) {
	if message == nil || message.From == nil || message.Chat == nil {
		return models.Event{}, false
	}

	ev := models.Event{
		ChatID: message.Chat.ID,
		Sender: models.Sender{
			ExternalID: message.From.ID,
			Username:   message.From.UserName,
		},
	}

	switch {
	case message.IsCommand():
		ev.Kind = models.EventCommand
		ev.Command = strings.ToLower(message.Command())
		ev.Text = message.Text
	case message.Contact != nil:
		ev.Kind = models.EventContact
		ev.Phone = message.Contact.PhoneNumber
	case len(message.Photo) > 0:
		ev.Kind = models.EventImage
		ev.ImageFileID = largestPhoto(message.Photo).FileID
		ev.Caption = message.Caption
	case message.Document != nil && imaging.Supported(message.Document.MimeType):
		ev.Kind = models.EventImage
		ev.ImageFileID = message.Document.FileID
		ev.Caption = message.Caption
	case message.Text != "":
		ev.Kind = models.EventText
		ev.Text = message.Text
	default:
		return models.Event{}, false
	}
	return ev, true
}

func largestPhoto(photos []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := photos[0]
	for _, p := range photos[1:] {
		if p.Width*p.Height > best.Width*best.Height ||
			(p.Width*p.Height == best.Width*best.Height && p.FileSize > best.FileSize) {
			best = p
		}
	}
	return best
}

type chatResponder struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func (r *chatResponder) Reply(ctx context.Context, reply models.Reply) error {
	for i, chunk := range splitMessage(reply.Text, telegramMaxMessageLength) {
		msg := tgbotapi.NewMessage(r.chatID, chunk)
		if i == 0 {
			if markup := replyMarkup(reply.Keyboard); markup != nil {
				msg.ReplyMarkup = markup
			}
		}
		if _, err := r.api.Send(msg); err != nil {
			return fmt.Errorf("send to chat %d: %w", r.chatID, err)
		}
	}
	return nil
}

func replyMarkup(kb models.Keyboard) interface{} {
	switch kb {
	case models.KeyboardRequestContact:
		markup := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(shareContactButton)),
		)
		markup.OneTimeKeyboard = true
		markup.ResizeKeyboard = true
		return markup
	case models.KeyboardRemove:
		return tgbotapi.NewRemoveKeyboard(true)
	default:
		return nil
	}
}

type zapBotLogger struct {
	log *zap.SugaredLogger
}

func (l *zapBotLogger) Println(v ...interface{}) {
	l.log.Debug(v...)
}

func (l *zapBotLogger) Printf(format string, v ...interface{}) {
	l.log.Debugf(format, v...)
}
