package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/xaenox/assistant-bot/internal/generation"
	"github.com/xaenox/assistant-bot/internal/imaging"
	"github.com/xaenox/assistant-bot/internal/models"
	"github.com/xaenox/assistant-bot/internal/session"
	"github.com/xaenox/assistant-bot/internal/storage"
	"go.uber.org/zap"
)

const historyLimit = 10

// Responder delivers replies for the event currently being handled.
type Responder interface {
	Reply(ctx context.Context, reply models.Reply) error
}

// FileFetcher downloads the binary content behind a transport file handle.
type FileFetcher interface {
	FetchFile(ctx context.Context, fileID string) ([]byte, error)
}

// Store is the persistence the dispatcher reads and appends to.
type Store interface {
	storage.UserStore
	storage.ChatStore
}

// Dispatcher routes inbound events either into the registration dialogue or
// into the content pipelines for registered users.
type Dispatcher struct {
	sessions  *session.Machine
	store     Store
	generator generation.Generator
	files     FileFetcher
	logger    *zap.Logger
	now       func() time.Time
}

func NewDispatcher(sessions *session.Machine, store Store, generator generation.Generator, files FileFetcher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sessions:  sessions,
		store:     store,
		generator: generator,
		files:     files,
		logger:    logger.Named("dispatcher"),
		now:       time.Now,
	}
}

// Dispatch handles one event. Every path ends in at least one reply; failures
// are logged and answered, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.Event, out Responder) {
	log := d.logger.With(
		zap.Int64("external_id", ev.Sender.ExternalID),
		zap.String("kind", string(ev.Kind)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while handling event",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			d.reply(ctx, out, log, models.Text(msgInternalError))
		}
	}()

	if d.sessions.Active(ev.Sender.ExternalID) {
		d.reply(ctx, out, log, d.sessions.Handle(ctx, ev))
		return
	}

	switch {
	case ev.IsCommand(models.CommandStart):
		d.handleStart(ctx, ev, out, log)
		return
	case ev.IsCommand(models.CommandCancel):
		d.reply(ctx, out, log, models.Text(msgNothingToCancel))
		return
	}

	user, err := d.store.FindUser(ctx, ev.Sender.ExternalID)
	if errors.Is(err, storage.ErrNotFound) {
		d.reply(ctx, out, log, models.Text(msgRegisterFirst))
		return
	}
	if err != nil {
		log.Error("Failed to look up user", zap.Error(err))
		d.reply(ctx, out, log, models.Text(msgLookupFailed))
		return
	}
	log = log.With(zap.String("user_id", user.UserID.String()))

	switch ev.Kind {
	case models.EventCommand:
		d.handleCommand(ctx, ev, user, out, log)
	case models.EventText:
		d.handleText(ctx, ev, user, out, log)
	case models.EventImage:
		d.handleImage(ctx, ev, user, out, log)
	default:
		d.reply(ctx, out, log, models.Text(msgUnsupported))
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, ev models.Event, out Responder, log *zap.Logger) {
	_, err := d.store.FindUser(ctx, ev.Sender.ExternalID)
	switch {
	case err == nil:
		d.reply(ctx, out, log, models.Text(msgAlreadyRegistered))
	case errors.Is(err, storage.ErrNotFound):
		d.reply(ctx, out, log, d.sessions.Start(ev.Sender))
	default:
		log.Error("Failed to look up user", zap.Error(err))
		d.reply(ctx, out, log, models.Text(msgLookupFailed))
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, ev models.Event, user *models.UserProfile, out Responder, log *zap.Logger) {
	switch ev.Command {
	case models.CommandHelp:
		d.reply(ctx, out, log, models.Text(msgHelp))
	case models.CommandHistory:
		d.handleHistory(ctx, user, out, log)
	default:
		d.reply(ctx, out, log, models.Text(msgUnknownCommand))
	}
}

func (d *Dispatcher) handleText(ctx context.Context, ev models.Event, user *models.UserProfile, out Responder, log *zap.Logger) {
	ex, err := d.openExchange(ctx, user, ev.Text)
	if err != nil {
		log.Error("Failed to save user message", zap.Error(err))
		d.reply(ctx, out, log, models.Text(msgSaveFailed))
		return
	}

	answer, err := d.generate(func() (string, error) {
		return d.generator.GenerateText(ctx, ev.Text)
	})
	if err != nil {
		// the user turn stays in the log without a bot turn
		log.Error("Error in message handling", zap.Error(err))
		d.reply(ctx, out, log, models.Text(fmt.Sprintf(msgGenerationError, err)))
		return
	}

	if err := ex.complete(ctx, answer); err != nil {
		log.Error("Failed to save bot message", zap.Error(err))
		d.reply(ctx, out, log, models.Text(msgSaveFailed))
		return
	}
	d.reply(ctx, out, log, models.Text(answer))
}

func (d *Dispatcher) handleImage(ctx context.Context, ev models.Event, user *models.UserProfile, out Responder, log *zap.Logger) {
	if !d.generator.VisionAvailable() {
		d.reply(ctx, out, log, models.Text(msgVisionUnavailable))
		return
	}
	d.reply(ctx, out, log, models.Text(msgAnalyzing))

	data, err := d.files.FetchFile(ctx, ev.ImageFileID)
	if err != nil {
		log.Error("Failed to download image", zap.Error(err), zap.String("file_id", ev.ImageFileID))
		d.reply(ctx, out, log, models.Text(fmt.Sprintf(msgImageError, err)))
		return
	}

	img, err := imaging.NormalizeRGB(data)
	if err != nil {
		log.Warn("Could not decode image", zap.Error(err), zap.Int("bytes", len(data)))
		switch {
		case errors.Is(err, imaging.ErrImageTooLarge):
			d.reply(ctx, out, log, models.Text(msgImageTooLarge))
		case errors.Is(err, imaging.ErrMalformedImage):
			d.reply(ctx, out, log, models.Text(msgBadImage))
		default:
			d.reply(ctx, out, log, models.Text(fmt.Sprintf(msgImageError, err)))
		}
		return
	}

	caption := strings.TrimSpace(ev.Caption)
	answer, err := d.generate(func() (string, error) {
		return d.generator.GenerateVision(ctx, visionPrompt(caption), img)
	})
	if err != nil {
		log.Error("Error in image analysis", zap.Error(err))
		d.reply(ctx, out, log, models.Text(fmt.Sprintf(msgImageError, err)))
		return
	}

	ex, err := d.openExchange(ctx, user, imageLogMessage(caption))
	if err != nil {
		log.Error("Failed to save image request", zap.Error(err))
		d.reply(ctx, out, log, models.Text(msgSaveFailed))
		return
	}
	if err := ex.complete(ctx, answer); err != nil {
		log.Error("Failed to save bot message", zap.Error(err))
		d.reply(ctx, out, log, models.Text(msgSaveFailed))
		return
	}
	d.reply(ctx, out, log, models.Text(answer))
}

func (d *Dispatcher) handleHistory(ctx context.Context, user *models.UserProfile, out Responder, log *zap.Logger) {
	records, err := d.store.ListChats(ctx, storage.ChatQuery{UserID: user.UserID, Limit: historyLimit})
	if err != nil {
		log.Error("Failed to get user messages", zap.Error(err))
		d.reply(ctx, out, log, models.Text(msgHistoryFailed))
		return
	}
	if len(records) == 0 {
		d.reply(ctx, out, log, models.Text(msgHistoryEmpty))
		return
	}
	d.reply(ctx, out, log, models.Text(formatHistory(records)))
}

// generate runs a backend call and rejects blank answers.
func (d *Dispatcher) generate(call func() (string, error)) (string, error) {
	answer, err := call()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "", generation.ErrEmptyResponse
	}
	return answer, nil
}

func (d *Dispatcher) reply(ctx context.Context, out Responder, log *zap.Logger, reply models.Reply) {
	if reply.Text == "" {
		return
	}
	if err := out.Reply(ctx, reply); err != nil {
		log.Error("Failed to send message", zap.Error(err))
	}
}

func visionPrompt(caption string) string {
	if caption == "" {
		return defaultVisionPrompt
	}
	return caption + "\n" + captionVisionSuffix
}

func imageLogMessage(caption string) string {
	if caption == "" {
		return imageLogMarker
	}
	return imageLogMarker + ": " + caption
}

func formatHistory(records []models.ChatRecord) string {
	var b strings.Builder
	b.WriteString("Your recent messages:\n")
	for _, r := range records {
		who := "You"
		if r.Role == models.RoleBot {
			who = "Bot"
		}
		fmt.Fprintf(&b, "\n[%s] %s: %s", r.Timestamp.Format("2006-01-02 15:04"), who, r.Message)
	}
	return b.String()
}
