package bot

import (
	"context"
	"fmt"

	"github.com/xaenox/assistant-bot/internal/models"
)

// exchange is one question/answer pair in the chat log, written in two steps.
// openExchange appends the user turn; complete appends the bot turn. If complete
// is never reached the user turn stays persisted on its own.
type exchange struct {
	d    *Dispatcher
	user *models.UserProfile
}

func (d *Dispatcher) openExchange(ctx context.Context, user *models.UserProfile, message string) (*exchange, error) {
	record := models.NewChatRecord(user, models.RoleUser, message, d.now())
	if err := d.store.AppendChat(ctx, record); err != nil {
		return nil, fmt.Errorf("append user turn: %w", err)
	}
	return &exchange{d: d, user: user}, nil
}

func (e *exchange) complete(ctx context.Context, answer string) error {
	record := models.NewChatRecord(e.user, models.RoleBot, answer, e.d.now())
	if err := e.d.store.AppendChat(ctx, record); err != nil {
		return fmt.Errorf("append bot turn: %w", err)
	}
	return nil
}
