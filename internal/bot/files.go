package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram bots may download files up to 20 MB.
const maxFileSize = 20 << 20

// TelegramFiles downloads uploaded files through the Bot API file endpoint.
type TelegramFiles struct {
	api    *tgbotapi.BotAPI
	client *http.Client
}

func NewTelegramFiles(api *tgbotapi.BotAPI) *TelegramFiles {
	return &TelegramFiles{
		api:    api,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (f *TelegramFiles) FetchFile(ctx context.Context, fileID string) ([]byte, error) {
	link, err := f.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("cannot get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot build download request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxFileSize)
	}
	return data, nil
}
