package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// pollRetryDelay is the wait after a failed getUpdates call.
var pollRetryDelay = 5 * time.Second

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updatesResponse struct {
	OK          bool             `json:"ok"`
	Description string           `json:"description"`
	Result      []telegramUpdate `json:"result"`
}

// StartPolling long-polls for commands until ctx is cancelled. Only messages
// from the configured chat reach handler; the reply goes back to that chat.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: 35 * time.Second}
	if t.Client != nil {
		client.Transport = t.Client.Transport
	}

	offset := 0
	for {
		if ctx.Err() != nil {
			log.Println("[INFO] Telegram polling stopped")
			return
		}

		updates, err := t.getUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("[INFO] Telegram polling stopped")
				return
			}
			log.Printf("[WARN] polling failed: %v, retrying in %v", err, pollRetryDelay)
			select {
			case <-ctx.Done():
				log.Println("[INFO] Telegram polling stopped")
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			t.dispatch(u, handler)
		}
	}
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	apiURL := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=30", t.APIBase, t.BotToken, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode updates (status %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates: %s", result.Description)
	}
	return result.Result, nil
}

func (t *TelegramNotifier) dispatch(u telegramUpdate, handler CommandHandler) {
	if u.Message == nil || strings.TrimSpace(u.Message.Text) == "" {
		return
	}
	chat := strconv.FormatInt(u.Message.Chat.ID, 10)
	if chat != t.ChatID {
		log.Printf("[WARN] ignoring update %d from unknown chat %s", u.UpdateID, chat)
		return
	}

	text := strings.TrimSpace(u.Message.Text)
	log.Printf("[INFO] received command: %s", text)
	if reply := handler(text); reply != "" {
		if err := t.Send(reply); err != nil {
			log.Printf("[ERROR] send reply: %v", err)
		}
	}
}
