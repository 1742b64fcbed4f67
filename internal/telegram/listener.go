package telegram

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Update represents a Telegram Update object (partial schema)
type Update struct {
	UpdateID int `json:"update_id"`
	Message  struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			Username string `json:"username"`
		} `json:"from"`
	} `json:"message"`
}

type UpdateResponse struct {
	Ok          bool     `json:"ok"`
	Result      []Update `json:"result"`
	Description string   `json:"description"`
	ErrorCode   int      `json:"error_code"`
}

// CommandHandler defines the callback signature for processing commands
type CommandHandler func(command string) string

// StartListener begins long-polling for commands.
// It runs blocking, so it should be called in a goroutine.
func StartListener(handler CommandHandler) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	authChatIDStr := os.Getenv("TELEGRAM_CHAT_ID")

	if token == "" || authChatIDStr == "" {
		log.Println("Telegram Listener: Credentials missing, disabled.")
		return
	}

	authChatID, _ := strconv.ParseInt(authChatIDStr, 10, 64)
	offset := 0

	log.Println("Telegram Listener: Started")

	for {
		url := fmt.Sprintf("https://api.telegram.org/bot%s/getUpdates?offset=%d&timeout=60", token, offset)
		resp, err := http.Get(url)
		if err != nil {
			log.Printf("Telegram Listener Error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("Telegram Listener Read Error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		var updates UpdateResponse
		if err := json.Unmarshal(body, &updates); err != nil {
			log.Printf("Telegram Listener Decode Error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		if !updates.Ok {
			log.Printf("Telegram Listener API Error %d: %s", updates.ErrorCode, updates.Description)
			time.Sleep(10 * time.Second)
			continue
		}

		for _, update := range updates.Result {
			offset = update.UpdateID + 1

			// Only react to the authorized chat; anyone else is ignored.
			if update.Message.Chat.ID != authChatID {
				continue
			}

			text := strings.TrimSpace(update.Message.Text)
			if text == "" || !strings.HasPrefix(text, "/") {
				continue
			}

			log.Printf("Telegram Command from @%s: %s", update.Message.From.Username, text)

			if reply := handler(text); reply != "" {
				Notify(reply)
			}
		}
	}
}
