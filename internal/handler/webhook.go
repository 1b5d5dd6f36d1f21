package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
	"github.com/cerebroai/shop-assistant-go/internal/port"
	"github.com/cerebroai/shop-assistant-go/internal/service"
)

// A full enrichment run can exceed Telegram's webhook timeout by an order
// of magnitude, so updates are acknowledged immediately and processed in
// the background with their own deadline.
const updateProcessingTimeout = 5 * time.Minute

// WebhookHandler receives Telegram updates.
type WebhookHandler struct {
	chat          *service.ChatService
	messenger     port.Messenger
	allowedChatID int64
	webhookSecret string
	logger        *zap.Logger
}

// NewWebhookHandler creates the Telegram webhook handler. allowedChatID
// restricts the bot to a single operator chat; zero disables the check.
func NewWebhookHandler(chat *service.ChatService, messenger port.Messenger, allowedChatID int64, webhookSecret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		chat:          chat,
		messenger:     messenger,
		allowedChatID: allowedChatID,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// HandleUpdate processes POST /webhook.
func (h *WebhookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret != "" {
		if r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != h.webhookSecret {
			writeError(w, http.StatusForbidden, "bad webhook secret")
			return
		}
	}

	var update domain.TelegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid update payload")
		return
	}

	// Always acknowledge: Telegram retries non-2xx responses and would
	// otherwise redeliver updates we deliberately ignore.
	w.WriteHeader(http.StatusOK)

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	if h.allowedChatID != 0 && chatID != h.allowedChatID {
		h.logger.Warn("update from unauthorized chat", zap.Int64("chat_id", chatID))
		return
	}

	go h.process(chatID, update.Message.From.ID, update.Message.Text)
}

func (h *WebhookHandler) process(chatID, userID int64, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), updateProcessingTimeout)
	defer cancel()

	reply, err := h.chat.ProcessMessage(ctx, userID, text)
	if err != nil {
		h.logger.Error("message processing failed", zap.Int64("chat_id", chatID), zap.Error(err))
		reply = "Something went wrong, please try again later."
	}

	if err := h.messenger.SendMessage(ctx, chatID, reply); err != nil {
		h.logger.Error("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
