package delivery

import (
	"fmt"

	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/store"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Sender is the part of *telebot.Bot used for delivery.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelegramDispatcher messages each notification to the resident's
// Telegram chat.
type TelegramDispatcher struct {
	bot       Sender
	residents store.ResidentStore
	logger    *logrus.Logger
}

func NewTelegramDispatcher(bot Sender, residents store.ResidentStore, logger *logrus.Logger) *TelegramDispatcher {
	return &TelegramDispatcher{bot: bot, residents: residents, logger: logger}
}

// Dispatch sends n to the owner's chat. Residents without a linked chat
// are skipped.
func (d *TelegramDispatcher) Dispatch(n *models.Notification) error {
	resident, err := d.residents.GetResident(n.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up recipient %s: %w", n.UserID, err)
	}
	if resident.TelegramChatID == 0 {
		return nil
	}

	text := fmt.Sprintf("%s\n\n%s", n.Title, n.Message)
	recipient := &telebot.User{ID: resident.TelegramChatID}
	if _, err := d.bot.Send(recipient, text, &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
		return fmt.Errorf("failed to send telegram message to chat %d: %w", resident.TelegramChatID, err)
	}

	d.logger.WithFields(logrus.Fields{
		"user_id":         n.UserID,
		"notification_id": n.ID,
	}).Debug("Telegram message sent")
	return nil
}
