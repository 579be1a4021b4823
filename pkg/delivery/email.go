// Package delivery forwards portal notifications to residents over email
// and Telegram.
package delivery

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/store"
	"github.com/sirupsen/logrus"
)

// SMTPConfig holds the outgoing mail settings.
type SMTPConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	SenderEmail string
	PortalURL   string
}

// EmailDispatcher emails each notification to the resident that owns it.
type EmailDispatcher struct {
	cfg       SMTPConfig
	residents store.ResidentStore
	logger    *logrus.Logger
	send      func(e *email.Email) error
}

func NewEmailDispatcher(cfg SMTPConfig, residents store.ResidentStore, logger *logrus.Logger) *EmailDispatcher {
	d := &EmailDispatcher{
		cfg:       cfg,
		residents: residents,
		logger:    logger,
	}
	d.send = d.sendSMTP
	return d
}

func (d *EmailDispatcher) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", d.cfg.Host, d.cfg.Port)
	auth := smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)
	return e.Send(addr, auth)
}

// Dispatch sends n by email. Residents without an address are skipped.
func (d *EmailDispatcher) Dispatch(n *models.Notification) error {
	resident, err := d.residents.GetResident(n.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up recipient %s: %w", n.UserID, err)
	}
	if resident.Email == "" {
		d.logger.WithField("user_id", n.UserID).Debug("Resident has no email address, skipping")
		return nil
	}

	e := email.NewEmail()
	e.From = d.cfg.SenderEmail
	e.To = []string{resident.Email}
	e.Subject = n.Title
	e.Text = []byte(d.body(resident, n))

	if err := d.send(e); err != nil {
		d.logger.Errorf("Failed to send email to %s: %v", resident.Email, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	d.logger.Infof("Email sent to %s: %s", resident.Email, e.Subject)
	return nil
}

func (d *EmailDispatcher) body(resident *models.Resident, n *models.Notification) string {
	body := fmt.Sprintf("Dear %s,\n\n%s\n", resident.Name, n.Message)
	if n.Link != "" {
		body += fmt.Sprintf("\nView it in the portal: %s%s\n", d.cfg.PortalURL, n.Link)
	}
	body += "\nBest regards,\nYour HOA Board"
	return body
}
