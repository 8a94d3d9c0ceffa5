package service

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pantrychef/backend/config"
	"github.com/pantrychef/backend/internal/model"
)

// EventPantryExpiring is dispatched by the daily pantry sweep
const EventPantryExpiring = "pantry.expiring"

// EmailNotifier delivers notifications over SMTP. Delivery is best-effort;
// callers log failures and move on.
type EmailNotifier struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
}

// NewEmailNotifier creates a new EmailNotifier instance
func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	return &EmailNotifier{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUsername: cfg.SMTPUsername,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    cfg.FromEmail,
	}
}

// Notify sends an event email to the user
func (n *EmailNotifier) Notify(ctx context.Context, user *model.User, event string, payload map[string]interface{}) error {
	if n.smtpHost == "" {
		log.Printf("[Notifier] SMTP not configured, skipping %s notification for %s", event, user.Email)
		return nil
	}

	subject, body := n.compose(user, event, payload)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		n.fromEmail, user.Email, subject, body)

	addr := n.smtpHost + ":" + n.smtpPort
	auth := smtp.PlainAuth("", n.smtpUsername, n.smtpPassword, n.smtpHost)
	if err := smtp.SendMail(addr, auth, n.fromEmail, []string{user.Email}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send %s email: %w", event, err)
	}
	return nil
}

func (n *EmailNotifier) compose(user *model.User, event string, payload map[string]interface{}) (string, string) {
	titleCaser := cases.Title(language.English)

	switch event {
	case EventRecipeGenerated:
		title, _ := payload["title"].(string)
		slug, _ := payload["slug"].(string)
		subject := fmt.Sprintf("Your recipe is ready: %s", title)
		body := fmt.Sprintf("Hi %s,\n\nYour recipe %q has been generated and saved to your library.\n\nView it at /recipes/%s\n\nBon appetit!",
			titleCaser.String(user.Name), title, slug)
		return subject, body

	case EventPantryExpiring:
		items, _ := payload["items"].([]string)
		subject := "Pantry items expiring soon"
		body := fmt.Sprintf("Hi %s,\n\nThese pantry items are expiring within the next few days:\n\n- %s\n\nGenerate a recipe to use them up before they go to waste!",
			titleCaser.String(user.Name), strings.Join(items, "\n- "))
		return subject, body

	default:
		return "PantryChef notification", fmt.Sprintf("Hi %s,\n\nYou have a new notification.", titleCaser.String(user.Name))
	}
}
