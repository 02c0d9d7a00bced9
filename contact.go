package siteserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wneessen/go-mail"
)

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// handleContact serves POST /api/contact. The submission is persisted first,
// then relayed by mail; a relay failure is reported but the stored copy
// already exists, so nothing is lost.
func (a *App) handleContact(c echo.Context) error {
	var req contactRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid JSON in request body")
	}
	if req.Name == "" || req.Email == "" || req.Service == "" || req.Message == "" {
		return errorJSON(c, http.StatusBadRequest, "Missing required fields")
	}

	msg := Message{
		Name:    req.Name,
		Email:   req.Email,
		Service: req.Service,
		Body:    req.Message,
	}
	if _, err := a.messages.Save(msg); err != nil {
		c.Logger().Errorf("contact: save submission: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Internal Server Error")
	}

	if a.mailer != nil {
		if err := a.mailer.send(c.Request().Context(), msg); err != nil {
			c.Logger().Errorf("contact: relay mail: %v", err)
			return errorJSON(c, http.StatusInternalServerError, "Internal Server Error")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Message received"})
}

// handleListMessages serves GET /api/messages for the admin panel.
func (a *App) handleListMessages(c echo.Context) error {
	messages, err := a.messages.List(100)
	if err != nil {
		c.Logger().Errorf("contact: list submissions: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Internal Server Error")
	}
	if messages == nil {
		messages = []Message{}
	}
	return c.JSON(http.StatusOK, messages)
}

// mailer relays contact submissions over SMTP.
type mailer struct {
	host string
	port int
	user string
	pass string
	to   string
}

func newMailer(cfg SiteConfig) *mailer {
	return &mailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		to:   cfg.ContactTo,
	}
}

func (m *mailer) send(ctx context.Context, msg Message) error {
	mm := mail.NewMsg()
	if err := mm.From(m.user); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := mm.To(m.to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	mm.Subject("New contact message from " + msg.Name)
	mm.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Name: %s\nEmail: %s\nServices: %s\nMessage: %s\n",
		msg.Name, msg.Email, msg.Service, msg.Body,
	))

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.user),
		mail.WithPassword(m.pass),
		mail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, mm)
}
