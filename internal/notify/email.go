// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/danielramos222/gridwatch/internal/config"
	"github.com/danielramos222/gridwatch/internal/models"
)

// Channel delivers one change notification to all recipients.
type Channel interface {
	Name() string
	Send(ctx context.Context, ch *models.ChangeRecord) error
}

// EmailChannel implements delivery via SMTP.
type EmailChannel struct {
	cfg        *config.NotifyConfig
	dialer     *net.Dialer
	sendDirect func(ctx context.Context, to, msg string) error // test seam
}

// NewEmailChannel creates an SMTP email channel.
func NewEmailChannel(cfg *config.NotifyConfig) *EmailChannel {
	c := &EmailChannel{
		cfg:    cfg,
		dialer: &net.Dialer{Timeout: 30 * time.Second},
	}
	c.sendDirect = c.sendSMTP
	return c
}

// Name returns the channel identifier.
func (c *EmailChannel) Name() string {
	return "email"
}

// Send renders and delivers the change to every configured recipient. The
// first failed recipient aborts; the queue retries the whole notification.
func (c *EmailChannel) Send(ctx context.Context, ch *models.ChangeRecord) error {
	for _, recipient := range c.cfg.Recipients {
		msg := c.buildMessage(recipient, ch)
		if err := c.sendDirect(ctx, recipient, msg); err != nil {
			return fmt.Errorf("send to %s: %w", recipient, err)
		}
	}
	return nil
}

// buildMessage constructs the multipart email with headers.
func (c *EmailChannel) buildMessage(to string, ch *models.ChangeRecord) string {
	var msg strings.Builder

	fromName := c.cfg.SMTP.FromName
	if fromName == "" {
		fromName = "GridWatch"
	}

	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, c.cfg.SMTP.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", Subject(ch)))
	msg.WriteString("MIME-Version: 1.0\r\n")

	boundary := fmt.Sprintf("boundary_%d", time.Now().UnixNano())
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(BodyText(ch))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(BodyHTML(ch))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return msg.String()
}

// sendSMTP delivers one message over SMTP with optional STARTTLS and auth.
func (c *EmailChannel) sendSMTP(ctx context.Context, to, msg string) error {
	smtpCfg := &c.cfg.SMTP
	addr := fmt.Sprintf("%s:%d", smtpCfg.Host, smtpCfg.Port)

	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, smtpCfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if smtpCfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: smtpCfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if smtpCfg.Username != "" && smtpCfg.Password != "" {
		auth := smtp.PlainAuth("", smtpCfg.Username, smtpCfg.Password, smtpCfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(smtpCfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// Quit failures after a delivered message are not errors
	_ = client.Quit()
	return nil
}
