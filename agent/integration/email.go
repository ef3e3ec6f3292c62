package integration

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
)

const markupTriggers = "#*_`["

type Escalation struct {
	CustomerEmail string
	Subject       string
	Body          string
	Priority      string
}

type EscalationResult struct {
	Status   string `json:"status"`
	To       string `json:"to"`
	Priority string `json:"priority"`
}

type Mailer interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

type Escalator struct {
	cfg    EmailConfig
	mailer Mailer
}

// NewEscalator builds an escalator that sends through mailer, or through an
// implicit-TLS SMTP connection described by cfg when mailer is nil.
func NewEscalator(cfg EmailConfig, mailer Mailer) *Escalator {
	if mailer == nil {
		mailer = &SMTPMailer{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Address,
			Password: cfg.Password,
			Timeout:  cfg.Timeout,
		}
	}
	return &Escalator{cfg: cfg, mailer: mailer}
}

func (e *Escalator) Escalate(ctx context.Context, in Escalation) (EscalationResult, error) {
	address := strings.TrimSpace(e.cfg.Address)
	if address == "" || e.cfg.Password == "" {
		return EscalationResult{}, fmt.Errorf("%w: missing SUPPORT_EMAIL_ADDRESS or SUPPORT_EMAIL_PASSWORD", ErrNotConfigured)
	}

	priority := strings.TrimSpace(in.Priority)
	if priority == "" {
		priority = "normal"
	}

	recipients := splitRecipients(e.cfg.EscalationTo)
	if len(recipients) == 0 {
		recipients = splitRecipients(in.CustomerEmail)
	}
	if len(recipients) == 0 {
		return EscalationResult{}, fmt.Errorf("escalation has no recipients")
	}

	html, err := RenderBody(in.Body)
	if err != nil {
		return EscalationResult{}, err
	}

	from := fmt.Sprintf("%s <%s>", e.cfg.FromName, address)
	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(priority), in.Subject)
	to := strings.Join(recipients, ", ")
	msg := buildMessage(from, to, subject, html)

	if err := e.mailer.Send(ctx, address, recipients, msg); err != nil {
		return EscalationResult{}, fmt.Errorf("send escalation: %w", err)
	}
	return EscalationResult{Status: "sent", To: to, Priority: priority}, nil
}

// RenderBody converts body from markdown to HTML when it contains markup
// trigger characters and returns it unchanged otherwise.
func RenderBody(body string) (string, error) {
	if !strings.ContainsAny(body, markupTriggers) {
		return body, nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func splitRecipients(raw string) []string {
	out := make([]string, 0, 1)
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}

// SMTPMailer delivers over SMTP with implicit TLS (SMTPS).
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

func (m *SMTPMailer) Send(ctx context.Context, from string, to []string, msg []byte) error {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    &tls.Config{ServerName: m.Host, MinVersion: tls.VersionTLS12},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return fmt.Errorf("set deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.Auth(smtp.PlainAuth("", m.Username, m.Password, m.Host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp finish data: %w", err)
	}
	return client.Quit()
}
