// Package mailer delivers plain-text email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"
)

// ErrMissingCredentials is returned when SMTP_USER or SMTP_PASSWORD is unset.
var ErrMissingCredentials = errors.New("SMTP_USER and SMTP_PASSWORD must be set")

// Message is one outgoing email.
type Message struct {
	FromName string
	To       []string
	Subject  string
	Body     string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPClient sends mail through a single authenticated SMTP account.
// The envelope sender is always the account itself; Message.FromName only
// decorates the From header, which keeps providers like Gmail from rejecting it.
type SMTPClient struct {
	server      string
	port        int
	user        string
	password    string
	useSTARTTLS bool
	dialTimeout time.Duration
}

// NewSMTPClient creates a new SMTP client
func NewSMTPClient(server string, port int, user, password string, useSTARTTLS bool) *SMTPClient {
	return &SMTPClient{
		server:      server,
		port:        port,
		user:        user,
		password:    password,
		useSTARTTLS: useSTARTTLS,
		dialTimeout: 30 * time.Second,
	}
}

// Send delivers msg to every address in msg.To in one transaction.
func (c *SMTPClient) Send(ctx context.Context, msg Message) error {
	if c.user == "" || c.password == "" {
		return ErrMissingCredentials
	}
	if len(msg.To) == 0 {
		return errors.New("no recipients")
	}

	client, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if c.useSTARTTLS {
		if err := client.StartTLS(&tls.Config{ServerName: c.server}); err != nil {
			return fmt.Errorf("starttls failed: %w", err)
		}
	}

	auth := smtp.PlainAuth("", c.user, c.password, c.server)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("auth failed: %w", err)
	}

	if err := client.Mail(c.user); err != nil {
		return fmt.Errorf("mail from failed: %w", err)
	}
	for _, to := range msg.To {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("rcpt to %s failed: %w", to, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data failed: %w", err)
	}
	if _, err := w.Write(BuildMessage(c.user, msg, time.Now())); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close failed: %w", err)
	}

	return client.Quit()
}

func (c *SMTPClient) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(c.server, fmt.Sprint(c.port))
	dialer := &net.Dialer{Timeout: c.dialTimeout}

	var conn net.Conn
	var err error
	if c.useSTARTTLS {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	} else {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: c.server}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s failed: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, c.server)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake failed: %w", err)
	}
	if err := client.Hello(domainOf(c.user)); err != nil {
		client.Close()
		return nil, fmt.Errorf("hello failed: %w", err)
	}
	return client, nil
}

// BuildMessage renders the RFC 5322 message sent for msg from account.
func BuildMessage(account string, msg Message, now time.Time) []byte {
	from := (&mail.Address{Name: msg.FromName, Address: account}).String()

	var buf bytes.Buffer
	writeHeader := func(k, v string) {
		buf.WriteString(k)
		buf.WriteString(": ")
		buf.WriteString(v)
		buf.WriteString("\r\n")
	}

	writeHeader("From", from)
	writeHeader("To", strings.Join(msg.To, ", "))
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("Date", now.Format(time.RFC1123Z))
	writeHeader("Message-ID", fmt.Sprintf("<%s@%s>", messageID(), domainOf(account)))
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", `text/plain; charset="utf-8"`)
	writeHeader("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func domainOf(addr string) string {
	if at := strings.LastIndex(addr, "@"); at >= 0 && at < len(addr)-1 {
		return addr[at+1:]
	}
	return "localhost"
}

func messageID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprint(time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
