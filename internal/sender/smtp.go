package sender

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/ignite/dispatch/internal/domain"
)

// SMTPSender delivers mail over a plain SMTP connection. Implicit TLS
// (secure=true, typically port 465) dials TLS first; otherwise the
// connection upgrades via STARTTLS when the server offers it.
type SMTPSender struct {
	host   string
	port   int
	secure bool
	user   string
	pass   string
}

// NewSMTPSender creates an SMTP sender from a resolved config.
func NewSMTPSender(cfg *domain.ResolvedConfig) *SMTPSender {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		host:   cfg.Host,
		port:   port,
		secure: cfg.Secure,
		user:   cfg.User,
		pass:   cfg.Pass,
	}
}

// Send delivers one email. The context deadline is honored up to the dial;
// net/smtp itself does not take a context.
func (s *SMTPSender) Send(ctx context.Context, e *Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	msg := buildMessage(e)

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	if !s.secure {
		if err := smtp.SendMail(addr, auth, e.FromAddress, []string{e.To}, msg); err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.host})
	if err != nil {
		return fmt.Errorf("smtp tls dial: %w", err)
	}
	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer c.Close()

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(e.FromAddress); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(e.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return c.Quit()
}

const mixedBoundary = "=_dispatch_alt"

// buildMessage assembles an RFC 5322 message. HTML-only and text-only
// messages go out single-part; both together become multipart/alternative.
func buildMessage(e *Email) []byte {
	var b strings.Builder

	from := e.FromAddress
	if e.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", e.FromName), e.FromAddress)
	}
	to := e.To
	if e.ToName != "" {
		to = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", e.ToName), e.To)
	}

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	if e.GroupID != "" {
		fmt.Fprintf(&b, "X-Dispatch-Group: %s\r\n", e.GroupID)
	}
	if e.RecipientID != "" {
		fmt.Fprintf(&b, "X-Dispatch-Recipient: %s\r\n", e.RecipientID)
	}
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case e.HTML != "" && e.Text != "":
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mixedBoundary)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", mixedBoundary, e.Text)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", mixedBoundary, e.HTML)
		fmt.Fprintf(&b, "--%s--\r\n", mixedBoundary)
	case e.HTML != "":
		fmt.Fprintf(&b, "Content-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", e.HTML)
	default:
		fmt.Fprintf(&b, "Content-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", e.Text)
	}

	return []byte(b.String())
}
