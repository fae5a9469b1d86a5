package dispatcher

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devjogerio/juris-alerts/internal/domain/notification"
)

type SMTPConfig struct {
	Addr       string        `mapstructure:"addr"`
	From       string        `mapstructure:"from"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	UseTLS     bool          `mapstructure:"use_tls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SubjPrefix string        `mapstructure:"subj_prefix"`
}

// Mailer delivers notifications over SMTP for users who enabled email
// delivery. It implements notification.EmailSender.
type Mailer struct {
	addr       string
	auth       smtp.Auth
	useTLS     bool
	timeout    time.Duration
	from       string
	subjPrefix string

	log *zap.Logger
}

var _ notification.EmailSender = (*Mailer)(nil)

func NewMailer(cfg SMTPConfig) *Mailer {
	var auth smtp.Auth
	if cfg.User != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, smtpHost(cfg.Addr))
	}
	return &Mailer{
		addr:       cfg.Addr,
		auth:       auth,
		useTLS:     cfg.UseTLS,
		timeout:    cfg.Timeout,
		from:       cfg.From,
		subjPrefix: cfg.SubjPrefix,
		log:        zap.L().With(zap.String("component", "dispatcher.mailer")),
	}
}

func (m *Mailer) WithLogger(l *zap.Logger) *Mailer {
	if l == nil {
		return m
	}
	cp := *m
	cp.log = l.With(zap.String("component", "dispatcher.mailer"))
	return &cp
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	subj := strings.TrimSpace(m.subjPrefix + " " + subject)
	msg := []byte(
		"From: " + m.from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subj + "\r\n" +
			"Content-Type: text/plain; charset=utf-8\r\n" +
			"\r\n" + body + "\r\n")

	start := time.Now()
	log := m.log.With(
		zap.String("smtp_addr", m.addr),
		zap.Bool("tls", m.useTLS),
		zap.String("to", to),
		zap.String("subject", subj),
	)

	if m.useTLS {
		return m.sendTLS(log, to, msg, start)
	}

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		log.Error("sendmail failed", zap.Error(err))
		return err
	}
	log.Debug("email sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (m *Mailer) sendTLS(log *zap.Logger, to string, msg []byte, start time.Time) error {
	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := tls.DialWithDialer(&dialer, "tcp", m.addr, &tls.Config{InsecureSkipVerify: true})
	if err != nil {
		log.Error("tls dial failed", zap.Error(err))
		return err
	}
	c, err := smtp.NewClient(conn, smtpHost(m.addr))
	if err != nil {
		log.Error("smtp client failed", zap.Error(err))
		return err
	}
	defer func() { _ = c.Close() }()

	if m.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(m.auth); err != nil {
				log.Error("smtp auth failed", zap.Error(err))
				return err
			}
		}
	}
	if err := c.Mail(m.from); err != nil {
		log.Error("smtp MAIL FROM failed", zap.Error(err))
		return err
	}
	if err := c.Rcpt(to); err != nil {
		log.Error("smtp RCPT TO failed", zap.Error(err))
		return err
	}
	w, err := c.Data()
	if err != nil {
		log.Error("smtp DATA failed", zap.Error(err))
		return err
	}
	if _, err = w.Write(msg); err != nil {
		log.Error("smtp write failed", zap.Error(err))
		return err
	}
	if err := w.Close(); err != nil {
		log.Error("smtp close failed", zap.Error(err))
		return err
	}
	log.Debug("email sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func smtpHost(addr string) string {
	if i := strings.Index(addr, ":"); i >= 0 {
		return addr[:i]
	}
	return addr
}
