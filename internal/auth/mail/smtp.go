package mail

import (
	"context"
	"errors"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool // STARTTLS, or implicit TLS on port 465
}

// SMTPMailer sends through an SMTP relay using go-mail.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail: smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("mail: from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	gm, err := m.build(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(m.cfg.Host, m.options()...)
	if err != nil {
		return fmt.Errorf("mail: create client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, gm); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) (*gomail.Msg, error) {
	gm := gomail.NewMsg()
	if m.cfg.FromName != "" {
		if err := gm.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
			return nil, fmt.Errorf("mail: from address: %w", err)
		}
	} else if err := gm.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("mail: from address: %w", err)
	}
	if err := gm.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: to address: %w", err)
	}
	gm.Subject(msg.Subject)
	gm.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return gm, nil
}

func (m *SMTPMailer) options() []gomail.Option {
	opts := []gomail.Option{gomail.WithPort(m.cfg.Port)}

	if m.cfg.TLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
		if m.cfg.Port == 465 {
			opts = append(opts, gomail.WithSSL())
		}
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}
