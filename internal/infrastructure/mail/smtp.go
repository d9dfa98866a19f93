package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

const defaultSendTimeout = 15 * time.Second

// SMTPConfig holds the outbound mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPNotifier delivers notifications through an SMTP relay. Each Send opens
// its own connection; there is no retry.
type SMTPNotifier struct {
	cfg      SMTPConfig
	renderer *Renderer
	log      zerolog.Logger
}

func NewSMTPNotifier(cfg SMTPConfig, renderer *Renderer, log zerolog.Logger) *SMTPNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSendTimeout
	}
	return &SMTPNotifier{cfg: cfg, renderer: renderer, log: log}
}

func (n *SMTPNotifier) Send(ctx context.Context, note ports.Notification) error {
	msg, err := n.message(note)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(n.cfg.Host, n.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	n.log.Info().Str("template", note.Template).Str("to", note.To).Msg("notification sent")
	return nil
}

func (n *SMTPNotifier) message(note ports.Notification) (*gomail.Msg, error) {
	rendered, err := n.renderer.Render(note)
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", n.cfg.From, err)
	}
	if err := msg.To(note.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", note.To, err)
	}
	msg.Subject(rendered.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, rendered.Text)
	msg.AddAlternativeString(gomail.TypeTextHTML, rendered.HTML)
	return msg, nil
}

func (n *SMTPNotifier) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(n.cfg.Port),
		gomail.WithTimeout(n.cfg.Timeout),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(n.cfg.Username),
			gomail.WithPassword(n.cfg.Password),
		)
	}
	return opts
}
