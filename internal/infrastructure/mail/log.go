package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

// LogNotifier renders notifications and writes them to the log instead of
// sending them. Used when no SMTP host is configured.
type LogNotifier struct {
	renderer *Renderer
	log      zerolog.Logger
}

func NewLogNotifier(renderer *Renderer, log zerolog.Logger) *LogNotifier {
	return &LogNotifier{renderer: renderer, log: log}
}

func (n *LogNotifier) Send(_ context.Context, note ports.Notification) error {
	rendered, err := n.renderer.Render(note)
	if err != nil {
		return err
	}

	n.log.Info().
		Str("template", note.Template).
		Str("to", note.To).
		Str("subject", rendered.Subject).
		Str("body", rendered.Text).
		Msg("notification (not sent, SMTP disabled)")
	return nil
}
