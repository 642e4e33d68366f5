// internal/app/system/mailer/mailgun.go

package mailer

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
	"go.uber.org/zap"
)

// MailgunConfig configures the Mailgun sender. Template names a stored
// Mailgun template; when empty the built-in HTML body is used instead.
type MailgunConfig struct {
	Domain   string
	APIKey   string
	From     string
	Template string
	BaseURL  string // site base used in invite links
}

// Mailgun sends invitations through the Mailgun API.
type Mailgun struct {
	mg  mailgun.Mailgun
	cfg MailgunConfig
	log *zap.Logger
}

var _ Sender = (*Mailgun)(nil)

func NewMailgun(cfg MailgunConfig, log *zap.Logger) *Mailgun {
	return &Mailgun{
		mg:  mailgun.NewMailgun(cfg.Domain, cfg.APIKey),
		cfg: cfg,
		log: log,
	}
}

func (m *Mailgun) SendInvite(ctx context.Context, inv InviteEmail) error {
	subject := fmt.Sprintf("%s invited you to join %s", inv.Inviter, inv.TeamName)
	msg := m.mg.NewMessage(m.cfg.From, subject, buildInviteText(m.cfg.BaseURL, inv), inv.Invitee)

	if m.cfg.Template != "" {
		msg.SetTemplate(m.cfg.Template)
		vars := map[string]string{
			"inviteId": inv.InviteID,
			"invitee":  inv.Invitee,
			"inviter":  inv.Inviter,
			"teamName": inv.TeamName,
		}
		for k, v := range vars {
			if err := msg.AddTemplateVariable(k, v); err != nil {
				return fmt.Errorf("template variable %s: %w", k, err)
			}
		}
	} else {
		msg.SetHtml(buildInviteHTML(m.cfg.BaseURL, inv))
	}

	_, id, err := m.mg.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("send invite to %s: %w", inv.Invitee, err)
	}
	m.log.Info("invite email sent",
		zap.String("invite_id", inv.InviteID),
		zap.String("invitee", inv.Invitee),
		zap.String("message_id", id))
	return nil
}
