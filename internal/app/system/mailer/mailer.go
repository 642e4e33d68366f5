// internal/app/system/mailer/mailer.go

// Package mailer sends transactional mail. The production sender is
// Mailgun; tests substitute a recording fake.
package mailer

import "context"

// InviteEmail is one team invitation to deliver.
type InviteEmail struct {
	InviteID string
	Invitee  string // recipient address
	Inviter  string // display name of the sender
	TeamName string
}

// Sender delivers invitation mail.
type Sender interface {
	SendInvite(ctx context.Context, inv InviteEmail) error
}
