// internal/app/system/mailer/templates_test.go
package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInviteText(t *testing.T) {
	inv := InviteEmail{
		InviteID: "inv-1",
		Invitee:  "new@example.com",
		Inviter:  "Dana",
		TeamName: "Acme",
	}
	body := buildInviteText("https://app.example.com", inv)
	assert.Contains(t, body, "Dana has invited you to join the team Acme")
	assert.Contains(t, body, "https://app.example.com/invites/inv-1?invitee=new%40example.com")
}

func TestBuildInviteHTML(t *testing.T) {
	inv := InviteEmail{
		InviteID: "inv-2",
		Invitee:  "a+b@example.com",
		Inviter:  "Robin",
		TeamName: "Acme",
	}
	html := buildInviteHTML("https://app.example.com", inv)
	assert.True(t, strings.Contains(html, "Robin has invited you"))
	assert.Contains(t, html, "/invites/inv-2?invitee=a%2Bb%40example.com")
	assert.Contains(t, html, "Accept Invitation")
}
