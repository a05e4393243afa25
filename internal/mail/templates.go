package mail

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"

	"github.com/staybook/booking-service/internal/domain"
)

// ResetLink builds the frontend URL that carries a reset token. Admins and
// partners have their own reset pages; users use the root one.
func ResetLink(frontendURL string, kind domain.ActorKind, token string) string {
	base := strings.TrimRight(frontendURL, "/")
	switch kind {
	case domain.ActorKindAdmin:
		base += "/admin"
	case domain.ActorKindPartner:
		base += "/partner"
	}
	return base + "/reset-password?token=" + url.QueryEscape(token)
}

var resetTemplate = template.Must(template.New("reset").Parse(`<p>Hello {{.Name}},</p>
<p>Someone requested a password reset for your account. The link below is valid for {{.Validity}}.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>If you did not request this, you can ignore this email.</p>`))

var resetDoneTemplate = template.Must(template.New("reset_done").Parse(`<p>Hello {{.Name}},</p>
<p>Your password was changed. If this was not you, contact support immediately.</p>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<p>Welcome {{.Name}}!</p>
<p>Your account is ready.</p>`))

// PasswordResetMessage renders the reset-link email.
func PasswordResetMessage(to, name, link, validity string) Message {
	return Message{
		To:      to,
		Subject: "Reset your password",
		HTML:    render(resetTemplate, map[string]string{"Name": name, "Link": link, "Validity": validity}),
		Text:    "Reset your password: " + link,
	}
}

// PasswordChangedMessage confirms a completed reset.
func PasswordChangedMessage(to, name string) Message {
	return Message{
		To:      to,
		Subject: "Your password was changed",
		HTML:    render(resetDoneTemplate, map[string]string{"Name": name}),
		Text:    "Your password was changed.",
	}
}

// WelcomeMessage greets a newly registered account.
func WelcomeMessage(to, name string) Message {
	return Message{
		To:      to,
		Subject: "Welcome",
		HTML:    render(welcomeTemplate, map[string]string{"Name": name}),
		Text:    "Welcome " + name + "!",
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}
