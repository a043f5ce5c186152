package service

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	texttemplate "text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

const resetSubject = "Reset your password"

const resetHTML = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi {{ .Name | default "there" | title }},</p>
	<p>We received a request to reset your password.</p>
	<p><a href="{{ .Link }}">Reset password</a></p>
	<p style="word-break: break-all; font-size: 12px; color: #666;">{{ .Link }}</p>
	<p><strong>This link expires in {{ .ExpiresIn }}.</strong></p>
	<p>If you did not request a password reset, you can ignore this email.</p>
</body>
</html>`

const resetText = `Hi {{ .Name | default "there" | title }},

We received a request to reset your password. Open the link below:
{{ .Link }}

This link expires in {{ .ExpiresIn }}.

If you did not request a password reset, you can ignore this email.
`

var (
	resetHTMLTemplate = template.Must(template.New("reset_html").Funcs(sprig.HtmlFuncMap()).Parse(resetHTML))
	resetTextTemplate = texttemplate.Must(texttemplate.New("reset_text").Funcs(sprig.TxtFuncMap()).Parse(resetText))
)

type resetMailData struct {
	Name      string
	Link      string
	ExpiresIn string
}

// BuildResetLink appends token and userId to the frontend reset page URL.
func BuildResetLink(frontendURL, rawToken, userID string) (string, error) {
	u, err := url.Parse(frontendURL)
	if err != nil {
		return "", fmt.Errorf("invalid frontend url: %w", err)
	}
	q := u.Query()
	q.Set("token", rawToken)
	q.Set("userId", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// RenderResetEmail renders the password reset message for one recipient.
func RenderResetEmail(to, name, link string, ttl time.Duration) (EmailMessage, error) {
	data := resetMailData{
		Name:      name,
		Link:      link,
		ExpiresIn: humanizeDuration(ttl),
	}

	var htmlBody, textBody bytes.Buffer
	if err := resetHTMLTemplate.Execute(&htmlBody, data); err != nil {
		return EmailMessage{}, fmt.Errorf("failed to render reset email: %w", err)
	}
	if err := resetTextTemplate.Execute(&textBody, data); err != nil {
		return EmailMessage{}, fmt.Errorf("failed to render reset email: %w", err)
	}

	return EmailMessage{
		To:       to,
		Subject:  resetSubject,
		HTMLBody: htmlBody.String(),
		TextBody: textBody.String(),
	}, nil
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
