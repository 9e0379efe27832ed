package mail

import (
	"fmt"
	"html/template"
	"strings"
)

type Template string

const (
	TemplateMfaSettingsChanged Template = "mfa_settings_changed"
	TemplateMfaProviderReset   Template = "mfa_provider_reset"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "mfa_settings_changed"}}
<p>Hello {{.Name}},</p>
<p>The multi-factor authentication settings of your organization have been changed.</p>
<p>If you did not expect this change, please contact your administrator.</p>
{{end}}
{{define "mfa_provider_reset"}}
<p>Hello {{.Name}},</p>
<p>The {{.Provider}} multi-factor authentication provider has been removed from your account.</p>
<p>If you did not do this, please contact your administrator immediately.</p>
{{end}}
`))

// HtmlBodyTemplate renders the named template as the mail's HTML body. A
// rendering error surfaces at send time, not at construction.
func HtmlBodyTemplate(name Template, data map[string]any) MailOption {
	return func(m *Mail) {
		var sb strings.Builder
		if err := templates.ExecuteTemplate(&sb, string(name), data); err != nil {
			m.renderErr = fmt.Errorf("failed to render mail template %v: %w", name, err)
			return
		}
		m.htmlBody = sb.String()
	}
}

func TextBody(body string) MailOption {
	return func(m *Mail) { m.textBody = body }
}
