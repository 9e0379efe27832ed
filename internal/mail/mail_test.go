package mail

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

func TestNewAssemblesMail(t *testing.T) {
	g := NewWithT(t)
	m := New(
		To("one@example.com", "two@example.com"),
		ToWithName("Ada Lovelace", "ada@example.com"),
		Subject("Something happened"),
		TextBody("plain text"),
	)
	g.Expect(m.To).To(HaveLen(3))
	g.Expect(m.To[0].Address).To(Equal("one@example.com"))
	g.Expect(m.To[0].Name).To(BeEmpty())
	g.Expect(m.To[2].Name).To(Equal("Ada Lovelace"))
	g.Expect(m.To[2].Address).To(Equal("ada@example.com"))
	g.Expect(m.Subject).To(Equal("Something happened"))
	g.Expect(m.textBody).To(Equal("plain text"))
}

func TestHtmlBodyTemplateRenders(t *testing.T) {
	g := NewWithT(t)
	m := New(HtmlBodyTemplate(TemplateMfaProviderReset, map[string]any{
		"Name":     "Ada Lovelace",
		"Provider": "totp",
	}))
	g.Expect(m.renderErr).NotTo(HaveOccurred())
	g.Expect(m.htmlBody).To(ContainSubstring("Hello Ada Lovelace"))
	g.Expect(m.htmlBody).To(ContainSubstring("totp"))
}

func TestSendSurfacesRenderError(t *testing.T) {
	g := NewWithT(t)
	m := New(HtmlBodyTemplate(Template("no_such_template"), nil))
	mailer := NewNoopMailer(zap.NewNop())
	err := mailer.Send(context.Background(), m)
	g.Expect(err).To(MatchError(ContainSubstring("no_such_template")))
}
