package notify

import (
	"fmt"
	"strings"
)

// Template is a message with {{placeholder}} slots. Substitution is a
// plain string replace, deliberately not text/template: the bodies also
// go out as SMS and must stay free of markup and escaping rules.
type Template struct {
	Subject string // email only; ignored for sms
	Body    string
}

const (
	TemplateWelcome         = "welcome"
	TemplateOTPVerification = "otp_verification"
)

var templates = map[string]Template{
	TemplateWelcome: {
		Subject: "Welcome to {{company}}",
		Body: "Hi {{first_name}}, welcome to {{company}}! " +
			"Your verification code is {{code}}. It expires in {{minutes}} minutes.",
	},
	TemplateOTPVerification: {
		Subject: "Your {{company}} verification code",
		Body: "Hi {{first_name}}, your verification code is {{code}}. " +
			"It expires in {{minutes}} minutes.",
	},
}

// Render substitutes vars into the named template's subject and body.
// Unknown placeholders are left as-is; unknown templates are an error.
func Render(name string, vars map[string]string) (subject, body string, err error) {
	tpl, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", name)
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace(tpl.Subject), r.Replace(tpl.Body), nil
}
