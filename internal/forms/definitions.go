package forms

import (
	"net/http"
	"net/url"
)

var contact = Definition{
	Kind:      Contact,
	Required:  []string{FieldName, FieldEmail, FieldMessage},
	Optional:  []string{FieldSource},
	StoreFile: "contact.csv",
	Header:    []string{"date", "name", "email", "message", "source", "ip"},
	Row: func(s Submission) []string {
		return []string{s.SubmittedAt, s.Name, s.Email, s.Message, s.Source, s.IP}
	},
	DefaultSource:     "contact form",
	ValidationStatus:  http.StatusUnprocessableEntity,
	ValidationMessage: "Please provide a name and a valid email.",
	Redirect:          func(Submission) string { return "/thank-you.html" },
	Admin: Template{
		Subject: "New contact – {{.SiteName}}",
		Body: `New contact submission:

Name:  {{.Sub.Name}}
Email: {{.Sub.Email}}
Source: {{.Sub.Source}}
Message: {{.Sub.Message}}
IP: {{.Sub.IP}}
When: {{.Sub.SubmittedAt}}
`,
	},
	AutoReply: Template{
		Subject: "Thanks for Contacting {{.SiteName}}",
		Body: `Hi {{.Sub.Name}},

Thank you for your interest in collaborating with {{.SiteName}}. Expect my response, in no more than two business days.

Useful links:
• Blog: {{.BaseURL}}/blog/index.html
• Services Page: {{.BaseURL}}/services.html
• Sustainability Page: {{.BaseURL}}/sustainability.html
• Echoes of Valor Excerpt: {{.BaseURL}}/blog/#echoes
• Free Toolkits: {{.BaseURL}}/toolkits/index.html

Cheers,
Brian
`,
	},
}

var newsletter = Definition{
	Kind:      Newsletter,
	Required:  []string{FieldName, FieldEmail},
	Optional:  []string{FieldSource},
	StoreFile: "newsletter.csv",
	Header:    []string{"date", "name", "email", "source", "ip"},
	Row: func(s Submission) []string {
		return []string{s.SubmittedAt, s.Name, s.Email, s.Source, s.IP}
	},
	DefaultSource:     "newsletter",
	ValidationStatus:  http.StatusUnprocessableEntity,
	ValidationMessage: "Please provide a name and a valid email.",
	Redirect:          func(Submission) string { return "/nl-thank-you.html" },
	Admin: Template{
		Subject: "New newsletter signup – {{.SiteName}}",
		Body: `New subscriber:

Name:  {{.Sub.Name}}
Email: {{.Sub.Email}}
Source: {{.Sub.Source}}
IP: {{.Sub.IP}}
When: {{.Sub.SubmittedAt}}
`,
	},
	AutoReply: Template{
		Subject: "You’re in! Thanks for subscribing to {{.SiteName}}",
		Body: `Hi {{.Sub.Name}},

Thanks for joining the {{.SiteName}} newsletter. You’ll get select posts, toolkits, and the historical-fiction updates first.

Useful links:
• Blog: {{.BaseURL}}/blog/index.html
• Services Page: {{.BaseURL}}/services.html
• Sustainability Page: {{.BaseURL}}/sustainability.html
• Echoes of Valor Excerpt: {{.BaseURL}}/blog/#echoes
• Free Toolkits: {{.BaseURL}}/toolkits/index.html

Cheers,
Brian
`,
	},
}

var download = Definition{
	Kind:      Download,
	Required:  []string{FieldName, FieldEmail, FieldResource},
	Optional:  []string{FieldSource, FieldFormName},
	StoreFile: "leads.csv",
	Header:    []string{"date", "name", "email", "resource", "ip", "ua", "source", "form"},
	Row: func(s Submission) []string {
		return []string{s.SubmittedAt, s.Name, s.Email, s.Resource, s.IP, s.UserAgent, s.Source, s.FormName}
	},
	DefaultSource:     "site_download",
	DefaultFormName:   "download_form",
	RequireCSRF:       true,
	ValidationStatus:  http.StatusBadRequest,
	ValidationMessage: "Please complete all required fields.",
	Redirect: func(s Submission) string {
		return "/dl-thank-you.html?" + url.Values{"file": {s.Resource}}.Encode()
	},
	Admin: Template{
		Subject: "New download lead: {{.Sub.ResourceTitle}}",
		Body: `Lead captured on {{.SiteName}}

Name:     {{.Sub.Name}}
Email:    {{.Sub.Email}}
Resource: {{.Sub.ResourceTitle}} ({{.Sub.Resource}})
Link:     {{.Sub.ResourceLink}}
IP:       {{.Sub.IP}}
UA:       {{.Sub.UserAgent}}
Source:   {{.Sub.Source}}
Form ID:  {{.Sub.FormName}}
Time:     {{.Sub.SubmittedAt}}
`,
	},
	AutoReply: Template{
		Subject: "Your download: {{.Sub.ResourceTitle}}",
		Body: `Hi {{.Sub.Name}},

Thanks for requesting {{.Sub.ResourceTitle}}.
You can download it here:
{{.Sub.ResourceLink}}

Helpful links:
• Homepage: {{.BaseURL}}/index.html
• Blog: {{.BaseURL}}/blog/index.html
• Services page: {{.BaseURL}}/services.html
• Sustainability page: {{.BaseURL}}/sustainability.html
• All free toolkits: {{.BaseURL}}/toolkits/index.html

-- 
{{.SiteName}}
{{.BaseURL}}
`,
	},
}

// Definitions returns the built-in form kinds keyed by Kind.
func Definitions() map[Kind]Definition {
	return map[Kind]Definition{
		Contact:    contact,
		Newsletter: newsletter,
		Download:   download,
	}
}

// Lookup returns the definition for kind.
func Lookup(kind Kind) (Definition, bool) {
	d, ok := Definitions()[kind]
	return d, ok
}
