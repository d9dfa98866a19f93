// Package mail renders notification templates and hands them to an outbound transport.
package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

//go:embed templates/*
var templateFS embed.FS

var subjects = map[string]string{
	ports.TemplateVerification:  "メールアドレスの確認",
	ports.TemplateEmailChange:   "メールアドレス変更の確認",
	ports.TemplateEmailChanged:  "メールアドレスが変更されました",
	ports.TemplatePasswordReset: "パスワードの再設定",
}

// Rendered is a notification ready to be sent.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer turns a ports.Notification into subject, plain text and HTML bodies.
type Renderer struct {
	text map[string]*texttemplate.Template
	html map[string]*htmltemplate.Template
}

// NewRenderer parses every known template up front so a broken template fails at startup.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		text: make(map[string]*texttemplate.Template, len(subjects)),
		html: make(map[string]*htmltemplate.Template, len(subjects)),
	}
	for name := range subjects {
		tt, err := texttemplate.New(name+".txt").Option("missingkey=zero").ParseFS(templateFS, "templates/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("parse %s text template: %w", name, err)
		}
		ht, err := htmltemplate.New(name+".html").Option("missingkey=zero").ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s html template: %w", name, err)
		}
		r.text[name] = tt
		r.html[name] = ht
	}
	return r, nil
}

func (r *Renderer) Render(n ports.Notification) (*Rendered, error) {
	subject, ok := subjects[n.Template]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", n.Template)
	}

	var text, html bytes.Buffer
	if err := r.text[n.Template].Execute(&text, n.Data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", n.Template, err)
	}
	if err := r.html[n.Template].Execute(&html, n.Data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", n.Template, err)
	}

	return &Rendered{Subject: subject, Text: text.String(), HTML: html.String()}, nil
}
