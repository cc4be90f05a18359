package notifications

import (
	"bytes"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer delivers a rendered notification email. Delivery failures are the
// caller's problem to isolate; implementations just report them.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends mail through the SMTP server configured in the
// environment.
type SMTPMailer struct {
	host string
	port int
	user string
	pass string
}

func NewSMTPMailer() *SMTPMailer {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return &SMTPMailer{
		host: os.Getenv("SMTP_HOST"),
		port: port,
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASS"),
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.user)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	return d.DialAndSend(msg)
}

// TemplateData is the payload handed to notification email templates.
type TemplateData struct {
	RecipientName  string
	AuthorName     string
	PostTitle      string
	CommentContent string
	PostURL        string
	UnsubscribeURL string
	IsReply        bool
}

// Template asset names.
const (
	TemplateComment = "comment-notification"
	TemplateReply   = "reply-notification"
)

const defaultTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
  <h2>{{if .IsReply}}New reply to your comment{{else}}New comment on your post{{end}}</h2>
  <p>Hello {{.RecipientName}},</p>
  <p>{{.AuthorName}} {{if .IsReply}}replied to your comment{{else}}commented on your post{{end}}.</p>
  <blockquote>{{.CommentContent}}</blockquote>
  <p><a href="{{.PostURL}}">View the post</a></p>
  <p><a href="{{.UnsubscribeURL}}">Change your notification settings</a></p>
</body>
</html>`

// TemplateStore loads named HTML templates from a directory, falling back to
// a built-in default when the asset is missing or broken.
type TemplateStore struct {
	dir string
}

func NewTemplateStore(dir string) *TemplateStore {
	if dir == "" {
		dir = "templates/email"
	}
	return &TemplateStore{dir: dir}
}

func (s *TemplateStore) Render(name string, data TemplateData) (string, error) {
	tmpl, err := template.ParseFiles(filepath.Join(s.dir, name+".html"))
	if err != nil {
		log.Printf("Template %s unavailable, using default: %v", name, err)
		tmpl = template.Must(template.New("default").Parse(defaultTemplate))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
