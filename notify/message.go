package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a single reminder email with plain-text and HTML bodies.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// SubjectPrefix starts the subject of every reminder email.
const SubjectPrefix = "⏰ Task Reminder: "

var htmlBody = template.Must(template.New("reminder").Parse(`<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 10px;">
      <h2 style="color: #1f77b4; border-bottom: 2px solid #1f77b4; padding-bottom: 10px;">
        📋 Task Reminder
      </h2>
      <div style="background-color: #f0f8ff; padding: 15px; border-radius: 5px; margin: 20px 0;">
        {{.}}
      </div>
      <div style="margin-top: 20px; padding-top: 20px; border-top: 1px solid #ddd; text-align: center; color: #666;">
        <p style="font-size: 12px;">
          This is an automated reminder from TaskPilot
        </p>
      </div>
    </div>
  </body>
</html>
`))

// BuildMessage formats a reminder for title with body as its content.
// The HTML part escapes body and turns line breaks into <br>.
func BuildMessage(from, to, title, body string) (Message, error) {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	escaped := make([]string, len(lines))
	for i, l := range lines {
		escaped[i] = template.HTMLEscapeString(l)
	}
	var buf bytes.Buffer
	if err := htmlBody.Execute(&buf, template.HTML(strings.Join(escaped, "<br>"))); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	return Message{
		From:    from,
		To:      to,
		Subject: SubjectPrefix + title,
		Text:    body,
		HTML:    buf.String(),
	}, nil
}

// MIME renders m as a multipart/alternative RFC 5322 message.
func (m Message) MIME(now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, part := range []struct{ contentType, content string }{
		{"text/plain; charset=UTF-8", m.Text},
		{"text/html; charset=UTF-8", m.HTML},
	} {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", part.contentType)
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		pw, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(part.content)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&out, "%s: %s\r\n", k, v) }
	header("From", m.From)
	header("To", m.To)
	header("Subject", mime.QEncoding.Encode("UTF-8", m.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@taskpilot>", uuid.NewString()))
	header("MIME-Version", "1.0")
	header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary()))
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
