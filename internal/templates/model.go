package templates

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("email template not found")
	ErrDuplicateName = errors.New("email template name already exists")
)

// EmailTemplate is an owner-editable message. Subject and body may contain
// {{placeholder}} markers substituted at send time.
type EmailTemplate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Substitute replaces {{key}} markers with their values. Unknown markers are
// left in place so a typo is visible in the delivered mail rather than
// silently dropped.
func Substitute(text string, vars map[string]string) string {
	for key, value := range vars {
		text = strings.ReplaceAll(text, "{{"+key+"}}", value)
	}
	return text
}

// Render produces the final subject and body.
func (t EmailTemplate) Render(vars map[string]string) (string, string) {
	return Substitute(t.Subject, vars), Substitute(t.Body, vars)
}
