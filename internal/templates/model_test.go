package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute(t *testing.T) {
	out := Substitute("Hi {{name}}, your {{thing}} is ready. Bye {{name}}.", map[string]string{
		"name":  "Alex",
		"thing": "quote",
	})
	assert.Equal(t, "Hi Alex, your quote is ready. Bye Alex.", out)
}

func TestSubstituteLeavesUnknownMarkers(t *testing.T) {
	out := Substitute("Hi {{nmae}}", map[string]string{"name": "Alex"})
	assert.Equal(t, "Hi {{nmae}}", out)
}

func TestRenderSubjectAndBody(t *testing.T) {
	tpl := EmailTemplate{
		Subject: "Your {{event}} quote",
		Body:    "<p>Hi {{name}}</p>",
	}
	subject, body := tpl.Render(map[string]string{"event": "Recital", "name": "Alex"})
	assert.Equal(t, "Your Recital quote", subject)
	assert.Equal(t, "<p>Hi Alex</p>", body)
}
