package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	data := map[string]string{"StudentName": "Bob", "CourseID": "42", "CourseTitle": "Intro <Go>"}

	t.Run("template", func(t *testing.T) {
		msg := EmailMessage{
			To:           []mail.Address{{Name: "Bob", Address: "bob@example.com"}},
			Subject:      "Course Enrollment Confirmation",
			TemplateName: "course_enrollment",
			TemplateData: data,
		}
		require.NoError(t, msg.Render())
		assert.True(t, msg.HasRecipients())
		assert.True(t, msg.HasContent())

		assert.Contains(t, msg.TextContent, "Hello Bob,")
		assert.Contains(t, msg.TextContent, "You have been enrolled in the course: Intro <Go>")
		assert.Contains(t, msg.TextContent, Conf.FrontendBaseURL+"/courses/42")
		assert.Contains(t, msg.TextContent, "The "+Conf.AppName+" Team")

		assert.Contains(t, msg.HTMLContent, "<strong>Intro &lt;Go&gt;</strong>")
		assert.Contains(t, msg.HTMLContent, "<p>Hello Bob,</p>")
	})

	t.Run("plain body", func(t *testing.T) {
		msg := EmailMessage{BodyStr: "hi"}
		require.NoError(t, msg.Render())
		assert.Equal(t, "hi", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
		assert.False(t, msg.HasRecipients())
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := EmailMessage{TemplateName: "lol"}
		assert.EqualError(t, msg.Render(), `email template "lol" not found`)
		assert.False(t, msg.HasContent())
	})
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Ada", CleanString("  Ada \n"))
	assert.Equal(t, "ada@example.com", CleanString(" ADA@Example.com ", true))
	assert.Equal(t, "", CleanString("   "))
}
