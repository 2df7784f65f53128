package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		normalized string
		want       string
	}{
		{
			name:       "for the position",
			normalized: "Thank you for applying for the Senior Go Developer position at Acme.\nWe will review.",
			want:       "Senior Go Developer",
		},
		{
			name:       "russian vacancy in quotes",
			normalized: "Ваша заявка на вакансию «Системный администратор» в компании Яндекс",
			want:       "Системный администратор",
		},
		{
			name:       "apply now to",
			normalized: "Apply now to ‘Data Engineer’\nMore jobs below",
			want:       "Data Engineer",
		},
		{
			name:       "subject prefix",
			subject:    "Backend Engineer: 5 new jobs",
			normalized: "Here are new jobs",
			want:       "Backend Engineer",
		},
		{
			name:    "quoted subject fragment",
			subject: `New opening "Platform Engineer" today`,
			want:    "Platform Engineer",
		},
		{
			name:       "sent-to subject yields nothing",
			subject:    "Your application was sent to Acme Corp",
			normalized: "Your application was sent to Acme Corp",
			want:       "",
		},
		{
			name:       "first meaningful line",
			normalized: "From: a@b.com\n-----\nHi\nSenior SRE\nDetails",
			want:       "Senior SRE",
		},
		{
			name: "empty input",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Role(tt.subject, tt.normalized))
		})
	}
}

func TestCleanupRole(t *testing.T) {
	assert.Equal(t, "Backend Engineer", cleanupRole(" Backend  Engineer: "))
	assert.Equal(t, "", cleanupRole("x"))
	assert.Equal(t, "", cleanupRole("Subject"))
	assert.Equal(t, "", cleanupRole("Thank you for your interest"))
	assert.Equal(t, "", cleanupRole("at Acme"))
	assert.Equal(t, "", cleanupRole("one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty"))
}
