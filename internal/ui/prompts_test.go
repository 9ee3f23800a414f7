package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArcaneThemeNotNil(t *testing.T) {
	assert.NotNil(t, ArcaneTheme())
}

func TestRenderHelpers(t *testing.T) {
	assert.Contains(t, SuccessStyle.Render("done"), "done")
	assert.Contains(t, BoxStyle.Render("cd shop"), "cd shop")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
}
