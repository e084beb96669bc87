package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTool(t *testing.T) {
	for _, tool := range Tools {
		got, ok := ParseTool(string(tool))
		assert.True(t, ok, tool)
		assert.Equal(t, tool, got)
	}

	got, ok := ParseTool(" MEME ")
	assert.True(t, ok)
	assert.Equal(t, ToolMeme, got)

	_, ok = ParseTool("upscale")
	assert.False(t, ok)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
}
