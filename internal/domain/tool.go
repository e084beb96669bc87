package domain

import "strings"

// Tool selects the kind of image generation requested.
type Tool string

const (
	ToolStyling  Tool = "styling"
	ToolRoom     Tool = "room"
	ToolAvatar   Tool = "avatar"
	ToolMeme     Tool = "meme"
	ToolBgRemove Tool = "bgremove"
)

// Tools lists every supported tool in display order.
var Tools = []Tool{ToolStyling, ToolRoom, ToolAvatar, ToolMeme, ToolBgRemove}

func (t Tool) Valid() bool {
	for _, known := range Tools {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTool normalises s and reports whether it names a supported tool.
func ParseTool(s string) (Tool, bool) {
	t := Tool(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}
