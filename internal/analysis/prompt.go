package analysis

import "strings"

// Gemma chat-turn markers.
const (
	userTurn  = "<start_of_turn>user\n"
	endTurn   = "<end_of_turn>\n"
	modelTurn = "<start_of_turn>model\n"
)

// BuildPrompt formats req as a single Gemma user turn followed by an open model turn.
// It is deterministic; generation continues from the end of the returned string.
func BuildPrompt(req TaskRequest) string {
	body := req.Input
	if req.Context != "" {
		body = req.Context + "\n\n" + req.Input
	}
	var b strings.Builder
	b.Grow(len(userTurn) + len(body) + len(endTurn) + len(modelTurn) + 64)
	b.WriteString(userTurn)
	b.WriteString(req.Type.Prefix())
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString(endTurn)
	b.WriteString(modelTurn)
	return b.String()
}
