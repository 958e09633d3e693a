package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"nuref/internal/adapters/tui/styles"
)

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// renderMessage styles the current message, if any
func (s *ViewState) renderMessage() string {
	if s.Message == "" {
		return ""
	}
	if s.MessageErr {
		return styles.ErrorMsg.Render(s.Message)
	}
	return styles.Success.Render(s.Message)
}

// Switch messages route the app between views
type (
	SwitchToHelpMsg   struct{}
	SwitchToReviewMsg struct{}
)

// renderHelpLine joins key bindings into a bullet-separated help line
func renderHelpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("%s %s", styles.HelpKey.Render(h.Key), styles.HelpDesc.Render(h.Desc)))
	}
	return strings.Join(parts, styles.HelpSeparator.String())
}
