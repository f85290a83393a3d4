package tui

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/papergen/internal/session"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
	chatHeight     int
	formWidth      int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 20,
		chatHeight:     16,
		formWidth:      maxFormWidth,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	l.formWidth = innerWidth
	if l.formWidth > maxFormWidth {
		l.formWidth = maxFormWidth
	}
	// toolbar, status bar, notices and the key legend
	const chrome = 8
	const chatComposer = 4
	usable := height - chrome
	if usable < 8 {
		usable = 8
	}
	l.viewportHeight = usable
	l.chatHeight = usable - chatComposer
	if l.chatHeight < 4 {
		l.chatHeight = 4
	}
}

func buildChatTranscript(messages []session.Message, width int) string {
	if len(messages) == 0 {
		return helperStyle.Render(chatEmptyPlaceholder)
	}
	var b strings.Builder
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	for idx, msg := range messages {
		label := assistantLabelStyle.Render(roleLabel(msg.Role))
		if msg.Role == session.RoleUser {
			label = userLabelStyle.Render(roleLabel(msg.Role))
		}
		b.WriteString(label)
		b.WriteRune('\n')
		b.WriteString(indentMultiline(wordwrap.String(msg.Content, wrap), "  "))
		if idx < len(messages)-1 {
			b.WriteRune('\n')
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func roleLabel(role session.Role) string {
	if role == session.RoleUser {
		return userRoleLabel
	}
	return assistantRoleLabel
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}
