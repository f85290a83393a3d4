package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/csheth/papergen/internal/session"
)

func (m *model) View() string {
	switch m.session.View() {
	case session.ViewLanding:
		return m.viewLanding()
	case session.ViewUpload:
		return m.viewUpload()
	case session.ViewPreview:
		return m.viewPreview()
	default:
		return ""
	}
}

func (m *model) viewLanding() string {
	return joinNonEmpty([]string{
		m.heroView(),
		helperStyle.Render("Press any key or click to begin."),
	})
}

func (m *model) viewUpload() string {
	parts := []string{
		taglineStyle.Render("PaperGen • " + heroTagline),
		formBoxStyle.Width(m.layout.formWidth).Render(m.formView()),
	}
	parts = append(parts, m.noticeLines()...)
	parts = append(parts, m.sessionMeterView(), m.keyLegendView())
	return joinNonEmpty(parts)
}

func (m *model) formView() string {
	files := m.session.Files()
	fileHint := "Accepted: PDF, PNG, JPEG, WebP."
	switch {
	case m.loadingFiles:
		fileHint = m.spinner.View() + " Reading files…"
	case files.Len() > 1:
		fileHint = fmt.Sprintf("%d Files Selected", files.Len())
	case files.Len() == 1:
		fileHint = "Selected: " + files.Display()
	}
	if pages := files.TotalPages(); pages > 0 && !m.loadingFiles {
		fileHint += fmt.Sprintf(" (%d PDF pages)", pages)
	}
	if excerpt := files.Excerpt(); excerpt != "" && !m.loadingFiles {
		width := max(m.layout.formWidth-8, 10)
		fileHint += "\n“" + truncate.StringWithTail(excerpt, uint(width), "…") + "”"
	}

	params := m.form.params()
	rows := []string{
		m.fieldLabel(fieldFiles, "1. Source Files (PDF or Image)"),
		m.form.paths.View(),
		helperStyle.Render(fileHint),
		"",
		m.fieldLabel(fieldMode, "2. Generation Mode"),
		m.selectorView(fieldMode, params.Mode.Label()),
		"",
		m.fieldLabel(fieldDifficulty, "3. Difficulty"),
		m.selectorView(fieldDifficulty, string(params.Difficulty)),
		"",
		m.fieldLabel(fieldLanguage, "4. Output Language"),
		m.selectorView(fieldLanguage, string(params.Language)),
		"",
		m.fieldLabel(fieldInstructions, "5. Custom Instructions"),
		m.form.instructions.View(),
		"",
		m.buttonView(),
	}
	return strings.Join(rows, "\n")
}

func (m *model) fieldLabel(field formField, text string) string {
	if m.form.focus == field {
		return focusedLabelStyle.Render("▸ " + text)
	}
	return labelStyle.Render("  " + text)
}

func (m *model) selectorView(field formField, value string) string {
	if m.form.focus == field {
		return focusedSelectorStyle.Render("‹ " + value + " ›")
	}
	return selectorStyle.Render("  " + value)
}

// buttonView renders the submit button for the current request status.
func (m *model) buttonView() string {
	switch m.session.Status() {
	case session.StatusLoading:
		return buttonLoadingStyle.Render(m.spinner.View() + " Processing")
	case session.StatusSuccess:
		return buttonSuccessStyle.Render("✓ Done")
	case session.StatusError:
		return buttonErrorStyle.Render("✗ Failed")
	}
	label := m.form.submitLabel()
	if m.form.focus == fieldSubmit {
		return buttonFocusStyle.Render(label)
	}
	return buttonIdleStyle.Render(label)
}

func (m *model) viewPreview() string {
	parts := []string{m.toolbarView()}
	if m.chatMode() {
		m.refreshChatIfChanged()
		parts = append(parts, m.chatViewport.View())
		if m.session.ChatBusy() {
			parts = append(parts, helperStyle.Render(m.spinner.View()+" "+chatThinkingLabel))
		}
		parts = append(parts, m.chatInput.View())
	} else {
		m.refreshPreviewIfDirty()
		parts = append(parts, m.viewport.View())
	}
	parts = append(parts, m.noticeLines()...)
	parts = append(parts, m.sessionMeterView())
	if m.helpVisible || m.chatMode() {
		parts = append(parts, m.keyLegendView())
	}
	return joinNonEmpty(parts)
}

func (m *model) toolbarView() string {
	title := fmt.Sprintf("%s / %s", m.session.Params().Mode.Short(), m.session.Files().Display())
	return toolbarStyle.Render(title)
}

func (m *model) noticeLines() []string {
	var lines []string
	if m.errorMessage != "" {
		lines = append(lines, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.exporting {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		lines = append(lines, helperStyle.Render(message))
	}
	return lines
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderLogo(),
		taglineStyle.Render(heroTagline),
	)
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func (m *model) sessionMeterView() string {
	stats := []string{
		fmt.Sprintf("Status %s", m.session.Status()),
		fmt.Sprintf("Files %d", m.session.Files().Len()),
		fmt.Sprintf("Language %s", m.session.Params().Language),
	}
	if m.chatMode() && m.session.View() == session.ViewPreview {
		stats = append(stats, fmt.Sprintf("Messages %d", len(m.session.Messages())))
	}
	if jobBadges := m.jobStatusBadges(); len(jobBadges) > 0 {
		stats = append(stats, jobBadges...)
	}
	meter := statusBarStyle.Render(strings.Join(stats, "  •  "))
	if m.speaking {
		meter = lipgloss.JoinHorizontal(lipgloss.Top, meter, " ", speakingBadgeStyle.Render("♪ speaking"))
	}
	return meter
}

func (m *model) jobStatusBadges() []string {
	var badges []string
	for _, snapshot := range m.jobStates {
		if snapshot.Status == jobStatusRunning {
			badges = append(badges, string(snapshot.Kind)+"…")
		}
	}
	sort.Strings(badges)
	return badges
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyHints() []keyHint {
	switch m.session.View() {
	case session.ViewUpload:
		return []keyHint{
			{"Tab", "Next field"},
			{"←/→", "Change option"},
			{"Enter", "Load files / submit"},
			{"Ctrl+S", "Submit"},
			{"Ctrl+C", "Quit"},
		}
	case session.ViewPreview:
		if m.chatMode() {
			return []keyHint{
				{"Enter", "Send"},
				{"PgUp/PgDn", "Scroll"},
				{"Esc", "Back"},
				{"Ctrl+N", "Create new"},
			}
		}
		hints := []keyHint{
			{"↑/↓", "Scroll"},
			{"b", "Back"},
			{"n", "Create new"},
			{"p", "Save PDF"},
			{"y", "Copy"},
		}
		if m.session.Content() != "" {
			label := "Speak"
			if m.speaking {
				label = "Stop speaking"
			}
			hints = append(hints, keyHint{"s", label})
		}
		return append(hints, keyHint{"?", "Toggle keys"})
	}
	return nil
}

func (m *model) keyLegendView() string {
	hints := m.keyHints()
	if len(hints) == 0 {
		return ""
	}
	cells := make([]string, 0, len(hints))
	for _, hint := range hints {
		key := keyStyle.Render(hint.Key)
		desc := keyDescStyle.Render(" " + hint.Description + "  ")
		cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
	}
	return legendBoxStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width += 1
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			if y+1 < height && x+1 < width {
				grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
			}
		}
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			grid[y][x] = cell{r: r, style: logoFaceStyle}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}
