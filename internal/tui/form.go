package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/papergen/internal/session"
)

type uploadForm struct {
	focus        formField
	paths        textinput.Model
	instructions textarea.Model
	mode         int
	difficulty   int
	language     int
}

func newUploadForm() uploadForm {
	paths := textinput.New()
	paths.Placeholder = filePathsPlaceholder
	paths.CharLimit = 1024
	paths.Width = maxFormWidth - 4

	instructions := textarea.New()
	instructions.Placeholder = instructionsPlaceholder
	instructions.ShowLineNumbers = false
	instructions.CharLimit = 2000
	instructions.SetWidth(maxFormWidth - 2)
	instructions.SetHeight(3)

	form := uploadForm{
		paths:        paths,
		instructions: instructions,
	}
	form.setFocus(fieldFiles)
	return form
}

func (f *uploadForm) params() session.Params {
	return session.Params{
		Mode:               session.Modes[f.mode],
		Difficulty:         session.Difficulties[f.difficulty],
		Language:           session.Languages[f.language],
		CustomInstructions: f.instructions.Value(),
	}
}

func (f *uploadForm) selectedMode() session.Mode {
	return session.Modes[f.mode]
}

func (f *uploadForm) setFocus(field formField) {
	f.focus = field
	f.paths.Blur()
	f.instructions.Blur()
	switch field {
	case fieldFiles:
		f.paths.Focus()
	case fieldInstructions:
		f.instructions.Focus()
	}
}

func (f *uploadForm) move(delta int) {
	idx := 0
	for i, field := range formFieldOrder {
		if field == f.focus {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(formFieldOrder)) % len(formFieldOrder)
	f.setFocus(formFieldOrder[idx])
}

// cycle steps the focused selector. It reports false when the focus is not
// on a selector.
func (f *uploadForm) cycle(delta int) bool {
	wrap := func(value, size int) int {
		return (value + delta + size) % size
	}
	switch f.focus {
	case fieldMode:
		f.mode = wrap(f.mode, len(session.Modes))
		f.syncPlaceholder()
	case fieldDifficulty:
		f.difficulty = wrap(f.difficulty, len(session.Difficulties))
	case fieldLanguage:
		f.language = wrap(f.language, len(session.Languages))
	default:
		return false
	}
	return true
}

func (f *uploadForm) syncPlaceholder() {
	if f.selectedMode() == session.ModeChat {
		f.instructions.Placeholder = firstQuestionPlaceholder
		return
	}
	f.instructions.Placeholder = instructionsPlaceholder
}

func (f *uploadForm) submitLabel() string {
	if f.selectedMode() == session.ModeChat {
		return chatButtonLabel
	}
	return generateButtonLabel
}

func (f *uploadForm) setWidth(width int) {
	if width > maxFormWidth {
		width = maxFormWidth
	}
	f.paths.Width = width - 4
	f.instructions.SetWidth(width - 2)
}

// updateInput forwards a key to the focused text widget.
func (f *uploadForm) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldFiles:
		f.paths, cmd = f.paths.Update(msg)
	case fieldInstructions:
		f.instructions, cmd = f.instructions.Update(msg)
	}
	return cmd
}
