package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/papergen/internal/docs"
	"github.com/csheth/papergen/internal/export"
	"github.com/csheth/papergen/internal/session"
)

const heroTagline = "Turn lecture PDFs and scans into notes, MCQs, exam papers or a study chat."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	maxFormWidth              = 72
)

const (
	noFilesNotice       = "Please upload at least one file!"
	nothingToReadNotice = "There is no text to read yet!"
	speechMissingNotice = "Speech synthesis is unavailable. Install espeak-ng or set speech.command."

	instructionsPlaceholder  = "E.g., Focus only on Chapter 3..."
	firstQuestionPlaceholder = "Ask your first question here..."
	chatEmptyPlaceholder     = "Ask me anything about your documents..."
	chatInputPlaceholder     = "Type your question..."
	filePathsPlaceholder     = "lecture.pdf slides.png (Enter to load)"
	chatThinkingLabel        = "Thinking..."
	generateButtonLabel      = "Generate Content"
	chatButtonLabel          = "Start Chat"
	userRoleLabel            = "You"
	assistantRoleLabel       = "PaperGen AI"
	previewEmptyNotice       = "Nothing generated yet."
)

type formField int

const (
	fieldFiles formField = iota
	fieldMode
	fieldDifficulty
	fieldLanguage
	fieldInstructions
	fieldSubmit
)

var formFieldOrder = []formField{
	fieldFiles,
	fieldMode,
	fieldDifficulty,
	fieldLanguage,
	fieldInstructions,
	fieldSubmit,
}

type filesLoadedMsg struct {
	files []docs.SourceFile
	err   error
}

type generateResultMsg struct {
	token  session.Token
	result string
	err    error
}

type chatReplyMsg struct {
	token session.Token
	reply string
	err   error
}

type settleMsg struct {
	token session.Token
}

type exportResultMsg struct {
	result export.Result
	ok     bool
	err    error
}

type speechDoneMsg struct {
	id uint64
}

type copyResultMsg struct {
	chars int
	err   error
}

type tickFunc func(time.Duration, func(time.Time) tea.Msg) tea.Cmd
