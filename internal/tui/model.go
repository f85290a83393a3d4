// Package tui is the bubbletea front end. It owns the session controller and
// turns backend replies, timers, exports and speech completions into messages.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/csheth/papergen/internal/backend"
	"github.com/csheth/papergen/internal/docs"
	"github.com/csheth/papergen/internal/export"
	"github.com/csheth/papergen/internal/session"
	"github.com/csheth/papergen/internal/speech"
)

// Config wires runtime collaborators into the TUI program.
type Config struct {
	Backend   backend.Client
	Exporter  *export.Pipeline
	Speech    *speech.Toggle
	Loader    func(paths []string) ([]docs.SourceFile, error)
	Clipboard func(string) error
	Logger    *zap.Logger
	// InitialPaths are loaded as the file selection on start.
	InitialPaths []string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Loader == nil {
		config.Loader = docs.Load
	}
	if config.Speech == nil {
		config.Speech = speech.NewToggle(nil, config.Logger)
	}
	if config.Exporter == nil {
		config.Exporter = export.NewPipeline(export.Config{Logger: config.Logger})
	}

	chatInput := textinput.New()
	chatInput.Placeholder = chatInputPlaceholder
	chatInput.CharLimit = 2000
	chatInput.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true
	chat := viewport.New(80, 16)
	chat.MouseWheelEnabled = true

	form := newUploadForm()
	if len(config.InitialPaths) > 0 {
		form.paths.SetValue(joinPaths(config.InitialPaths))
	}

	return &model{
		config:       config,
		logger:       config.Logger,
		session:      session.New(session.WithLogger(config.Logger)),
		jobs:         newJobBus(config.Logger),
		jobStates:    map[string]jobSnapshot{},
		tick:         tea.Tick,
		layout:       newPageLayout(),
		form:         form,
		chatInput:    chatInput,
		spinner:      spin,
		viewport:     vp,
		chatViewport: chat,
		previewDirty: true,
		infoMessage:  "Press any key to begin.",
	}
}

type model struct {
	config    Config
	logger    *zap.Logger
	session   *session.Controller
	jobs      *jobBus
	jobStates map[string]jobSnapshot
	tick      tickFunc

	layout       pageLayout
	form         uploadForm
	chatInput    textinput.Model
	spinner      spinner.Model
	viewport     viewport.Model
	chatViewport viewport.Model
	markdown     markdownRenderer

	previewDirty     bool
	renderedChatRev  uint64
	renderedChatSize int
	speaking         bool
	exporting        bool
	loadingFiles     bool
	helpVisible      bool
	infoMessage      string
	errorMessage     string
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if paths := parsePaths(m.form.paths.Value()); len(paths) > 0 {
		m.loadingFiles = true
		cmds = append(cmds, m.jobs.Start(jobKindLoad, loadFilesJob(m.config.Loader, paths)))
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		m.jobStates[msg.Snapshot.ID] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		m.jobStates[msg.Snapshot.ID] = msg.Snapshot
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, m.quit()
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case filesLoadedMsg:
		return m, m.handleFilesLoaded(msg)
	case generateResultMsg:
		return m, m.handleGenerateResult(msg)
	case chatReplyMsg:
		m.handleChatReply(msg)
		return m, nil
	case settleMsg:
		m.handleSettle(msg)
		return m, nil
	case exportResultMsg:
		m.handleExportResult(msg)
		return m, nil
	case speechDoneMsg:
		m.speaking = m.config.Speech.Speaking()
		return m, nil
	case copyResultMsg:
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("copy failed: %v", msg.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Copied %d characters to the clipboard.", msg.chars)
		return m, nil
	}
	return m, nil
}

func (m *model) quit() tea.Cmd {
	m.config.Speech.Stop()
	m.session.Close()
	return tea.Quit
}

func (m *model) busy() bool {
	return m.session.Status() == session.StatusLoading || m.session.ChatBusy() || m.exporting || m.loadingFiles
}

func (m *model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch m.session.View() {
	case session.ViewLanding:
		m.enterUpload()
		return m, nil
	case session.ViewPreview:
		var cmd tea.Cmd
		if m.chatMode() {
			m.chatViewport, cmd = m.chatViewport.Update(msg)
		} else {
			m.viewport, cmd = m.viewport.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.session.View() {
	case session.ViewLanding:
		m.enterUpload()
		return m, nil
	case session.ViewUpload:
		return m.handleUploadKey(key)
	case session.ViewPreview:
		if m.chatMode() {
			return m.handleChatKey(key)
		}
		return m.handlePreviewKey(key)
	}
	return m, nil
}

func (m *model) enterUpload() {
	if m.session.Enter() {
		m.form.setFocus(fieldFiles)
		m.infoMessage = "Tab moves between fields, ←/→ change a selection, Ctrl+S submits."
	}
}

func (m *model) handleUploadKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "tab":
		m.form.move(1)
		return m, nil
	case "shift+tab":
		m.form.move(-1)
		return m, nil
	case "ctrl+s":
		return m, m.submitCmd()
	case "left", "h":
		if m.form.cycle(-1) {
			return m, nil
		}
	case "right", "l":
		if m.form.cycle(1) {
			return m, nil
		}
	case "enter":
		switch m.form.focus {
		case fieldFiles:
			cmd := m.loadFilesCmd()
			m.form.move(1)
			return m, cmd
		case fieldSubmit:
			return m, m.submitCmd()
		case fieldMode, fieldDifficulty, fieldLanguage:
			m.form.move(1)
			return m, nil
		}
	}
	return m, m.form.updateInput(key)
}

func (m *model) loadFilesCmd() tea.Cmd {
	paths := parsePaths(m.form.paths.Value())
	if len(paths) == 0 {
		m.errorMessage = noFilesNotice
		return nil
	}
	m.loadingFiles = true
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Reading %d file(s)…", len(paths))
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindLoad, loadFilesJob(m.config.Loader, paths)))
}

func (m *model) handleFilesLoaded(msg filesLoadedMsg) tea.Cmd {
	m.loadingFiles = false
	if msg.err != nil {
		if errors.Is(msg.err, docs.ErrUnsupportedType) {
			m.errorMessage = "Only PDF, PNG, JPEG and WebP files are accepted: " + msg.err.Error()
		} else {
			m.errorMessage = msg.err.Error()
		}
		return nil
	}
	m.session.SelectFiles(msg.files)
	m.errorMessage = ""
	m.infoMessage = "Selected " + m.session.Files().Display() + "."
	return nil
}

// beginSubmit snapshots the form into a fresh run. It reports false when the
// controller rejected the submission.
func (m *model) beginSubmit() (session.Submission, bool) {
	sub, err := m.session.Submit(m.form.params())
	switch {
	case errors.Is(err, session.ErrNoFiles):
		m.errorMessage = noFilesNotice
		return session.Submission{}, false
	case errors.Is(err, session.ErrBusy):
		m.infoMessage = "A request is already in progress."
		return session.Submission{}, false
	case err != nil:
		m.errorMessage = err.Error()
		return session.Submission{}, false
	}
	m.config.Speech.Stop()
	m.speaking = false
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Uploading %s…", m.session.Files().Display())
	m.markPreviewDirty()
	return sub, true
}

func (m *model) submitCmd() tea.Cmd {
	sub, ok := m.beginSubmit()
	if !ok {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindGenerate, generateJob(m.config.Backend, sub)))
}

func (m *model) handleGenerateResult(msg generateResultMsg) tea.Cmd {
	settle, ok := m.session.Complete(msg.token, msg.result, msg.err)
	if !ok {
		return nil
	}
	if msg.err != nil {
		m.errorMessage = fmt.Sprintf("generation failed: %v", msg.err)
		m.infoMessage = ""
	} else {
		m.errorMessage = ""
		m.infoMessage = "Done!"
	}
	m.markPreviewDirty()
	return settleCmd(m.tick, settle)
}

func (m *model) handleSettle(msg settleMsg) {
	before := m.session.View()
	if !m.session.Settle(msg.token) {
		return
	}
	if before != session.ViewPreview && m.session.View() == session.ViewPreview {
		m.enterPreview()
		return
	}
	if m.errorMessage != "" {
		m.infoMessage = "Adjust the form and try again."
	}
}

func (m *model) enterPreview() {
	m.markPreviewDirty()
	m.viewport.GotoTop()
	m.infoMessage = ""
	if m.chatMode() {
		m.chatInput.SetValue("")
		m.chatInput.Focus()
	} else {
		m.chatInput.Blur()
	}
}

func (m *model) chatMode() bool {
	return m.session.Params().Mode == session.ModeChat
}

func (m *model) handlePreviewKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc", "b":
		m.back()
		return m, nil
	case "n":
		m.startNew()
		return m, nil
	case "s":
		return m, m.speakCmd()
	case "p":
		return m, m.exportCmd()
	case "y":
		return m, m.copyCmd()
	case "?":
		m.helpVisible = !m.helpVisible
		return m, nil
	case "g", "home":
		m.viewport.GotoTop()
		return m, nil
	case "G", "end":
		m.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) handleChatKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.back()
		return m, nil
	case "ctrl+n":
		m.startNew()
		return m, nil
	case "enter":
		return m, m.sendTurnCmd()
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.chatViewport, cmd = m.chatViewport.Update(key)
		return m, cmd
	}
	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(key)
	return m, cmd
}

func (m *model) back() {
	if m.session.Back() {
		m.chatInput.Blur()
		m.form.setFocus(fieldSubmit)
		m.infoMessage = "Back on the form; your last result is kept."
	}
}

func (m *model) startNew() {
	if m.session.StartNew() {
		m.chatInput.Blur()
		m.form.setFocus(fieldFiles)
		m.infoMessage = "Pick new files or settings, then submit."
	}
}

// beginChatTurn appends the user's message and clears the input. It reports
// false when the turn was rejected.
func (m *model) beginChatTurn() (session.Submission, bool) {
	text := m.chatInput.Value()
	sub, err := m.session.SendTurn(text)
	switch {
	case errors.Is(err, session.ErrEmptyMessage):
		return session.Submission{}, false
	case errors.Is(err, session.ErrNoFiles):
		m.errorMessage = noFilesNotice
		return session.Submission{}, false
	case errors.Is(err, session.ErrBusy):
		return session.Submission{}, false
	case err != nil:
		m.errorMessage = err.Error()
		return session.Submission{}, false
	}
	m.chatInput.SetValue("")
	m.errorMessage = ""
	return sub, true
}

func (m *model) sendTurnCmd() tea.Cmd {
	sub, ok := m.beginChatTurn()
	if !ok {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindChat, chatTurnJob(m.config.Backend, sub)))
}

func (m *model) handleChatReply(msg chatReplyMsg) {
	if !m.session.CompleteTurn(msg.token, msg.reply, msg.err) {
		return
	}
	if msg.err != nil {
		m.logger.Warn("chat reply replaced with fallback", zap.Error(msg.err))
	}
}

func (m *model) speakCmd() tea.Cmd {
	outcome, playback, err := m.config.Speech.Toggle(m.session.Content(), string(m.session.Params().Language))
	switch {
	case errors.Is(err, speech.ErrNothingToRead):
		m.errorMessage = nothingToReadNotice
		return nil
	case errors.Is(err, speech.ErrSpeechUnavailable):
		m.errorMessage = speechMissingNotice
		return nil
	case err != nil:
		m.errorMessage = fmt.Sprintf("speech failed: %v", err)
		m.speaking = false
		return nil
	}
	m.errorMessage = ""
	if outcome == speech.Stopped {
		m.speaking = false
		m.infoMessage = "Speech stopped."
		return nil
	}
	m.speaking = true
	m.infoMessage = "Reading aloud… press s to stop."
	return waitForSpeech(playback)
}

func (m *model) exportCmd() tea.Cmd {
	if m.exporting {
		return nil
	}
	region := export.Region{Content: m.session.Content(), Columns: m.wrapWidth(4)}
	m.exporting = true
	m.infoMessage = "Rendering PDF…"
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindExport, exportJob(m.config.Exporter, region)))
}

func (m *model) handleExportResult(msg exportResultMsg) {
	m.exporting = false
	switch {
	case msg.err != nil:
		m.errorMessage = fmt.Sprintf("export failed: %v", msg.err)
	case !msg.ok:
		m.infoMessage = "Nothing to export yet."
	default:
		m.errorMessage = ""
		m.infoMessage = "Saved PDF to " + msg.result.Path
	}
}

func (m *model) copyCmd() tea.Cmd {
	content := m.session.Content()
	if content == "" {
		m.errorMessage = nothingToReadNotice
		return nil
	}
	return m.jobs.Start(jobKindCopy, copyJob(m.config.Clipboard, content))
}

func (m *model) resize(width, height int) {
	m.layout.Update(width, height)
	m.viewport.Width = m.layout.viewportWidth
	m.viewport.Height = m.layout.viewportHeight
	m.chatViewport.Width = m.layout.viewportWidth
	m.chatViewport.Height = m.layout.chatHeight
	m.chatInput.Width = m.layout.viewportWidth - 4
	m.form.setWidth(m.layout.formWidth)
	m.markPreviewDirty()
}

func (m *model) markPreviewDirty() {
	m.previewDirty = true
}

func (m *model) refreshPreviewIfDirty() {
	if !m.previewDirty {
		return
	}
	m.previewDirty = false
	content := m.markdown.Render(m.session.Content(), m.wrapWidth(2))
	if content == "" {
		content = helperStyle.Render(previewEmptyNotice)
	}
	m.viewport.SetContent(content)
}

// refreshChatIfChanged re-renders the transcript and pins it to the bottom
// whenever the log or the busy flag changed.
func (m *model) refreshChatIfChanged() {
	revision := m.session.ChatRevision()
	if revision == m.renderedChatRev && m.chatViewport.Width == m.renderedChatSize {
		return
	}
	m.renderedChatRev = revision
	m.renderedChatSize = m.chatViewport.Width
	m.chatViewport.SetContent(buildChatTranscript(m.session.Messages(), m.chatViewport.Width))
	m.chatViewport.GotoBottom()
}

func joinPaths(paths []string) string {
	return strings.Join(paths, ", ")
}

var (
	sectionHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	labelStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	focusedLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a5b4fc"))
	selectorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	focusedSelectorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#4f46e5")).Padding(0, 1)
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	userLabelStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#818cf8"))
	assistantLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a1a1aa"))

	heroAccentColor        = lipgloss.Color("#6366f1")
	heroEmberColor         = lipgloss.Color("#0b0b1a")
	heroTextColor          = lipgloss.Color("#eef2ff")
	heroSecondaryTextColor = lipgloss.Color("#38bdf8")

	formBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3f3f46")).Padding(1, 2)
	toolbarStyle       = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor)
	taglineStyle       = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	speakingBadgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171")).Bold(true)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)

	buttonIdleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#ffffff")).Padding(0, 3)
	buttonFocusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(heroAccentColor).Padding(0, 3)
	buttonLoadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a1a1aa")).Background(lipgloss.Color("#27272a")).Padding(0, 3)
	buttonSuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#1db954")).Padding(0, 3)
	buttonErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#dc2626")).Padding(0, 3)

	logoFaceStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroEmberColor)
	logoShadowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1e1b4b"))
	logoContainerStyle = lipgloss.NewStyle().Padding(0, 1)
	logoArtLines       = []string{
		"██████╗    █████╗   ██████╗   ███████╗  ██████╗    ██████╗   ███████╗  ███╗   ██╗  ",
		"██╔══██╗  ██╔══██╗  ██╔══██╗  ██╔════╝  ██╔══██╗  ██╔════╝   ██╔════╝  ████╗  ██║  ",
		"██████╔╝  ███████║  ██████╔╝  █████╗    ██████╔╝  ██║  ███╗  █████╗    ██╔██╗ ██║  ",
		"██╔═══╝   ██╔══██║  ██╔═══╝   ██╔══╝    ██╔══██╗  ██║   ██║  ██╔══╝    ██║╚██╗██║  ",
		"██║       ██║  ██║  ██║       ███████╗  ██║  ██║  ╚██████╔╝  ███████╗  ██║ ╚████║  ",
		"╚═╝       ╚═╝  ╚═╝  ╚═╝       ╚══════╝  ╚═╝  ╚═╝   ╚═════╝   ╚══════╝  ╚═╝  ╚═══╝  ",
	}
)
