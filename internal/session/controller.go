// Package session implements the client-side session controller: the screen
// navigator, the request lifecycle, the chat log and the generated content
// buffer. It performs no I/O; callers run the returned submissions against the
// backend and feed outcomes back through Complete, CompleteTurn and Settle.
//
// A Controller is owned by a single event loop and is not safe for concurrent
// use.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/csheth/papergen/internal/docs"
)

var (
	// ErrNoFiles rejects a submission or chat turn without source files.
	ErrNoFiles = errors.New("no files selected")
	// ErrEmptyMessage rejects a blank chat turn.
	ErrEmptyMessage = errors.New("chat message is empty")
	// ErrBusy rejects work while another request is outstanding.
	ErrBusy = errors.New("a request is already in progress")
	// ErrClosed rejects work after Close.
	ErrClosed = errors.New("session closed")
)

// Kind tells a generation run apart from a chat turn.
type Kind int

const (
	KindGenerate Kind = iota
	KindChatTurn
)

func (k Kind) String() string {
	if k == KindChatTurn {
		return "chat"
	}
	return "generate"
}

// Token identifies one outstanding request or timer. Outcomes carrying a token
// from an older generation are dropped.
type Token struct {
	generation uint64
	seq        uint64
}

// Submission is the immutable request snapshot handed to the backend.
type Submission struct {
	Token  Token
	Kind   Kind
	Files  []docs.SourceFile
	Params Params
}

// Settle asks the caller to invoke Controller.Settle(Token) after the delay.
type Settle struct {
	Token Token
	After time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller owns every piece of session state.
type Controller struct {
	id     string
	logger *zap.Logger

	files   docs.Selection
	params  Params
	status  Status
	view    View
	chat    ChatLog
	content string

	chatBusy     bool
	chatRevision uint64

	generation uint64
	seq        uint64
	inFlight   Token
	settle     Token
	settling   bool
	closed     bool
}

// New returns a controller on the landing screen with idle status.
func New(opts ...Option) *Controller {
	c := &Controller{
		id:     uuid.New().String(),
		logger: zap.NewNop(),
		params: DefaultParams(),
		status: StatusIdle,
		view:   ViewLanding,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("session", c.id))
	return c
}

func (c *Controller) ID() string             { return c.id }
func (c *Controller) Status() Status         { return c.status }
func (c *Controller) View() View             { return c.view }
func (c *Controller) Params() Params         { return c.params }
func (c *Controller) Content() string        { return c.content }
func (c *Controller) ChatBusy() bool         { return c.chatBusy }
func (c *Controller) Messages() []Message    { return c.chat.Messages() }
func (c *Controller) Files() *docs.Selection { return &c.files }

// ChatRevision changes whenever the chat log or the busy flag changes.
func (c *Controller) ChatRevision() uint64 { return c.chatRevision }

// SelectFiles replaces the source file set.
func (c *Controller) SelectFiles(files []docs.SourceFile) {
	c.files.Replace(files)
	c.logger.Debug("files selected", zap.Int("count", len(files)))
}

// Enter leaves the landing screen. It reports whether the view changed.
func (c *Controller) Enter() bool {
	if c.view != ViewLanding {
		return false
	}
	c.setView(ViewUpload)
	return true
}

// Back returns from the preview to the upload form without clearing content.
func (c *Controller) Back() bool {
	if c.view != ViewPreview {
		return false
	}
	c.setView(ViewUpload)
	return true
}

// StartNew is the "create new" action; it behaves like Back. The next Submit
// clears the previous run.
func (c *Controller) StartNew() bool {
	return c.Back()
}

// Submit starts a fresh generation run from the upload form.
func (c *Controller) Submit(params Params) (Submission, error) {
	switch {
	case c.closed:
		return Submission{}, ErrClosed
	case c.files.Empty():
		return Submission{}, ErrNoFiles
	case c.status != StatusIdle || c.chatBusy:
		return Submission{}, ErrBusy
	}

	c.params = params
	c.generation++
	c.settling = false
	c.content = ""
	c.chat.reset()
	if params.Mode == ModeChat && params.CustomInstructions != "" {
		c.chat.Append(RoleUser, params.CustomInstructions)
	}
	c.chatRevision++
	c.setStatus(StatusLoading)

	token := c.nextToken()
	c.inFlight = token
	c.logger.Info("generation submitted",
		zap.String("mode", params.Mode.WireValue()),
		zap.String("difficulty", string(params.Difficulty)),
		zap.String("language", string(params.Language)),
		zap.Int("files", c.files.Len()),
	)
	return Submission{
		Token:  token,
		Kind:   KindGenerate,
		Files:  c.files.Files(),
		Params: params,
	}, nil
}

// Complete applies the outcome of a Submit. The returned Settle must be
// scheduled by the caller; ok is false when the outcome was stale.
func (c *Controller) Complete(token Token, result string, err error) (Settle, bool) {
	if c.closed || token != c.inFlight || c.status != StatusLoading {
		c.logger.Debug("dropping stale generation result")
		return Settle{}, false
	}

	settle := Settle{Token: c.nextToken()}
	if err != nil {
		c.logger.Warn("generation failed", zap.Error(err))
		c.setStatus(StatusError)
		settle.After = ErrorResetDelay
	} else {
		switch c.params.Mode {
		case ModeChat:
			c.chat.Append(RoleAssistant, result)
			c.chatRevision++
		case ModeNotes, ModeMCQs, ModeExamPaper:
			c.content = result
		}
		c.setStatus(StatusSuccess)
		settle.After = SuccessResetDelay
	}
	c.inFlight = Token{}
	c.settle = settle.Token
	c.settling = true
	return settle, true
}

// Settle ends a transient status. Success also moves the upload screen to the
// preview. It reports whether the token was still current.
func (c *Controller) Settle(token Token) bool {
	if c.closed || !c.settling || token != c.settle {
		return false
	}
	c.settling = false
	switch c.status {
	case StatusSuccess:
		c.setStatus(StatusIdle)
		if c.view == ViewUpload {
			c.setView(ViewPreview)
		}
	case StatusError:
		c.setStatus(StatusIdle)
	default:
		return false
	}
	return true
}

// SendTurn appends the user's message and returns the chat request to run.
func (c *Controller) SendTurn(text string) (Submission, error) {
	switch {
	case c.closed:
		return Submission{}, ErrClosed
	case strings.TrimSpace(text) == "":
		return Submission{}, ErrEmptyMessage
	case c.files.Empty():
		return Submission{}, ErrNoFiles
	case c.chatBusy || c.status != StatusIdle:
		return Submission{}, ErrBusy
	}

	prompt := AssemblePrompt(c.chat.Messages(), text)
	c.chat.Append(RoleUser, text)
	c.chatBusy = true
	c.chatRevision++

	params := c.params
	params.Mode = ModeChat
	params.CustomInstructions = prompt

	token := c.nextToken()
	c.logger.Info("chat turn submitted", zap.Int("history", c.chat.Len()-1))
	return Submission{
		Token:  token,
		Kind:   KindChatTurn,
		Files:  c.files.Files(),
		Params: params,
	}, nil
}

// CompleteTurn appends the assistant reply, or the fallback text on failure,
// and always clears the busy flag. It reports whether the outcome applied.
func (c *Controller) CompleteTurn(token Token, reply string, err error) bool {
	if c.closed || token.generation != c.generation {
		c.logger.Debug("dropping stale chat reply")
		return false
	}
	if err != nil {
		c.logger.Warn("chat turn failed", zap.Error(err))
		reply = FallbackReply
	}
	c.chat.Append(RoleAssistant, reply)
	c.chatBusy = false
	c.chatRevision++
	return true
}

// Close tears the session down. Every outstanding request and timer token is
// invalidated.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	c.settling = false
	c.chatBusy = false
	c.logger.Info("session closed")
}

func (c *Controller) nextToken() Token {
	c.seq++
	return Token{generation: c.generation, seq: c.seq}
}

func (c *Controller) setStatus(next Status) {
	if next == c.status {
		return
	}
	c.logger.Debug("status transition", zap.Stringer("from", c.status), zap.Stringer("to", next))
	c.status = next
}

func (c *Controller) setView(next View) {
	c.logger.Debug("view transition", zap.Stringer("from", c.view), zap.Stringer("to", next))
	c.view = next
}
