// Package speech reads generated content aloud through a pluggable engine.
package speech

import (
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNothingToRead is returned when there is no content to speak.
	ErrNothingToRead = errors.New("there is no text to read yet")
	// ErrSpeechUnavailable is returned when no engine is configured.
	ErrSpeechUnavailable = errors.New("speech synthesis is unavailable")
)

// DefaultRate is the normal speaking rate.
const DefaultRate = 1.0

// Voice is one installed synthesizer voice.
type Voice struct {
	Name   string
	Locale string
}

// Options configures one utterance.
type Options struct {
	Locale string
	Rate   float64
	Voice  *Voice
}

// Engine is the platform speech capability. Speak must return promptly and
// invoke onEnd exactly once when playback finishes or is cancelled.
type Engine interface {
	Voices() ([]Voice, error)
	Speak(text string, opts Options, onEnd func()) error
	Cancel()
}

// Outcome reports what Toggle did.
type Outcome int

const (
	Started Outcome = iota
	Stopped
)

func (o Outcome) String() string {
	if o == Stopped {
		return "stopped"
	}
	return "started"
}

// Playback identifies a started utterance. Done is closed when it ends.
type Playback struct {
	ID   uint64
	Done <-chan struct{}
}

var localeByLanguage = map[string]string{
	"English": "en-US",
	"Hindi":   "hi-IN",
	"Spanish": "es-ES",
	"French":  "fr-FR",
}

// LocaleFor maps an output language to a speech locale, defaulting to en-US.
func LocaleFor(language string) string {
	if locale, ok := localeByLanguage[language]; ok {
		return locale
	}
	return "en-US"
}

// PickVoice returns the first voice whose locale contains code.
func PickVoice(voices []Voice, code string) *Voice {
	for i := range voices {
		if strings.Contains(voices[i].Locale, code) {
			v := voices[i]
			return &v
		}
	}
	return nil
}

// Toggle is a single-slot play/stop switch over an Engine.
type Toggle struct {
	engine Engine
	logger *zap.Logger

	mu       sync.Mutex
	speaking bool
	current  uint64
	next     uint64
}

// NewToggle accepts a nil engine; Toggle then reports ErrSpeechUnavailable.
func NewToggle(engine Engine, logger *zap.Logger) *Toggle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toggle{engine: engine, logger: logger}
}

// Available reports whether an engine is configured.
func (t *Toggle) Available() bool {
	return t.engine != nil
}

// Speaking reports whether an utterance is playing.
func (t *Toggle) Speaking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.speaking
}

// Toggle stops the current utterance, or starts reading text in the locale for
// language. The returned Playback is only meaningful when Started.
func (t *Toggle) Toggle(text, language string) (Outcome, Playback, error) {
	if strings.TrimSpace(text) == "" {
		return Stopped, Playback{}, ErrNothingToRead
	}
	if t.engine == nil {
		return Stopped, Playback{}, ErrSpeechUnavailable
	}

	t.mu.Lock()
	if t.speaking {
		t.speaking = false
		t.current = 0
		t.mu.Unlock()
		t.engine.Cancel()
		t.logger.Debug("speech cancelled")
		return Stopped, Playback{}, nil
	}
	t.next++
	id := t.next
	t.current = id
	t.speaking = true
	t.mu.Unlock()

	locale := LocaleFor(language)
	voices, err := t.engine.Voices()
	if err != nil {
		t.logger.Warn("listing voices failed", zap.Error(err))
	}
	opts := Options{Locale: locale, Rate: DefaultRate, Voice: PickVoice(voices, locale)}

	done := make(chan struct{})
	var once sync.Once
	onEnd := func() {
		once.Do(func() {
			t.finish(id)
			close(done)
		})
	}
	if err := t.engine.Speak(text, opts, onEnd); err != nil {
		t.finish(id)
		return Stopped, Playback{}, err
	}
	t.logger.Debug("speech started", zap.Uint64("utterance", id), zap.String("locale", locale))
	return Started, Playback{ID: id, Done: done}, nil
}

// Stop cancels any current utterance.
func (t *Toggle) Stop() {
	t.mu.Lock()
	wasSpeaking := t.speaking
	t.speaking = false
	t.current = 0
	t.mu.Unlock()
	if wasSpeaking && t.engine != nil {
		t.engine.Cancel()
	}
}

// finish clears the slot only if id is still the current utterance.
func (t *Toggle) finish(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != id {
		return
	}
	t.speaking = false
	t.current = 0
}
