package speech

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultCommand is the synthesizer looked up on PATH.
const DefaultCommand = "espeak-ng"

const baseWordsPerMinute = 175

// CommandEngine drives an espeak-compatible command-line synthesizer.
type CommandEngine struct {
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	running *exec.Cmd
}

// NewCommandEngine resolves command on PATH. A missing binary yields
// ErrSpeechUnavailable.
func NewCommandEngine(command string, logger *zap.Logger) (*CommandEngine, error) {
	if command == "" {
		command = DefaultCommand
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpeechUnavailable, command, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandEngine{path: path, logger: logger}, nil
}

func (e *CommandEngine) Voices() ([]Voice, error) {
	out, err := exec.Command(e.path, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	return parseVoices(out), nil
}

func (e *CommandEngine) Speak(text string, opts Options, onEnd func()) error {
	args := []string{"-s", strconv.Itoa(wordsPerMinute(opts.Rate))}
	voice := strings.ToLower(opts.Locale)
	if opts.Voice != nil {
		voice = strings.ToLower(opts.Voice.Locale)
	}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	args = append(args, "--", text)

	cmd := exec.Command(e.path, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", e.path, err)
	}
	e.mu.Lock()
	e.running = cmd
	e.mu.Unlock()

	go func() {
		err := cmd.Wait()
		e.mu.Lock()
		if e.running == cmd {
			e.running = nil
		}
		e.mu.Unlock()
		if err != nil {
			e.logger.Debug("synthesizer exited", zap.Error(err))
		}
		onEnd()
	}()
	return nil
}

func (e *CommandEngine) Cancel() {
	e.mu.Lock()
	cmd := e.running
	e.running = nil
	e.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func wordsPerMinute(rate float64) int {
	if rate <= 0 {
		rate = DefaultRate
	}
	return int(rate * baseWordsPerMinute)
}

// parseVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US     (en 10)
func parseVoices(out []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{Name: fields[3], Locale: normalizeLocale(fields[1])})
	}
	return voices
}

// normalizeLocale turns "en-us" into "en-US".
func normalizeLocale(tag string) string {
	lang, region, ok := strings.Cut(tag, "-")
	if !ok {
		return strings.ToLower(tag)
	}
	return strings.ToLower(lang) + "-" + strings.ToUpper(region)
}
