package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/papergen/internal/backend"
	"github.com/csheth/papergen/internal/docs"
	"github.com/csheth/papergen/internal/export"
	"github.com/csheth/papergen/internal/session"
	"github.com/csheth/papergen/internal/speech"
)

var (
	errNoBackend   = errors.New("no backend configured")
	errNoClipboard = errors.New("clipboard unavailable")
)

func loadFilesJob(load func([]string) ([]docs.SourceFile, error), paths []string) jobRunner {
	toLoad := append([]string(nil), paths...)
	return func(context.Context) (tea.Msg, error) {
		files, err := load(toLoad)
		return filesLoadedMsg{files: files, err: err}, err
	}
}

func generateJob(client backend.Client, sub session.Submission) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		if client == nil {
			return generateResultMsg{token: sub.Token, err: errNoBackend}, errNoBackend
		}
		result, err := client.Generate(ctx, sub)
		return generateResultMsg{token: sub.Token, result: result, err: err}, err
	}
}

func chatTurnJob(client backend.Client, sub session.Submission) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		if client == nil {
			return chatReplyMsg{token: sub.Token, err: errNoBackend}, errNoBackend
		}
		reply, err := client.Generate(ctx, sub)
		return chatReplyMsg{token: sub.Token, reply: reply, err: err}, err
	}
}

func exportJob(pipeline *export.Pipeline, region export.Region) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		result, ok, err := pipeline.Export(ctx, region)
		return exportResultMsg{result: result, ok: ok, err: err}, err
	}
}

func copyJob(write func(string) error, text string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		if write == nil {
			return copyResultMsg{err: errNoClipboard}, errNoClipboard
		}
		err := write(text)
		return copyResultMsg{chars: len([]rune(text)), err: err}, err
	}
}

func settleCmd(tick tickFunc, settle session.Settle) tea.Cmd {
	token := settle.Token
	return tick(settle.After, func(time.Time) tea.Msg {
		return settleMsg{token: token}
	})
}

func waitForSpeech(playback speech.Playback) tea.Cmd {
	return func() tea.Msg {
		<-playback.Done
		return speechDoneMsg{id: playback.ID}
	}
}

// parsePaths splits the file field on commas when present, otherwise on
// whitespace.
func parsePaths(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	var parts []string
	if strings.Contains(value, ",") {
		parts = strings.Split(value, ",")
	} else {
		parts = strings.Fields(value)
	}
	paths := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			paths = append(paths, part)
		}
	}
	return paths
}
