package tui

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/papergen/internal/docs"
	"github.com/csheth/papergen/internal/export"
	"github.com/csheth/papergen/internal/session"
	"github.com/csheth/papergen/internal/speech"
)

func testSubmission(t *testing.T, mode session.Mode) session.Submission {
	t.Helper()
	c := session.New()
	c.Enter()
	c.SelectFiles([]docs.SourceFile{{Name: "a.pdf", Type: "application/pdf"}})
	params := session.DefaultParams()
	params.Mode = mode
	sub, err := c.Submit(params)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return sub
}

func TestGenerateJobCarriesToken(t *testing.T) {
	client := &fakeBackend{reply: "notes"}
	sub := testSubmission(t, session.ModeNotes)

	msg, err := generateJob(client, sub)(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, ok := msg.(generateResultMsg)
	if !ok {
		t.Fatalf("expected generateResultMsg, got %T", msg)
	}
	if result.token != sub.Token || result.result != "notes" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(client.subs) != 1 || client.subs[0].Params.Mode != session.ModeNotes {
		t.Fatalf("backend saw %+v", client.subs)
	}
}

func TestGenerateJobWithoutBackend(t *testing.T) {
	msg, err := generateJob(nil, testSubmission(t, session.ModeNotes))(context.Background())
	if !errors.Is(err, errNoBackend) {
		t.Fatalf("expected errNoBackend, got %v", err)
	}
	if result := msg.(generateResultMsg); !errors.Is(result.err, errNoBackend) {
		t.Fatalf("message should carry the error, got %v", result.err)
	}
}

func TestChatTurnJobReportsFailure(t *testing.T) {
	boom := errors.New("boom")
	sub := testSubmission(t, session.ModeChat)
	msg, err := chatTurnJob(&fakeBackend{err: boom}, sub)(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	reply := msg.(chatReplyMsg)
	if reply.token != sub.Token || !errors.Is(reply.err, boom) {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestLoadFilesJob(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, "diagram.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	msg, err := loadFilesJob(docs.Load, []string{path})(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	loaded := msg.(filesLoadedMsg)
	if len(loaded.files) != 1 || loaded.files[0].Type != "image/png" {
		t.Fatalf("unexpected files %+v", loaded.files)
	}

	_, err = loadFilesJob(docs.Load, []string{filepath.Join(dir, "missing.pdf")})(context.Background())
	if err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestExportJobWritesDocument(t *testing.T) {
	dir := t.TempDir()
	pipeline := export.NewPipeline(export.Config{Dir: dir})

	msg, err := exportJob(pipeline, export.Region{Content: "# Notes\n\n- one\n- two", Columns: 60})(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	result := msg.(exportResultMsg)
	if !result.ok || result.result.Pages != 1 {
		t.Fatalf("unexpected export result %+v", result)
	}
	if _, err := os.Stat(filepath.Join(dir, export.DefaultFilename)); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	msg, err = exportJob(pipeline, export.Region{})(context.Background())
	if err != nil || msg.(exportResultMsg).ok {
		t.Fatalf("empty export should be a no-op, got %+v err=%v", msg, err)
	}
}

func TestCopyJob(t *testing.T) {
	var copied string
	msg, err := copyJob(func(s string) error { copied = s; return nil }, "héllo")(context.Background())
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if copied != "héllo" || msg.(copyResultMsg).chars != 5 {
		t.Fatalf("unexpected copy result %q %+v", copied, msg)
	}

	if _, err := copyJob(nil, "x")(context.Background()); !errors.Is(err, errNoClipboard) {
		t.Fatalf("expected errNoClipboard, got %v", err)
	}
}

func TestSettleCmdUsesDelay(t *testing.T) {
	var delays []time.Duration
	settle := session.Settle{After: session.ErrorResetDelay}
	msg := settleCmd(immediateTick(&delays), settle)()
	if _, ok := msg.(settleMsg); !ok {
		t.Fatalf("expected settleMsg, got %T", msg)
	}
	if len(delays) != 1 || delays[0] != 2*time.Second {
		t.Fatalf("unexpected delays %v", delays)
	}
}

func TestWaitForSpeech(t *testing.T) {
	done := make(chan struct{})
	close(done)
	msg := waitForSpeech(speech.Playback{ID: 7, Done: done})()
	if got, ok := msg.(speechDoneMsg); !ok || got.id != 7 {
		t.Fatalf("unexpected message %#v", msg)
	}
}

func TestParsePaths(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "  a.pdf  b.png ", want: []string{"a.pdf", "b.png"}},
		{in: "notes one.pdf, 'slides.png'", want: []string{"notes one.pdf", "slides.png"}},
		{in: `"a.pdf"`, want: []string{"a.pdf"}},
	}
	for _, tc := range cases {
		if got := parsePaths(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("parsePaths(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestJobBusEmitsSnapshots(t *testing.T) {
	bus := newJobBus(nil)
	runner := func(context.Context) (tea.Msg, error) { return filesLoadedMsg{}, errors.New("nope") }
	if cmd := bus.Start(jobKindLoad, runner); cmd == nil {
		t.Fatal("expected a command")
	}
	if id := bus.nextID(jobKindExport); id != "export-2" {
		t.Fatalf("ids should be sequential, got %s", id)
	}
}
