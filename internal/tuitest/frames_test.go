package tuitest

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestParseFramesSplitsOnClear(t *testing.T) {
	raw := []byte("\x1b[2J\x1b[Hfirst frame  \r\n\x1b[2J\x1b[H\x1b[1mPaperGen\x1b[0m\r\n\r\n")
	frames := parseFrames(raw)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d: %#v", len(frames), frames)
	}
	if frames[0].Plain != "first frame" {
		t.Fatalf("unexpected first frame %q", frames[0].Plain)
	}
	rec := &Recording{Frames: frames}
	final, ok := rec.FinalFrame()
	if !ok || final.Plain != "PaperGen" {
		t.Fatalf("unexpected final frame %q", final.Plain)
	}
	if !rec.Contains("first") || rec.Contains("absent") {
		t.Fatal("Contains should search every frame")
	}
}

func TestWaitForText(t *testing.T) {
	out := &syncBuffer{}
	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = out.Write([]byte("\x1b[32mready\x1b[0m"))
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := waitForText(ctx, out, "ready"); err != nil {
		t.Fatalf("wait: %v", err)
	}

	short, cancelShort := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancelShort()
	if err := waitForText(short, out, "never"); err == nil {
		t.Fatal("expected timeout")
	}
}

func TestTerminalResponderAnswersInOrder(t *testing.T) {
	var replies bytes.Buffer
	tr := newTerminalResponder(&replies)

	tr.Process([]byte("hello\x1b]11;?\x07 then \x1b["))
	tr.Process([]byte("6n done"))

	want := "\x1b]11;rgb:0000/0000/0000\x07\x1b[1;1R"
	if replies.String() != want {
		t.Fatalf("replies = %q, want %q", replies.String(), want)
	}

	replies.Reset()
	tr.Process([]byte("no queries here"))
	if replies.Len() != 0 {
		t.Fatalf("unexpected reply %q", replies.String())
	}
}

func TestFindReturnsFirstMatchingFrame(t *testing.T) {
	rec := &Recording{Frames: parseFrames([]byte("\x1b[2Jloading\x1b[2J\x1b]0;title\x07ready one\x1b[2Jready two"))}
	frame, ok := rec.Find("ready")
	if !ok || frame.Index != 1 || frame.Plain != "ready one" {
		t.Fatalf("unexpected frame %+v", frame)
	}
	if _, ok := (*Recording)(nil).Find("ready"); ok {
		t.Fatal("nil recording has no frames")
	}
}
