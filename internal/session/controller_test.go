package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/papergen/internal/docs"
)

var errTransport = errors.New("connection refused")

func readyController(t *testing.T) *Controller {
	t.Helper()
	c := New()
	require.True(t, c.Enter())
	c.SelectFiles([]docs.SourceFile{{Name: "lecture.pdf", Type: "application/pdf", Data: []byte("%PDF-1.4")}})
	return c
}

func TestNewStartsOnLanding(t *testing.T) {
	c := New()
	assert.Equal(t, ViewLanding, c.View())
	assert.Equal(t, StatusIdle, c.Status())
	assert.NotEmpty(t, c.ID())
	assert.Equal(t, DefaultParams(), c.Params())
}

func TestNavigation(t *testing.T) {
	c := New()
	assert.False(t, c.Back(), "back is meaningless on the landing screen")
	assert.True(t, c.Enter())
	assert.False(t, c.Enter(), "landing is only left once")
	assert.Equal(t, ViewUpload, c.View())
	assert.False(t, c.StartNew())
	assert.Equal(t, ViewUpload, c.View())
}

func TestSubmitWithoutFilesIsRejected(t *testing.T) {
	c := New()
	c.Enter()

	_, err := c.Submit(DefaultParams())
	require.ErrorIs(t, err, ErrNoFiles)
	assert.Equal(t, StatusIdle, c.Status())
	assert.Equal(t, ViewUpload, c.View())
}

func TestSuccessfulGenerationCycle(t *testing.T) {
	c := readyController(t)

	sub, err := c.Submit(DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, KindGenerate, sub.Kind)
	assert.Equal(t, "Generate Notes", sub.Params.Mode.WireValue())
	require.Len(t, sub.Files, 1)
	assert.Equal(t, StatusLoading, c.Status())

	settle, ok := c.Complete(sub.Token, "# Title\nBody", nil)
	require.True(t, ok)
	assert.Equal(t, SuccessResetDelay, settle.After)
	assert.Equal(t, StatusSuccess, c.Status())
	assert.Equal(t, ViewUpload, c.View(), "navigation waits for the reset timer")
	assert.Equal(t, "# Title\nBody", c.Content())

	require.True(t, c.Settle(settle.Token))
	assert.Equal(t, StatusIdle, c.Status())
	assert.Equal(t, ViewPreview, c.View())

	assert.False(t, c.Settle(settle.Token), "a timer only fires once")
	assert.Equal(t, ViewPreview, c.View())
}

func TestFailedGenerationCycle(t *testing.T) {
	c := readyController(t)

	sub, err := c.Submit(DefaultParams())
	require.NoError(t, err)

	settle, ok := c.Complete(sub.Token, "", errTransport)
	require.True(t, ok)
	assert.Equal(t, ErrorResetDelay, settle.After)
	assert.Equal(t, StatusError, c.Status())

	require.True(t, c.Settle(settle.Token))
	assert.Equal(t, StatusIdle, c.Status())
	assert.Equal(t, ViewUpload, c.View())
	assert.Empty(t, c.Content())
}

func TestSubmitWhileLoadingIsRejected(t *testing.T) {
	c := readyController(t)
	_, err := c.Submit(DefaultParams())
	require.NoError(t, err)

	_, err = c.Submit(DefaultParams())
	require.ErrorIs(t, err, ErrBusy)
}

func TestSubmitDuringTransientStatusIsRejected(t *testing.T) {
	c := readyController(t)
	sub, err := c.Submit(DefaultParams())
	require.NoError(t, err)
	settle, _ := c.Complete(sub.Token, "done", nil)

	_, err = c.Submit(DefaultParams())
	require.ErrorIs(t, err, ErrBusy)

	c.Settle(settle.Token)
	c.Back()
	_, err = c.Submit(DefaultParams())
	require.NoError(t, err)
}

func TestFreshSubmitClearsPreviousRun(t *testing.T) {
	c := readyController(t)
	sub, _ := c.Submit(DefaultParams())
	settle, _ := c.Complete(sub.Token, "old notes", nil)
	c.Settle(settle.Token)
	require.True(t, c.Back())
	assert.Equal(t, "old notes", c.Content(), "back keeps the content")

	params := DefaultParams()
	params.Mode = ModeMCQs
	_, err := c.Submit(params)
	require.NoError(t, err)
	assert.Empty(t, c.Content())
	assert.Empty(t, c.Messages())
}

func TestChatModeSubmission(t *testing.T) {
	c := readyController(t)
	params := DefaultParams()
	params.Mode = ModeChat
	params.CustomInstructions = "Hi"

	sub, err := c.Submit(params)
	require.NoError(t, err)
	assert.Equal(t, "Chat", sub.Params.Mode.WireValue())
	assert.Equal(t, []Message{{Role: RoleUser, Content: "Hi"}}, c.Messages())

	settle, ok := c.Complete(sub.Token, "Hello!", nil)
	require.True(t, ok)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "Hi"},
		{Role: RoleAssistant, Content: "Hello!"},
	}, c.Messages())
	assert.Empty(t, c.Content())

	c.Settle(settle.Token)
	assert.Equal(t, ViewPreview, c.View())
}

func TestChatModeWithoutOpeningQuestion(t *testing.T) {
	c := readyController(t)
	params := DefaultParams()
	params.Mode = ModeChat

	_, err := c.Submit(params)
	require.NoError(t, err)
	assert.Empty(t, c.Messages())
}

func TestStaleResultIsDropped(t *testing.T) {
	c := readyController(t)
	first, _ := c.Submit(DefaultParams())
	settle, _ := c.Complete(first.Token, "first", nil)

	_, ok := c.Complete(first.Token, "again", nil)
	assert.False(t, ok)
	assert.Equal(t, "first", c.Content())

	c.Settle(settle.Token)
	c.Back()
	second, _ := c.Submit(DefaultParams())
	_, ok = c.Complete(first.Token, "late", nil)
	assert.False(t, ok)
	assert.Equal(t, StatusLoading, c.Status())

	_, ok = c.Complete(second.Token, "second", nil)
	assert.True(t, ok)
	assert.Equal(t, "second", c.Content())
}

func chatReady(t *testing.T) *Controller {
	t.Helper()
	c := readyController(t)
	params := DefaultParams()
	params.Mode = ModeChat
	params.Language = LanguageFrench
	sub, err := c.Submit(params)
	require.NoError(t, err)
	settle, _ := c.Complete(sub.Token, "Bonjour", nil)
	c.Settle(settle.Token)
	return c
}

func TestSendTurnAppendsOptimistically(t *testing.T) {
	c := chatReady(t)
	before := c.Messages()
	revision := c.ChatRevision()

	sub, err := c.SendTurn("What is entropy?")
	require.NoError(t, err)
	assert.True(t, c.ChatBusy())
	assert.Greater(t, c.ChatRevision(), revision)
	assert.Equal(t, KindChatTurn, sub.Kind)
	assert.Equal(t, ModeChat, sub.Params.Mode)
	assert.Equal(t, LanguageFrench, sub.Params.Language)
	assert.Equal(t, "History:\nAI Tutor: Bonjour\n\nStudent: What is entropy?", sub.Params.CustomInstructions)

	msgs := c.Messages()
	require.Len(t, msgs, len(before)+1)
	assert.Equal(t, before, msgs[:len(before)])
	assert.Equal(t, Message{Role: RoleUser, Content: "What is entropy?"}, msgs[len(msgs)-1])

	require.True(t, c.CompleteTurn(sub.Token, "Disorder.", nil))
	assert.False(t, c.ChatBusy())
	msgs = c.Messages()
	require.Len(t, msgs, len(before)+2)
	assert.Equal(t, Message{Role: RoleAssistant, Content: "Disorder."}, msgs[len(msgs)-1])
}

func TestSendTurnFailureUsesFallback(t *testing.T) {
	c := chatReady(t)
	sub, err := c.SendTurn("Why?")
	require.NoError(t, err)

	require.True(t, c.CompleteTurn(sub.Token, "", errTransport))
	assert.False(t, c.ChatBusy())
	assert.Equal(t, StatusIdle, c.Status(), "chat failures never reach the request status")
	msgs := c.Messages()
	assert.Equal(t, Message{Role: RoleAssistant, Content: FallbackReply}, msgs[len(msgs)-1])
}

func TestSendTurnPreconditions(t *testing.T) {
	c := chatReady(t)
	count := len(c.Messages())

	_, err := c.SendTurn("   \n")
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = c.SendTurn("first")
	require.NoError(t, err)
	_, err = c.SendTurn("second")
	require.ErrorIs(t, err, ErrBusy)
	assert.Len(t, c.Messages(), count+1)

	empty := New()
	empty.Enter()
	_, err = empty.SendTurn("hello")
	require.ErrorIs(t, err, ErrNoFiles)
	assert.Empty(t, empty.Messages())
}

func TestChatTurnAndSubmitAreMutuallyExclusive(t *testing.T) {
	c := chatReady(t)
	_, err := c.SendTurn("question")
	require.NoError(t, err)

	c.Back()
	_, err = c.Submit(DefaultParams())
	require.ErrorIs(t, err, ErrBusy)

	other := readyController(t)
	_, err = other.Submit(DefaultParams())
	require.NoError(t, err)
	_, err = other.SendTurn("question")
	require.ErrorIs(t, err, ErrBusy)
}

func TestCloseInvalidatesOutstandingWork(t *testing.T) {
	c := readyController(t)
	sub, _ := c.Submit(DefaultParams())
	settle, ok := c.Complete(sub.Token, "done", nil)
	require.True(t, ok)

	c.Close()
	assert.False(t, c.Settle(settle.Token))
	assert.Equal(t, ViewUpload, c.View())

	_, err := c.Submit(DefaultParams())
	require.ErrorIs(t, err, ErrClosed)
	_, err = c.SendTurn("hi")
	require.ErrorIs(t, err, ErrClosed)
}
