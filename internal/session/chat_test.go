package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemblePrompt(t *testing.T) {
	tests := []struct {
		name     string
		history  []Message
		question string
		want     string
	}{
		{
			name:     "alternating history",
			history:  []Message{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}},
			question: "c",
			want:     "History:\nStudent: a\nAI Tutor: b\n\nStudent: c",
		},
		{
			name:     "empty history",
			question: "first?",
			want:     "History:\n\n\nStudent: first?",
		},
		{
			name:     "multiline content is kept verbatim",
			history:  []Message{{Role: RoleAssistant, Content: "line 1\nline 2"}},
			question: "more",
			want:     "History:\nAI Tutor: line 1\nline 2\n\nStudent: more",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssemblePrompt(tt.history, tt.question))
		})
	}
}

func TestChatLogIsAppendOnly(t *testing.T) {
	var log ChatLog
	log.Append(RoleUser, "one")
	snapshot := log.Messages()
	snapshot[0].Content = "changed"
	log.Append(RoleAssistant, "two")

	msgs := log.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
}

func TestParseHelpers(t *testing.T) {
	mode, err := ParseMode("Chat with PDF")
	require.NoError(t, err)
	assert.Equal(t, ModeChat, mode)

	mode, err = ParseMode("exam")
	require.NoError(t, err)
	assert.Equal(t, "Generate Exam Paper", mode.WireValue())
	assert.Equal(t, "Exam Paper", mode.Short())

	_, err = ParseMode("poetry")
	assert.Error(t, err)

	difficulty, err := ParseDifficulty("hard")
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, difficulty)

	language, err := ParseLanguage("hinglish")
	require.NoError(t, err)
	assert.Equal(t, LanguageHinglish, language)
}
