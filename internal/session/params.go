package session

import (
	"fmt"
	"strings"
)

// Mode selects what the remote service produces.
type Mode int

const (
	ModeNotes Mode = iota
	ModeMCQs
	ModeExamPaper
	ModeChat
)

// Modes lists every mode in form order.
var Modes = []Mode{ModeNotes, ModeMCQs, ModeExamPaper, ModeChat}

// Label is the text shown in the mode selector.
func (m Mode) Label() string {
	switch m {
	case ModeNotes:
		return "Generate Notes"
	case ModeMCQs:
		return "Generate MCQs"
	case ModeExamPaper:
		return "Generate Exam Paper"
	case ModeChat:
		return "Chat with PDF"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// WireValue is the literal sent in the multipart "mode" field.
func (m Mode) WireValue() string {
	switch m {
	case ModeChat:
		return "Chat"
	default:
		return m.Label()
	}
}

// Short drops the "Generate " prefix for toolbar display.
func (m Mode) Short() string {
	return strings.TrimPrefix(m.Label(), "Generate ")
}

func (m Mode) String() string { return m.Label() }

// ParseMode accepts labels, wire values and short CLI names.
func ParseMode(value string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "notes", "generate notes":
		return ModeNotes, nil
	case "mcqs", "mcq", "generate mcqs":
		return ModeMCQs, nil
	case "exam", "exam-paper", "exampaper", "generate exam paper":
		return ModeExamPaper, nil
	case "chat", "chat with pdf":
		return ModeChat, nil
	}
	return ModeNotes, fmt.Errorf("unknown mode %q", value)
}

// Difficulty is sent as the "option" field.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Language is the requested output language.
type Language string

const (
	LanguageEnglish  Language = "English"
	LanguageHindi    Language = "Hindi"
	LanguageHinglish Language = "Hinglish"
	LanguageSpanish  Language = "Spanish"
	LanguageFrench   Language = "French"
)

var Languages = []Language{LanguageEnglish, LanguageHindi, LanguageHinglish, LanguageSpanish, LanguageFrench}

// ParseDifficulty matches case-insensitively against Difficulties.
func ParseDifficulty(value string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(string(d), strings.TrimSpace(value)) {
			return d, nil
		}
	}
	return DifficultyEasy, fmt.Errorf("unknown difficulty %q", value)
}

// ParseLanguage matches case-insensitively against Languages.
func ParseLanguage(value string) (Language, error) {
	for _, l := range Languages {
		if strings.EqualFold(string(l), strings.TrimSpace(value)) {
			return l, nil
		}
	}
	return LanguageEnglish, fmt.Errorf("unknown language %q", value)
}

// Params is the generation form. The controller snapshots it at submit time.
type Params struct {
	Mode               Mode
	Difficulty         Difficulty
	Language           Language
	CustomInstructions string
}

// DefaultParams mirrors the initial form state.
func DefaultParams() Params {
	return Params{
		Mode:       ModeNotes,
		Difficulty: DifficultyEasy,
		Language:   LanguageEnglish,
	}
}
