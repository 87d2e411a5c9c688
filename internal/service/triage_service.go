package service

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/french"
	"go.uber.org/zap"
)

// criticalStems are stemmed French terms associated with violence, danger,
// urgency and self-harm. A narrative matching any of them is flagged for
// human triage; the flag is advisory and never auto-sets urgency.
var criticalStems = []string{
	"abus",
	"agress",
	"batt",
	"bless",
	"danger",
	"drogu",
	"enlev",
	"frapp",
	"harcel",
	"kidnap",
	"menac",
	"mort",
	"peur",
	"sang",
	"secour",
	"suicid",
	"tortur",
	"urgent",
	"viol",
	"violenc",
}

// TriageResult is the analyzer output. MatchedWords holds the original
// surface forms in first-occurrence order, duplicates removed.
type TriageResult struct {
	IsCritical   bool     `json:"is_critical"`
	MatchedWords []string `json:"matched_words"`
}

// TriageService flags urgency-indicating language in free-text narratives.
type TriageService struct {
	logger *zap.Logger
}

// NewTriageService creates an instance of TriageService.
func NewTriageService(logger *zap.Logger) *TriageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TriageService{logger: logger}
}

// Analyze tokenizes the narrative on word boundaries (accented letters stay
// inside tokens), stems each token and tests the stem against the critical
// list by exact match or prefix overlap in either direction.
func (s *TriageService) Analyze(text string) TriageResult {
	result := TriageResult{MatchedWords: []string{}}
	if strings.TrimSpace(text) == "" {
		return result
	}

	seen := make(map[string]struct{})
	for _, surface := range tokenize(text) {
		lowered := strings.ToLower(surface)
		if len([]rune(lowered)) < 3 {
			continue
		}
		if _, dup := seen[lowered]; dup {
			continue
		}

		stem := french.Stem(lowered, false)
		if stem == "" {
			stem = lowered
		}
		if matchesCritical(stem) {
			seen[lowered] = struct{}{}
			result.MatchedWords = append(result.MatchedWords, surface)
			result.IsCritical = true
		}
	}

	return result
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func matchesCritical(stem string) bool {
	for _, critical := range criticalStems {
		if stem == critical || strings.HasPrefix(stem, critical) || strings.HasPrefix(critical, stem) {
			return true
		}
	}
	return false
}
