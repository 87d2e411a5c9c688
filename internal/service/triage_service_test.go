package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriageAnalyzeCriticalNarrative(t *testing.T) {
	svc := NewTriageService(nil)

	result := svc.Analyze("L'enfant a peur et a été battu par son oncle")
	assert.True(t, result.IsCritical)
	assert.Contains(t, result.MatchedWords, "peur")
	assert.Contains(t, result.MatchedWords, "battu")
}

func TestTriageAnalyzeInflectedForms(t *testing.T) {
	svc := NewTriageService(nil)

	// Stemming catches inflections, not just the base lexicon forms.
	result := svc.Analyze("Il la frappait et elle était blessée")
	assert.True(t, result.IsCritical)
	assert.NotEmpty(t, result.MatchedWords)
}

func TestTriageAnalyzeCalmNarrative(t *testing.T) {
	svc := NewTriageService(nil)

	result := svc.Analyze("L'enfant joue dans la cour avec ses camarades")
	assert.False(t, result.IsCritical)
	assert.Empty(t, result.MatchedWords)
}

func TestTriageAnalyzeEmptyText(t *testing.T) {
	svc := NewTriageService(nil)

	result := svc.Analyze("   ")
	assert.False(t, result.IsCritical)
	assert.Empty(t, result.MatchedWords)
}

func TestTriageAnalyzeCaseInsensitive(t *testing.T) {
	svc := NewTriageService(nil)

	result := svc.Analyze("URGENT il faut intervenir")
	assert.True(t, result.IsCritical)
	assert.Equal(t, []string{"URGENT"}, result.MatchedWords)
}

func TestTriageAnalyzeDeduplicatesMatches(t *testing.T) {
	svc := NewTriageService(nil)

	result := svc.Analyze("danger danger danger")
	assert.True(t, result.IsCritical)
	assert.Len(t, result.MatchedWords, 1)
}
