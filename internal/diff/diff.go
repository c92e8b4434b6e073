// Package diff computes word-level change lists between two revisions of
// a note's content.
package diff

import (
	"strings"

	"collabnote-server/internal/domain"
)

// Compute compares old and new content word by word and returns one
// ChangeEntry per position of the new text that exceeds the old text's
// length or whose word differs from the old word at the same position.
// Positions are 1-based. Words are whitespace-delimited.
//
// This is a positional comparison, not a minimal edit script: no
// insertion/deletion alignment is attempted. Words the old text has
// beyond the new text's length produce no entries; in particular an edit
// that clears the content entirely yields an empty change list. Callers
// depend on that exact shape, so it must not change.
//
// The result is deterministic and never nil.
func Compute(oldContent, newContent string) []domain.ChangeEntry {
	oldWords := strings.Fields(oldContent)
	newWords := strings.Fields(newContent)

	changes := []domain.ChangeEntry{}

	for i, word := range newWords {
		no := i + 1
		if no > len(oldWords) || oldWords[i] != word {
			changes = append(changes, domain.ChangeEntry{WordNo: no, Content: word})
		}
	}

	return changes
}
