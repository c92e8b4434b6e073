package domain

import "time"

// ChangeEntry describes one word of the new content that differs from the
// old content at the same 1-based position. The field names word_no and
// content are part of the wire format consumed by existing clients.
type ChangeEntry struct {
	WordNo  int    `json:"word_no"`
	Content string `json:"content"`
}

// NoteVersion is one immutable entry in a note's edit history. Versions
// are never updated or deleted; the sequence ordered by CreatedAt is the
// authoritative history of the note.
type NoteVersion struct {
	ID        string        `json:"id"`
	NoteID    string        `json:"note_id"`
	Changes   []ChangeEntry `json:"changes"`
	CreatedAt time.Time     `json:"created_at"`
	CreatedBy string        `json:"created_by"`
}

type VersionResponse struct {
	Changes   []ChangeEntry `json:"changes"`
	CreatedAt time.Time     `json:"created_at"`
	CreatedBy string        `json:"created_by"`
}

type HistoryResponse struct {
	Count   int               `json:"count"`
	Results []VersionResponse `json:"results"`
}
