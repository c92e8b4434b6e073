package domain

import "time"

type Note struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`

	OwnerID       string   `json:"owner_id"`
	Collaborators []string `json:"collaborators"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOwner reports whether userID owns the note. Sharing is owner-only.
func (n *Note) IsOwner(userID string) bool {
	return n.OwnerID == userID
}

// HasAccess reports whether userID may read or edit the note, i.e. is
// the owner or one of the collaborators.
func (n *Note) HasAccess(userID string) bool {
	if n.OwnerID == userID {
		return true
	}
	for _, c := range n.Collaborators {
		if c == userID {
			return true
		}
	}
	return false
}

type CreateNoteRequest struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content"`
}

// UpdateNoteRequest carries an edit. Title and Owner are declared only so
// that attempts to change them can be rejected explicitly; neither is
// editable through this path.
type UpdateNoteRequest struct {
	Content *string `json:"content"`
	Title   *string `json:"title"`
	Owner   *string `json:"owner"`
}

type AddCollaboratorsRequest struct {
	Collaborators []string `json:"collaborators" validate:"required,min=1,dive,required"`
}

type NoteResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Owner         string    `json:"owner"`
	Collaborators []string  `json:"collaborators,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
