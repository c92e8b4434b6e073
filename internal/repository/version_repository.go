package repository

import (
	"context"
	"fmt"

	"collabnote-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// VersionRepository is an append-only store of note version records.
// Versions are never updated or deleted.
type VersionRepository interface {
	Append(version *domain.NoteVersion) error
	ListByNote(noteID string) ([]*domain.NoteVersion, error)
}

type versionRepository struct {
	client *kivik.Client
	dbName string
}

func NewVersionRepository(client *kivik.Client, dbName string) VersionRepository {
	return &versionRepository{
		client: client,
		dbName: dbName,
	}
}

// EnsureVersionIndex creates the Mango index the history query sorts on.
// Safe to call on every startup.
func EnsureVersionIndex(client *kivik.Client, dbName string) error {
	db := client.DB(dbName)

	index := map[string]interface{}{
		"fields": []string{"note_id", "created_at"},
	}

	if err := db.CreateIndex(context.Background(), "versions", "by-note-created", index); err != nil {
		return fmt.Errorf("failed to create version index: %w", err)
	}

	return nil
}

func (r *versionRepository) Append(version *domain.NoteVersion) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("version:%s", version.ID)
	_, err := db.Put(context.Background(), docID, version)
	if err != nil {
		return fmt.Errorf("failed to append version: %w", err)
	}

	return nil
}

// ListByNote returns the note's versions in ascending creation order,
// which is the authoritative edit history.
func (r *versionRepository) ListByNote(noteID string) ([]*domain.NoteVersion, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"note_id":    noteID,
			"created_at": map[string]interface{}{"$exists": true},
		},
		"sort": []map[string]string{
			{"note_id": "asc"},
			{"created_at": "asc"},
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []*domain.NoteVersion
	for rows.Next() {
		var version domain.NoteVersion
		if err := rows.ScanDoc(&version); err != nil {
			continue
		}
		versions = append(versions, &version)
	}

	return versions, nil
}
