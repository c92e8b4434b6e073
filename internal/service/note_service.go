package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"collabnote-server/internal/diff"
	"collabnote-server/internal/domain"
	"collabnote-server/internal/repository"

	"github.com/google/uuid"
)

type NoteService struct {
	repo        repository.NoteRepository
	versionRepo repository.VersionRepository
	userRepo    repository.UserRepository
	events      *EventService

	// One mutex per note ID. An edit must read the current content,
	// compute the diff, write the new content and append the version
	// record without another edit of the same note interleaving.
	noteLocks sync.Map
}

func NewNoteService(
	repo repository.NoteRepository,
	versionRepo repository.VersionRepository,
	userRepo repository.UserRepository,
	events *EventService,
) *NoteService {
	return &NoteService{
		repo:        repo,
		versionRepo: versionRepo,
		userRepo:    userRepo,
		events:      events,
	}
}

func (s *NoteService) lockNote(noteID string) *sync.Mutex {
	lock, _ := s.noteLocks.LoadOrStore(noteID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *NoteService) Create(ownerID string, req *domain.CreateNoteRequest) (*domain.NoteResponse, error) {
	exists, err := s.repo.TitleExists(ownerID, req.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to check title uniqueness: %w", err)
	}
	if exists {
		return nil, &DuplicateTitleError{Title: req.Title}
	}

	now := time.Now()
	note := &domain.Note{
		ID:            uuid.New().String(),
		Title:         req.Title,
		Content:       req.Content,
		OwnerID:       ownerID,
		Collaborators: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(note); err != nil {
		return nil, err
	}

	return s.toResponse(note)
}

func (s *NoteService) List(userID string) ([]*domain.NoteResponse, error) {
	notes, err := s.repo.ListForUser(userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*domain.NoteResponse, 0, len(notes))
	for _, note := range notes {
		resp, err := s.toResponse(note)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return responses, nil
}

func (s *NoteService) GetByID(userID, noteID string) (*domain.NoteResponse, error) {
	note, err := s.repo.FindByID(noteID)
	if err != nil {
		return nil, err
	}

	if !note.HasAccess(userID) {
		return nil, ErrForbidden
	}

	return s.toResponse(note)
}

// Update applies an edit to the note's content. The title and owner are
// immutable through this path; an attempt to supply either fails before
// any diff is computed or anything is written. Every invocation appends
// exactly one version record, even when the new content equals the old
// (the record then carries an empty change list).
func (s *NoteService) Update(userID, noteID string, req *domain.UpdateNoteRequest) (*domain.NoteResponse, error) {
	var immutable []string
	if req.Title != nil {
		immutable = append(immutable, "title")
	}
	if req.Owner != nil {
		immutable = append(immutable, "owner")
	}
	if len(immutable) > 0 {
		return nil, &ImmutableFieldError{Fields: immutable}
	}

	note, err := s.applyEdit(userID, noteID, req)
	if err != nil {
		return nil, err
	}

	// Events fire only after the note lock is released; a stalled
	// subscriber must never hold up the edit path.
	if s.events != nil {
		s.events.NoteUpdated(note, userID)
	}

	return s.toResponse(note)
}

// applyEdit performs the read-diff-write-append unit under the note lock
// and returns a snapshot of the updated note.
func (s *NoteService) applyEdit(userID, noteID string, req *domain.UpdateNoteRequest) (*domain.Note, error) {
	lock := s.lockNote(noteID)
	lock.Lock()
	defer lock.Unlock()

	note, err := s.repo.FindByID(noteID)
	if err != nil {
		return nil, err
	}

	if !note.HasAccess(userID) {
		return nil, ErrForbidden
	}

	var newContent string
	if req.Content != nil {
		newContent = *req.Content
	}

	now := time.Now()
	version := &domain.NoteVersion{
		ID:        uuid.New().String(),
		NoteID:    note.ID,
		Changes:   diff.Compute(note.Content, newContent),
		CreatedAt: now,
		CreatedBy: userID,
	}

	// The version goes in before the content: if the second write fails,
	// a dangling version record is recoverable noise, while updated
	// content with no record would silently lose history.
	if err := s.versionRepo.Append(version); err != nil {
		return nil, err
	}

	note.Content = newContent
	note.UpdatedAt = now

	if err := s.repo.Update(note); err != nil {
		return nil, err
	}

	return cloneNote(note), nil
}

// AddCollaborators resolves the given usernames and adds them to the
// note's collaborator set. Owner-only. All-or-nothing: if any username
// does not resolve, no collaborator is added. Adding a user who already
// collaborates is a no-op.
func (s *NoteService) AddCollaborators(userID, noteID string, usernames []string) (*domain.NoteResponse, error) {
	note, err := s.applyCollaborators(userID, noteID, usernames)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.CollaboratorsAdded(note, usernames, userID)
	}

	return s.toResponse(note)
}

func (s *NoteService) applyCollaborators(userID, noteID string, usernames []string) (*domain.Note, error) {
	lock := s.lockNote(noteID)
	lock.Lock()
	defer lock.Unlock()

	note, err := s.repo.FindByID(noteID)
	if err != nil {
		return nil, err
	}

	if !note.IsOwner(userID) {
		return nil, ErrForbidden
	}

	userIDs := make([]string, 0, len(usernames))
	for _, username := range usernames {
		user, err := s.userRepo.FindByUsername(username)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, &UnknownUserError{Username: username}
			}
			return nil, fmt.Errorf("failed to resolve collaborator %q: %w", username, err)
		}
		userIDs = append(userIDs, user.ID)
	}

	for _, id := range userIDs {
		if !containsUser(note.Collaborators, id) {
			note.Collaborators = append(note.Collaborators, id)
		}
	}
	note.UpdatedAt = time.Now()

	if err := s.repo.Update(note); err != nil {
		return nil, err
	}

	return cloneNote(note), nil
}

// History returns the note's version records in ascending creation
// order. Caller must be the owner or a collaborator.
func (s *NoteService) History(userID, noteID string) (*domain.HistoryResponse, error) {
	note, err := s.repo.FindByID(noteID)
	if err != nil {
		return nil, err
	}

	if !note.HasAccess(userID) {
		return nil, ErrForbidden
	}

	versions, err := s.versionRepo.ListByNote(noteID)
	if err != nil {
		return nil, err
	}

	usernames := make(map[string]string)
	results := make([]domain.VersionResponse, 0, len(versions))
	for _, v := range versions {
		author, ok := usernames[v.CreatedBy]
		if !ok {
			user, err := s.userRepo.FindByID(v.CreatedBy)
			if err != nil {
				author = v.CreatedBy
			} else {
				author = user.Username
			}
			usernames[v.CreatedBy] = author
		}

		results = append(results, domain.VersionResponse{
			Changes:   v.Changes,
			CreatedAt: v.CreatedAt,
			CreatedBy: author,
		})
	}

	return &domain.HistoryResponse{
		Count:   len(results),
		Results: results,
	}, nil
}

func (s *NoteService) toResponse(note *domain.Note) (*domain.NoteResponse, error) {
	owner, err := s.userRepo.FindByID(note.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve note owner: %w", err)
	}

	collaborators := make([]string, 0, len(note.Collaborators))
	for _, id := range note.Collaborators {
		user, err := s.userRepo.FindByID(id)
		if err != nil {
			continue
		}
		collaborators = append(collaborators, user.Username)
	}

	return &domain.NoteResponse{
		ID:            note.ID,
		Title:         note.Title,
		Content:       note.Content,
		Owner:         owner.Username,
		Collaborators: collaborators,
		CreatedAt:     note.CreatedAt,
		UpdatedAt:     note.UpdatedAt,
	}, nil
}

// cloneNote copies the note so callers can read it after the note lock
// is released without racing a concurrent edit.
func cloneNote(note *domain.Note) *domain.Note {
	clone := *note
	clone.Collaborators = append([]string(nil), note.Collaborators...)
	return &clone
}

func containsUser(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
