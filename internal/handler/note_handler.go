package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"collabnote-server/internal/domain"
	"collabnote-server/internal/middleware"
	"collabnote-server/internal/repository"
	"collabnote-server/internal/service"
	"collabnote-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type NoteHandler struct {
	service  *service.NoteService
	validate *validator.Validate
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	userID := middleware.GetUserID(r)

	note, err := h.service.Create(userID, &req)
	if err != nil {
		var dup *service.DuplicateTitleError
		if errors.As(err, &dup) {
			response.BadRequest(w, dup.Error())
			return
		}
		response.InternalError(w, "Failed to create note")
		return
	}

	response.Created(w, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	notes, err := h.service.List(userID)
	if err != nil {
		response.InternalError(w, "Failed to list notes")
		return
	}

	response.Success(w, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	userID := middleware.GetUserID(r)

	note, err := h.service.GetByID(userID, noteID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch note")
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	var req domain.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	// Content must be present, though it may be empty: clearing a note
	// is a legal edit. The usual required tag would reject "".
	if req.Content == nil {
		response.BadRequest(w, "Content is required")
		return
	}

	userID := middleware.GetUserID(r)

	note, err := h.service.Update(userID, noteID, &req)
	if err != nil {
		var immutable *service.ImmutableFieldError
		if errors.As(err, &immutable) {
			response.BadRequest(w, immutable.Error())
			return
		}
		h.writeServiceError(w, err, "Failed to update note")
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) AddCollaborators(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	var req domain.AddCollaboratorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	userID := middleware.GetUserID(r)

	note, err := h.service.AddCollaborators(userID, noteID, req.Collaborators)
	if err != nil {
		var unknown *service.UnknownUserError
		if errors.As(err, &unknown) {
			response.BadRequest(w, unknown.Error())
			return
		}
		h.writeServiceError(w, err, "Failed to add collaborators")
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) History(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	userID := middleware.GetUserID(r)

	history, err := h.service.History(userID, noteID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch version history")
		return
	}

	response.Success(w, history)
}

func (h *NoteHandler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNoteNotFound):
		response.NotFound(w, "Note not found")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
