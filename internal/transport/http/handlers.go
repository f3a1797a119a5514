package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"doodleduel/internal/domain"
	"doodleduel/internal/store"
	"doodleduel/internal/upload"
)

// maxRoomBytes bounds a room document in a request body
const maxRoomBytes = 1 << 20

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	RoomCode   string       `json:"roomCode"`
	InviteLink string       `json:"inviteLink"`
	Room       *domain.Room `json:"room"`
}

// HeartbeatRequest is the body of a heartbeat
type HeartbeatRequest struct {
	PlayerID string `json:"playerId"`
}

// UploadResponse is the response for an image upload
type UploadResponse struct {
	URL string `json:"url"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// API error codes
const (
	CodeMissingRoomCode = "MISSING_ROOM_CODE"
	CodeRoomNotFound    = "ROOM_NOT_FOUND"
	CodeVersionConflict = "VERSION_CONFLICT"
	CodeInvalidBody     = "INVALID_BODY"
	CodeMissingVersion  = "MISSING_VERSION"
	CodeUploadRejected  = "UPLOAD_REJECTED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// handleCreateRoom handles POST /api/rooms
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := s.decodeRoom(w, r)
	if !ok {
		return
	}

	code, err := s.store.Create(r.Context(), room)
	if err != nil {
		s.logger.Error("failed to create room", "error", err)
		s.sendError(w, http.StatusInternalServerError, "CREATION_FAILED", "Failed to create room")
		return
	}
	created, err := s.store.Get(r.Context(), code)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	// Build invite link
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	inviteLink := scheme + "://" + r.Host + "/join/" + code

	w.Header().Set("ETag", etag(created.Version))
	s.sendSuccess(w, &CreateRoomResponse{
		RoomCode:   code,
		InviteLink: inviteLink,
		Room:       created,
	})
}

// handleGetRoom handles GET /api/rooms/{roomCode}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomCode, ok := s.roomCode(w, r)
	if !ok {
		return
	}

	room, err := s.store.Get(r.Context(), roomCode)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	w.Header().Set("ETag", etag(room.Version))
	s.sendSuccess(w, room)
}

// handlePutRoom handles PUT /api/rooms/{roomCode}. The write only lands if
// If-Match names the version the client read.
func (s *Server) handlePutRoom(w http.ResponseWriter, r *http.Request) {
	roomCode, ok := s.roomCode(w, r)
	if !ok {
		return
	}
	expected, err := parseETag(r.Header.Get("If-Match"))
	if err != nil {
		s.sendError(w, http.StatusPreconditionRequired, CodeMissingVersion, "If-Match version is required")
		return
	}
	next, ok := s.decodeRoom(w, r)
	if !ok {
		return
	}

	updated, err := s.store.Update(r.Context(), roomCode, func(room *domain.Room) error {
		if room.Version != expected {
			return store.ErrVersionConflict
		}
		*room = *next.Clone()
		return nil
	})
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	s.hub.Broadcast(updated)
	w.Header().Set("ETag", etag(updated.Version))
	s.sendSuccess(w, updated)
}

// handleDeleteRoom handles DELETE /api/rooms/{roomCode}
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomCode, ok := s.roomCode(w, r)
	if !ok {
		return
	}

	if err := s.store.Delete(r.Context(), roomCode); err != nil {
		s.sendStoreError(w, err)
		return
	}

	s.hub.CloseRoom(roomCode)
	s.sendSuccess(w, nil)
}

// handleHeartbeat handles POST /api/rooms/{roomCode}/heartbeat
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	roomCode, ok := s.roomCode(w, r)
	if !ok {
		return
	}

	var req HeartbeatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1024)).Decode(&req); err != nil || req.PlayerID == "" {
		s.sendError(w, http.StatusBadRequest, CodeInvalidBody, "playerId is required")
		return
	}

	if err := s.store.Heartbeat(r.Context(), roomCode, req.PlayerID); err != nil {
		s.sendStoreError(w, err)
		return
	}
	s.sendSuccess(w, nil)
}

// handleUpload handles POST /api/uploads?name=
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	url, err := s.images.ProcessAndStoreImage(r.Context(), r.URL.Query().Get("name"), r.Body)
	if err != nil {
		if errors.Is(err, upload.ErrNotAnImage) || errors.Is(err, upload.ErrTooLarge) {
			s.sendError(w, http.StatusBadRequest, CodeUploadRejected, err.Error())
			return
		}
		s.logger.Error("upload failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, CodeInternalError, "Internal server error")
		return
	}
	s.sendSuccess(w, &UploadResponse{URL: url})
}

// handleImage handles GET /uploads/{file}
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	file, err := s.images.Open(r.PathValue("file"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), file)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

func (s *Server) roomCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	roomCode := strings.ToUpper(r.PathValue("roomCode"))
	if roomCode == "" {
		s.sendError(w, http.StatusBadRequest, CodeMissingRoomCode, "Room code is required")
		return "", false
	}
	return roomCode, true
}

func (s *Server) decodeRoom(w http.ResponseWriter, r *http.Request) (*domain.Room, bool) {
	var room domain.Room
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRoomBytes)).Decode(&room); err != nil {
		s.sendError(w, http.StatusBadRequest, CodeInvalidBody, "Invalid room document")
		return nil, false
	}
	room.Normalize()
	return &room, true
}

// sendStoreError maps store errors onto HTTP statuses
func (s *Server) sendStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		s.sendError(w, http.StatusNotFound, CodeRoomNotFound, "Room not found")
	case errors.Is(err, store.ErrVersionConflict):
		s.sendError(w, http.StatusConflict, CodeVersionConflict, "Room changed, reload and retry")
	default:
		s.logger.Error("store error", "error", err)
		s.sendError(w, http.StatusInternalServerError, CodeInternalError, "Internal server error")
	}
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

func etag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

func parseETag(value string) (int64, error) {
	return strconv.ParseInt(strings.Trim(strings.TrimPrefix(value, "W/"), `"`), 10, 64)
}
