package transport

import (
	"net/http"

	"github.com/google/uuid"
)

type markReadRequest struct {
	ID      *uuid.UUID `json:"id"`
	MarkAll bool       `json:"markAll"`
}

func (s *server) getInbox(w http.ResponseWriter, r *http.Request) {
	inbox, err := s.Notifications.Inbox(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inbox)
}

func (s *server) markNotificationsRead(w http.ResponseWriter, r *http.Request) {
	recipient := userFrom(r).ID
	var req markReadRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var err error
	switch {
	case req.MarkAll:
		err = s.Notifications.MarkAllRead(r.Context(), recipient)
	case req.ID != nil:
		err = s.Notifications.MarkRead(r.Context(), recipient, *req.ID)
	default:
		err = badRequest("either id or markAll is required")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "notifications updated"})
}
