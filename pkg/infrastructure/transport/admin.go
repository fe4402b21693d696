package transport

import (
	"net/http"
)

func (s *server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Users.ListUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

func (s *server) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Dashboard.Stats(r.Context(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}
