package transport

import (
	"net/http"

	"github.com/google/uuid"

	"novacart/pkg/domain/model"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityResponse struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

func identityOf(user *model.User) identityResponse {
	return identityResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

func (s *server) me(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, identityOf(userFrom(r)))
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.Users.RegisterNewUser(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	token, err := s.Auth.IssueToken(user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, token)
	s.writeJSON(w, http.StatusCreated, identityOf(user))
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, token, err := s.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, token)
	s.writeJSON(w, http.StatusOK, identityOf(user))
}

func (s *server) logout(w http.ResponseWriter, _ *http.Request) {
	s.clearSessionCookie(w)
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}
