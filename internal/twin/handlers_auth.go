package twin

import (
	"net/http"
)

type registerRequest struct {
	Email      string `json:"email"`
	Login      string `json:"login"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	TelegramID int64  `json:"telegram_id"`
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	Login       string `json:"login"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userResponse struct {
	UserID     string `json:"user_id"`
	Login      string `json:"login"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	TelegramID int64  `json:"telegram_id"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(r, &req) || req.Login == "" || req.Password == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "login, email and password are required")
		return
	}
	switch req.Role {
	case "owner", "driver":
	case "admin":
		writeError(w, http.StatusBadRequest, "registration with role admin is not allowed")
		return
	default:
		writeError(w, http.StatusBadRequest, "unknown role "+req.Role)
		return
	}

	s.store.mu.Lock()
	u, ok := s.store.addUser(user{
		Login:      req.Login,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		TelegramID: req.TelegramID,
	})
	s.store.mu.Unlock()
	if !ok {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	s.issue(w, u)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	s.store.mu.Lock()
	u := s.store.userByLogin(req.Login)
	var snapshot user
	if u != nil {
		snapshot = *u
	}
	s.store.mu.Unlock()
	if u == nil || snapshot.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid login or password")
		return
	}
	s.issue(w, &snapshot)
}

func (s *Server) issue(w http.ResponseWriter, u *user) {
	tok, err := s.tokens.mint(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	writeJSON(w, http.StatusOK, userResponse{
		UserID:     u.ID,
		Login:      u.Login,
		Email:      u.Email,
		Role:       u.Role,
		TelegramID: u.TelegramID,
	})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeBody(r, &req) || req.OldPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "oldPassword and newPassword are required")
		return
	}

	s.store.mu.Lock()
	u := s.store.users[caller(r).ID]
	if u == nil || u.Password != req.OldPassword {
		s.store.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "invalid old password")
		return
	}
	u.Password = req.NewPassword
	snapshot := *u
	s.store.mu.Unlock()

	s.issue(w, &snapshot)
}
