package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/dto"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	id, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.RegisterResponse{
		UserID:  id.String(),
		Message: "Check your email for the activation code.",
	})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req dto.ActivateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	userID := uuid.MustParse(req.UserID)
	if err := s.auth.Activate(r.Context(), userID, req.Code); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Account activated."})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	result, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewLoginResponse(result))
}

func (s *Server) handleLogin2FA(w http.ResponseWriter, r *http.Request) {
	var req dto.Login2FARequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	pair, err := s.auth.Login2FA(r.Context(), uuid.MustParse(req.UserID), req.Code)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTokenResponse(pair))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if err := s.auth.Logout(r.Context(), claims); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Logged out."})
}

func (s *Server) handleForgetPassword(w http.ResponseWriter, r *http.Request) {
	req := dto.ForgetPasswordRequest{Email: r.URL.Query().Get("email")}
	if err := req.Validate(); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	challenge, err := s.auth.ForgetPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ForgetPasswordResponse{
		Message:  challenge.Message,
		ExpireIn: challenge.ExpireIn,
	})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	userID := uuid.MustParse(req.UserID)
	if err := s.auth.ResetPassword(r.Context(), userID, req.Code, req.NewPassword); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Password updated. Please log in again."})
}

func (s *Server) handleAccessCodes(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, r, s.log, apperr.Internal(err))
		return
	}

	live, err := s.auth.AccessCodes(r.Context(), userID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAccessCodesResponse(live))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, r, s.log, apperr.Internal(err))
		return
	}

	user, err := s.users.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewProfileResponse(user))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	claims := claimsFrom(r.Context())
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, r, s.log, apperr.Internal(err))
		return
	}

	if _, err := s.users.UpdateProfile(r.Context(), userID, req.Username, req.Is2FA); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Profile updated."})
}
