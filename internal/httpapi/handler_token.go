package httpapi

import (
	"net/http"
	"time"

	"github.com/pictolab/pictolab/internal/dto"
)

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTokenResponse(pair))
}

func (s *Server) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	resp := dto.ClaimsResponse{
		UserID:  claims.Subject,
		Role:    string(claims.Role),
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Time.Truncate(time.Second)
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time.Truncate(time.Second)
	}
	writeJSON(w, http.StatusOK, resp)
}
