package httpapi

import (
	"net/http"
	"strconv"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/domain"
	"github.com/pictolab/pictolab/internal/dto"
)

func (s *Server) handleSaveAnnotations(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveAnnotationsRequest
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

	annotations := make([]domain.Annotation, 0, len(req.Annotations))
	for _, a := range req.Annotations {
		annotations = append(annotations, domain.Annotation{
			Label:  a.Label,
			X:      a.X,
			Y:      a.Y,
			Width:  a.Width,
			Height: a.Height,
		})
	}

	if err := s.annotations.Save(r.Context(), userID, req.ImageID, annotations); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Annotations saved."})
}

func (s *Server) handleGetAnnotations(w http.ResponseWriter, r *http.Request) {
	imageID, err := strconv.ParseInt(r.URL.Query().Get("imageId"), 10, 64)
	if err != nil || imageID <= 0 {
		writeError(w, r, s.log, apperr.New(apperr.KindInvalidInput, "imageId must be a positive integer"))
		return
	}

	annotations, err := s.annotations.Get(r.Context(), imageID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	items := make([]dto.AnnotationResponse, 0, len(annotations))
	for i := range annotations {
		items = append(items, dto.NewAnnotationResponse(&annotations[i]))
	}
	writeJSON(w, http.StatusOK, items)
}
