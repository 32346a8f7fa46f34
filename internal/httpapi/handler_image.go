package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/domain"
	"github.com/pictolab/pictolab/internal/dto"
	"github.com/pictolab/pictolab/internal/service"
)

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, r, s.log, apperr.Internal(err))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageBytes+(1<<20))
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, s.log, apperr.New(apperr.KindBadRequest, "missing image file field"))
		return
	}
	defer file.Close()

	img, err := s.images.Upload(r.Context(), userID, header.Filename, file)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewImageResponse(img))
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, r, s.log, apperr.Internal(err))
		return
	}

	limit, offset := pageParams(r)
	images, total, err := s.images.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	items := make([]dto.ImageResponse, 0, len(images))
	for i := range images {
		items = append(items, dto.NewImageResponse(&images[i]))
	}
	writeJSON(w, http.StatusOK, dto.PageResponse[dto.ImageResponse]{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	id, err := imageID(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	img, _, err := s.images.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewImageResponse(img))
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, r, s.log, apperr.Internal(err))
		return
	}

	id, err := imageID(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	caller := &domain.User{ID: userID, Role: claims.Role}
	if err := s.images.Delete(r.Context(), caller, id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Image deleted."})
}

func imageID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.KindInvalidInput, "malformed image id")
	}
	return id, nil
}

func (s *Server) handleServeImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	path, err := s.images.ServePath(filename)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	http.ServeFile(w, r, path)
}
