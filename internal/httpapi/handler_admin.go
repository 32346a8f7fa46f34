package httpapi

import (
	"net/http"
	"strconv"

	"github.com/pictolab/pictolab/internal/dto"
)

// pageParams reads 1-based pageNum/pageSize query values and converts them
// to a limit/offset pair.
func pageParams(r *http.Request) (limit, offset int) {
	pageNum, _ := strconv.Atoi(r.URL.Query().Get("pageNum"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (pageNum - 1) * pageSize
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	users, total, err := s.users.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	items := make([]dto.ProfileResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewProfileResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, dto.PageResponse[dto.ProfileResponse]{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}
