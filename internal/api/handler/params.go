package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/agrofarm/market/internal/api/requestctx"
	"github.com/agrofarm/market/internal/repository"
	"github.com/agrofarm/market/internal/service"
)

// idParam parses the {id} URL parameter. A second return of false
// means the response has already been written.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// pageParams reads skip/limit query parameters.
func pageParams(r *http.Request) repository.PageParams {
	var page repository.PageParams
	if raw := r.URL.Query().Get("skip"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			page.Skip = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			page.Limit = v
		}
	}
	return page.Normalize()
}

func actorFrom(r *http.Request) service.Actor {
	claims := requestctx.UserFromContext(r.Context())
	return service.Actor{UserID: claims.ID, IsAdmin: claims.IsAdmin}
}
