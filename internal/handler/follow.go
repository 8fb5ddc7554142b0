package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blogfeed/internal/auth"
	"github.com/sakif/blogfeed/internal/service"
)

// FollowHandler changes follow edges. Both routes require a login and
// always land on the following feed.
type FollowHandler struct {
	relations *service.RelationshipService
	pages     *Pages
}

func NewFollowHandler(relations *service.RelationshipService, pages *Pages) *FollowHandler {
	return &FollowHandler{relations: relations, pages: pages}
}

// HandleFollow serves GET /profile/{username}/follow.
func (h *FollowHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	err := h.relations.FollowByUsername(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	http.Redirect(w, r, "/follow/", http.StatusFound)
}

// HandleUnfollow serves GET /profile/{username}/unfollow.
func (h *FollowHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	err := h.relations.UnfollowByUsername(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	http.Redirect(w, r, "/follow/", http.StatusFound)
}
