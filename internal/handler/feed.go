package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blogfeed/internal/auth"
	"github.com/sakif/blogfeed/internal/cache"
	"github.com/sakif/blogfeed/internal/feed"
	"github.com/sakif/blogfeed/internal/render"
	"github.com/sakif/blogfeed/internal/service"
)

// FeedHandler serves the four feed pages.
type FeedHandler struct {
	feeds    *service.FeedService
	slot     *cache.Slot
	renderer *render.Renderer
	pages    *Pages
	logger   *slog.Logger
}

func NewFeedHandler(
	feeds *service.FeedService,
	slot *cache.Slot,
	renderer *render.Renderer,
	pages *Pages,
	logger *slog.Logger,
) *FeedHandler {
	return &FeedHandler{
		feeds:    feeds,
		slot:     slot,
		renderer: renderer,
		pages:    pages,
		logger:   logger,
	}
}

// HandleIndex serves GET / (the global feed).
//
// CACHING:
// Only the feed fragment (posts + paginator) goes through the cache slot,
// keyed by the normalised page number (feed.PageKey), so "/" and "/?page=1"
// share one snapshot. It contains nothing that depends on the viewer; the
// navigation bar around it is rendered per request. Within the cache window the fragment
// is byte-identical even if posts were created or deleted meanwhile.
func (h *FeedHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("page")

	fragment, err := h.slot.Get(r.Context(), feed.PageKey(raw), func(ctx context.Context) ([]byte, error) {
		page, err := h.feeds.Global(ctx, raw)
		if err != nil {
			return nil, err
		}
		return h.renderer.Fragment("feed", page)
	})
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}

	h.pages.Render(w, r, http.StatusOK, "index.html", render.Data{
		"Feed": template.HTML(fragment),
	})
}

// HandleGroup serves GET /group/{slug}/.
func (h *FeedHandler) HandleGroup(w http.ResponseWriter, r *http.Request) {
	gf, err := h.feeds.Group(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("page"))
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	h.pages.Render(w, r, http.StatusOK, "group_list.html", render.Data{
		"Group": gf.Group,
		"Page":  gf.Page,
	})
}

// HandleProfile serves GET /profile/{username}/.
func (h *FeedHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	af, err := h.feeds.Author(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "username"), r.URL.Query().Get("page"))
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	h.pages.Render(w, r, http.StatusOK, "profile.html", render.Data{
		"Author":    af.Author,
		"Page":      af.Page,
		"Following": af.Following,
		"Follows":   af.Follows,
	})
}

// HandleFollowIndex serves GET /follow/ (login required).
func (h *FeedHandler) HandleFollowIndex(w http.ResponseWriter, r *http.Request) {
	page, err := h.feeds.Following(r.Context(), auth.CurrentUser(r.Context()), r.URL.Query().Get("page"))
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	h.pages.Render(w, r, http.StatusOK, "follow.html", render.Data{"Page": page})
}
