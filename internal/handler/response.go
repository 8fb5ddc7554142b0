// Package handler translates HTTP requests into service calls and service
// results into pages and redirects.
//
// Handlers hold no business rules. Each one:
//  1. reads the URL parameters and form input
//  2. calls one service method, passing the current user explicitly
//  3. renders a template, or redirects
//
// ERROR MAPPING:
// Services return errors wrapping the apperror sentinels. This file maps the
// ones every handler treats the same way:
//
//	ErrNotFound        → 404.html, status 404
//	ErrUnauthenticated → 302 /auth/login/?next=<request URI>
//	anything else      → logged, 500
//
// ErrForbidden and ErrValidation depend on the page (redirect to the post,
// re-render the form) and are handled where they occur.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/auth"
	"github.com/sakif/blogfeed/internal/render"
)

// LoginPath is where anonymous users are sent.
const LoginPath = "/auth/login/"

// Pages renders templates with the per-request context every page needs.
type Pages struct {
	renderer *render.Renderer
	logger   *slog.Logger
}

func NewPages(renderer *render.Renderer, logger *slog.Logger) *Pages {
	return &Pages{renderer: renderer, logger: logger}
}

// Render writes template name with status. The current user is added as
// "User"; "Form" and "Errors" default to empty maps so form templates never
// see a missing key.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, status int, name string, data render.Data) {
	if data == nil {
		data = render.Data{}
	}
	data["User"] = auth.CurrentUser(r.Context())
	if _, ok := data["Form"]; !ok {
		data["Form"] = map[string]string{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string][]string{}
	}

	body, err := p.renderer.Render(name, data)
	if err != nil {
		p.ServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		p.logger.Debug("writing response failed", slog.String("error", err.Error()))
	}
}

// NotFound renders the shared 404 page. It doubles as the router's
// NotFound handler.
func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.Render(w, r, http.StatusNotFound, "404.html", render.Data{"Path": r.URL.Path})
}

// ServerError logs err and answers 500 without exposing it.
func (p *Pages) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Error answers with the response shared by all handlers for err.
func (p *Pages) Error(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		p.NotFound(w, r)
	case errors.Is(err, apperror.ErrUnauthenticated):
		http.Redirect(w, r, auth.LoginURL(LoginPath, r.URL.RequestURI()), http.StatusFound)
	default:
		p.ServerError(w, r, err)
	}
}

// safeNext returns next when it is a local path, otherwise fallback.
// "//evil.com" and "/\evil.com" are protocol-relative in browsers and are
// rejected along with absolute URLs.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// mergeErrors adds the field errors carried by err to errs.
func mergeErrors(errs map[string][]string, err error) map[string][]string {
	if errs == nil {
		errs = map[string][]string{}
	}
	for field, msgs := range apperror.FieldErrors(err) {
		errs[field] = append(errs[field], msgs...)
	}
	return errs
}
