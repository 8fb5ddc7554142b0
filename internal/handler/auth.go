package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/auth"
	"github.com/sakif/blogfeed/internal/form"
	"github.com/sakif/blogfeed/internal/render"
	"github.com/sakif/blogfeed/internal/service"
)

// nextCookie remembers where to go after the GitHub round trip.
const nextCookie = "oauth_next"

// oauthCookieTTL bounds how long a user may take to approve on GitHub.
const oauthCookieTTL = 10 * time.Minute

var (
	loginSchema = form.Schema{
		"username": {Required: true, Rules: "max=150", Label: "Username"},
		"password": {Required: true, Raw: true, Label: "Password"},
	}
	signupSchema = form.Schema{
		"first_name": {Rules: "max=150", Label: "First name"},
		"last_name":  {Rules: "max=150", Label: "Last name"},
		"username":   {Required: true, Rules: "max=150,handle", Label: "Username"},
		"email":      {Rules: "email,max=254", Label: "Email"},
		"password1":  {Required: true, Raw: true, Rules: "min=8", Label: "Password"},
		"password2":  {Required: true, Raw: true, SameAs: "password1", Label: "Password confirmation"},
	}
)

// AuthHandler serves signup, password login, GitHub login and logout.
//
// Every successful path ends the same way: the session cookie is set from
// the service's AuthResult and the browser is redirected, to ?next= when it
// is a local path and to the index otherwise.
type AuthHandler struct {
	accounts *service.AuthService
	github   *auth.GitHubProvider // nil when GitHub login is not configured
	ttl      time.Duration
	pages    *Pages
	logger   *slog.Logger
}

func NewAuthHandler(
	accounts *service.AuthService,
	github *auth.GitHubProvider,
	ttl time.Duration,
	pages *Pages,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		github:   github,
		ttl:      ttl,
		pages:    pages,
		logger:   logger,
	}
}

// HandleLoginForm serves GET /auth/login/.
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, r.URL.Query().Get("next"), nil, nil)
}

// HandleLogin serves POST /auth/login/.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	next := r.PostForm.Get("next")

	res := form.Validate(r.PostForm, loginSchema)
	if !res.Valid() {
		h.renderLogin(w, r, next, res.Values, res.Errors)
		return
	}

	result, err := h.accounts.Login(r.Context(), res.Get("username"), res.Get("password"))
	if errors.Is(err, apperror.ErrValidation) {
		h.renderLogin(w, r, next, res.Values, mergeErrors(nil, err))
		return
	}
	if err != nil {
		h.pages.ServerError(w, r, err)
		return
	}

	auth.SetSession(w, r, result.Token, h.ttl)
	http.Redirect(w, r, safeNext(next, "/"), http.StatusFound)
}

// HandleSignupForm serves GET /auth/signup/.
func (h *AuthHandler) HandleSignupForm(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, "signup.html", nil)
}

// HandleSignup serves POST /auth/signup/. A new account is logged in
// straight away.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	res := form.Validate(r.PostForm, signupSchema)
	if !res.Valid() {
		h.renderSignup(w, r, res.Values, res.Errors)
		return
	}

	result, err := h.accounts.Signup(r.Context(), service.SignupInput{
		Username:  res.Get("username"),
		FirstName: res.Get("first_name"),
		LastName:  res.Get("last_name"),
		Email:     res.Get("email"),
		Password:  res.Get("password1"),
	})
	if errors.Is(err, apperror.ErrValidation) {
		h.renderSignup(w, r, res.Values, mergeErrors(nil, err))
		return
	}
	if err != nil {
		h.pages.ServerError(w, r, err)
		return
	}

	auth.SetSession(w, r, result.Token, h.ttl)
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleLogout serves GET /auth/logout/.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleGitHubLogin serves GET /auth/github/login. The random state goes
// into a short-lived cookie and is compared on callback.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		h.pages.NotFound(w, r)
		return
	}

	state, err := auth.NewState()
	if err != nil {
		h.pages.ServerError(w, r, err)
		return
	}
	setShortCookie(w, r, auth.StateCookie, state)
	if next := safeNext(r.URL.Query().Get("next"), ""); next != "" {
		setShortCookie(w, r, nextCookie, next)
	}

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusFound)
}

// HandleGitHubCallback serves GET /auth/github/callback?code=..&state=..
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		h.pages.NotFound(w, r)
		return
	}

	stateCookie, err := r.Cookie(auth.StateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	clearCookie(w, auth.StateCookie)

	next := "/"
	if c, err := r.Cookie(nextCookie); err == nil {
		next = safeNext(c.Value, "/")
		clearCookie(w, nextCookie)
	}

	if denied := r.URL.Query().Get("error"); denied != "" {
		h.logger.Info("oauth callback: authorization denied", slog.String("error", denied))
		http.Redirect(w, r, LoginPath, http.StatusFound)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	profile, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.pages.ServerError(w, r, err)
		return
	}
	result, err := h.accounts.LoginOrRegisterGitHub(r.Context(), profile)
	if err != nil {
		h.pages.ServerError(w, r, err)
		return
	}

	auth.SetSession(w, r, result.Token, h.ttl)
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, next string, values map[string]string, errs map[string][]string) {
	data := render.Data{
		"Next":   safeNext(next, ""),
		"GitHub": h.github != nil,
	}
	if values != nil {
		data["Form"] = values
	}
	if errs != nil {
		data["Errors"] = errs
	}
	h.pages.Render(w, r, http.StatusOK, "login.html", data)
}

func (h *AuthHandler) renderSignup(w http.ResponseWriter, r *http.Request, values map[string]string, errs map[string][]string) {
	h.pages.Render(w, r, http.StatusOK, "signup.html", render.Data{
		"Form":   values,
		"Errors": errs,
	})
}

func setShortCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(oauthCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
}
