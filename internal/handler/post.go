package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blogfeed/internal/apperror"
	"github.com/sakif/blogfeed/internal/auth"
	"github.com/sakif/blogfeed/internal/form"
	"github.com/sakif/blogfeed/internal/model"
	"github.com/sakif/blogfeed/internal/render"
	"github.com/sakif/blogfeed/internal/service"
)

// maxFormMemory is how much of a multipart body is held in memory; the
// rest spills to temporary files.
const maxFormMemory = 8 << 20

var postSchema = form.Schema{
	"text":  {Required: true, Label: "Text"},
	"group": {Rules: "max=64", Label: "Group"},
}

// PostHandler serves post pages and the post and comment forms.
type PostHandler struct {
	posts  *service.PostService
	pages  *Pages
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, pages *Pages, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, pages: pages, logger: logger}
}

// HandleDetail serves GET /posts/{id}/.
func (h *PostHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	detail, err := h.posts.GetPost(r.Context(), id)
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	h.pages.Render(w, r, http.StatusOK, "post_detail.html", render.Data{
		"Post":        detail.Post,
		"Comments":    detail.Comments,
		"AuthorPosts": detail.AuthorPosts,
	})
}

// HandleComment serves POST /posts/{id}/comment. An unknown post is a 404
// whatever the form holds; otherwise the user lands back on the post and an
// empty comment is simply not stored.
func (h *PostHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	_, err := h.posts.AddComment(r.Context(), auth.CurrentUser(r.Context()), id, r.PostForm.Get("text"))
	if err != nil && !errors.Is(err, apperror.ErrValidation) {
		h.pages.Error(w, r, err)
		return
	}
	http.Redirect(w, r, detailURL(id), http.StatusFound)
}

// HandleCreateForm serves GET /create/.
func (h *PostHandler) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderPostForm(w, r, http.StatusOK, nil, nil, nil)
}

// HandleCreate serves POST /create/. On success the author lands on their
// profile.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	res, image, err := h.readPostForm(r)
	if err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	if image != nil {
		defer image.Close()
	}
	if !res.Valid() {
		h.renderPostForm(w, r, http.StatusOK, nil, res.Values, res.Errors)
		return
	}

	_, err = h.posts.CreatePost(r.Context(), user, postInput(res, image))
	if errors.Is(err, apperror.ErrValidation) {
		h.renderPostForm(w, r, http.StatusOK, nil, res.Values, mergeErrors(res.Errors, err))
		return
	}
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile/"+user.Username+"/", http.StatusFound)
}

// HandleEditForm serves GET /posts/{id}/edit/. Anyone but the author is
// sent to the post instead.
func (h *PostHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	post, err := h.posts.PostForEdit(r.Context(), auth.CurrentUser(r.Context()), id)
	if err != nil {
		h.editError(w, r, id, err)
		return
	}

	values := map[string]string{"text": post.Text}
	if post.HasGroup() {
		values["group"] = *post.GroupID
	}
	h.renderPostForm(w, r, http.StatusOK, post, values, nil)
}

// HandleEdit serves POST /posts/{id}/edit/.
func (h *PostHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	user := auth.CurrentUser(r.Context())

	// Authorization comes before reading the body so a non-author never
	// gets a form re-rendered at them.
	post, err := h.posts.PostForEdit(r.Context(), user, id)
	if err != nil {
		h.editError(w, r, id, err)
		return
	}

	res, image, err := h.readPostForm(r)
	if err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	if image != nil {
		defer image.Close()
	}
	if !res.Valid() {
		h.renderPostForm(w, r, http.StatusOK, post, res.Values, res.Errors)
		return
	}

	_, err = h.posts.EditPost(r.Context(), user, id, postInput(res, image))
	if errors.Is(err, apperror.ErrValidation) {
		h.renderPostForm(w, r, http.StatusOK, post, res.Values, mergeErrors(res.Errors, err))
		return
	}
	if err != nil {
		h.editError(w, r, id, err)
		return
	}
	http.Redirect(w, r, detailURL(id), http.StatusFound)
}

func (h *PostHandler) editError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, apperror.ErrForbidden) {
		http.Redirect(w, r, detailURL(id), http.StatusFound)
		return
	}
	h.pages.Error(w, r, err)
}

// renderPostForm renders create_post.html; a non-nil post switches it to
// edit mode.
func (h *PostHandler) renderPostForm(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	post *model.Post,
	values map[string]string,
	errs map[string][]string,
) {
	groups, err := h.posts.Groups(r.Context())
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}

	data := render.Data{"Groups": groups, "IsEdit": post != nil}
	if post != nil {
		data["PostID"] = post.ID
	}
	if values != nil {
		data["Form"] = values
	}
	if errs != nil {
		data["Errors"] = errs
	}
	h.pages.Render(w, r, status, "create_post.html", data)
}

// readPostForm parses a post submission. Browsers send multipart bodies
// because of the image field; plain urlencoded bodies are accepted too. The
// returned file is nil when no image was uploaded and must be closed by
// the caller otherwise.
func (h *PostHandler) readPostForm(r *http.Request) (form.Result, multipart.File, error) {
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return form.Result{}, nil, fmt.Errorf("handler/post: parsing form: %w", err)
	}

	res := form.Validate(r.PostForm, postSchema)
	if r.MultipartForm == nil {
		return res, nil, nil
	}

	file, _, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return res, nil, nil
	case err != nil:
		return form.Result{}, nil, fmt.Errorf("handler/post: reading image: %w", err)
	}
	return res, file, nil
}

func postInput(res form.Result, image multipart.File) service.PostInput {
	in := service.PostInput{Text: res.Get("text"), GroupID: res.Get("group")}
	if image != nil {
		in.Image = io.Reader(image)
	}
	return in
}

// postID reads the {id} URL parameter. Anything but a positive integer
// names no post.
func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func detailURL(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10) + "/"
}
