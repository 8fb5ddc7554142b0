package render_test

import (
	"html/template"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blogfeed/internal/feed"
	"github.com/sakif/blogfeed/internal/model"
	"github.com/sakif/blogfeed/internal/render"
	"github.com/sakif/blogfeed/web"
)

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	r, err := render.New(web.Templates())
	require.NoError(t, err)
	return r
}

func samplePage(n int) feed.Page {
	author := &model.User{ID: "u1", Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}
	posts := make([]model.Post, n)
	for i := range posts {
		posts[i] = model.Post{
			ID:       int64(n - i),
			Text:     "line one\nline <two>",
			PubDate:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			AuthorID: author.ID,
			Author:   author,
		}
	}
	return feed.Page{Window: feed.Paginate(n, "1"), Posts: posts}
}

func TestNew_ParsesEmbeddedTemplates(t *testing.T) {
	r := newRenderer(t)

	for _, page := range []string{
		"index.html", "group_list.html", "profile.html", "post_detail.html",
		"create_post.html", "follow.html", "login.html", "signup.html", "404.html",
	} {
		assert.True(t, r.Has(page), page)
	}
	assert.False(t, r.Has("base.html"), "the layout is not a page")
}

func TestFragment_Feed(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Fragment("feed", samplePage(3))
	require.NoError(t, err)

	html := string(out)
	assert.Equal(t, 3, strings.Count(html, `class="post"`))
	assert.Contains(t, html, `href="/profile/leo/"`)
	assert.Contains(t, html, "line one<br>line &lt;two&gt;", "text is escaped and newlines kept")
	assert.NotContains(t, html, "paginator", "one page needs no paginator")
}

func TestFragment_FeedPaginator(t *testing.T) {
	r := newRenderer(t)

	page := samplePage(10)
	page.Window = feed.Paginate(25, "2")

	out, err := r.Fragment("feed", page)
	require.NoError(t, err)
	assert.Contains(t, string(out), `href="?page=3"`)
	assert.Contains(t, string(out), `<span class="current">2</span>`)
}

func TestRender_LayoutAndYear(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Render("index.html", render.Data{
		"User": (*model.User)(nil),
		"Feed": template.HTML("<p>cached feed</p>"),
	})
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<p>cached feed</p>")
	assert.Contains(t, html, "Log in")
	assert.Contains(t, html, "&copy; "+time.Now().Format("2006"))
}

func TestRender_NavForUser(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Render("follow.html", render.Data{
		"User": &model.User{ID: "u1", Username: "leo"},
		"Page": samplePage(0),
	})
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `href="/create/"`)
	assert.Contains(t, html, "Log out")
	assert.Contains(t, html, "No posts yet.")
}

func TestRender_UnknownPage(t *testing.T) {
	r := newRenderer(t)
	_, err := r.Render("missing.html", nil)
	assert.Error(t, err)
}

func TestNew_MinimalFS(t *testing.T) {
	fsys := fstest.MapFS{
		"base.html":         {Data: []byte(`{{define "base"}}[{{template "content" .}}]{{end}}`)},
		"hello.html":        {Data: []byte(`{{define "content"}}hi {{.Name}} {{.Year}}{{end}}`)},
		"partials/bit.html": {Data: []byte(`{{define "bit"}}<b>{{.}}</b>{{end}}`)},
	}
	r, err := render.New(fsys)
	require.NoError(t, err)

	out, err := r.Render("hello.html", render.Data{"Name": "ann", "Year": 1999})
	require.NoError(t, err)
	assert.Equal(t, "[hi ann 1999]", string(out))

	out, err = r.Fragment("bit", "x")
	require.NoError(t, err)
	assert.Equal(t, "<b>x</b>", string(out))
}
