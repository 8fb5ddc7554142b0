// Package feed holds the pagination rules shared by every post feed.
//
// A feed is an ordered sequence of posts cut into fixed-size page windows.
// Page numbers come straight from the ?page= query parameter, so parsing is
// forgiving: a request never fails because of a bad page number.
//
//	raw "", "abc", "2.5"  → page 1
//	raw "0", "-3", "999"  → last page
//	raw "2"               → page 2 (if it exists)
package feed

import (
	"strconv"
	"strings"

	"github.com/sakif/blogfeed/internal/model"
)

// PageSize is the number of posts on one page of any feed.
const PageSize = 10

// Window describes which slice of an ordered sequence a page covers.
// Offset/Limit plug directly into repository.ListOptions.
type Window struct {
	Number   int // 1-based page number actually served
	NumPages int // always >= 1, even for an empty sequence
	Total    int // total number of items in the sequence
	Offset   int
	Limit    int
}

// NumPages returns ceil(total / PageSize), with a floor of 1 so an empty feed
// still has a (blank) first page.
func NumPages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + PageSize - 1) / PageSize
}

// Paginate resolves a raw page parameter against a sequence of total items.
//
// Non-integers fall back to page 1. Integers outside [1, NumPages] are
// clamped to the last page rather than rejected.
func Paginate(total int, raw string) Window {
	pages := NumPages(total)

	number := 1
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		number = n
		if number < 1 || number > pages {
			number = pages
		}
	}

	offset := (number - 1) * PageSize
	limit := PageSize
	if remaining := total - offset; remaining < limit {
		limit = max(remaining, 0)
	}

	return Window{
		Number:   number,
		NumPages: pages,
		Total:    total,
		Offset:   offset,
		Limit:    limit,
	}
}

// PageKey canonicalizes a raw page parameter so that requests Paginate
// resolves the same way share one key: non-integers become "1", integers
// below 1 (always the last page) become "0", and "02" becomes "2".
// Integers past the end stay distinct; which page they land on depends on
// the current total.
func PageKey(raw string) string {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		return "1"
	case n < 1:
		return "0"
	}
	return strconv.Itoa(n)
}

func (w Window) HasPrevious() bool { return w.Number > 1 }
func (w Window) HasNext() bool     { return w.Number < w.NumPages }
func (w Window) Previous() int     { return w.Number - 1 }
func (w Window) Next() int         { return w.Number + 1 }

// Pages returns 1..NumPages for rendering page links.
func (w Window) Pages() []int {
	out := make([]int, w.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Page is one served page of a feed.
type Page struct {
	Window
	Posts []model.Post
}
