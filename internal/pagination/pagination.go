// Package pagination implements offset pagination over gorm queries.
package pagination

import (
	"net/url"
	"strconv"

	"gorm.io/gorm"
)

const (
	// DefaultPerPage is the page size used by list pages.
	DefaultPerPage = 10
	// MaxPerPage caps client supplied page sizes.
	MaxPerPage = 100
)

// Page is one page of results, serialized the way list components expect.
type Page[T any] struct {
	Data        []T     `json:"data"`
	CurrentPage int     `json:"current_page"`
	LastPage    int     `json:"last_page"`
	PerPage     int     `json:"per_page"`
	Total       int64   `json:"total"`
	From        *int    `json:"from"`
	To          *int    `json:"to"`
	Path        string  `json:"path"`
	PrevPageURL *string `json:"prev_page_url"`
	NextPageURL *string `json:"next_page_url"`
}

// Request holds the page coordinates of a list request.
type Request struct {
	Page    int
	PerPage int
	Path    string
	Query   url.Values
}

// Normalize clamps page and page size to sane values.
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = 1
	}

	if r.PerPage < 1 || r.PerPage > MaxPerPage {
		r.PerPage = DefaultPerPage
	}

	return r
}

// Find counts tx, loads the requested page into a Page and builds the navigation URLs.
// The query string of req is preserved in the page links. Scopes apply to the page load only,
// which keeps preloads out of the count query.
func Find[T any](tx *gorm.DB, req Request, scopes ...func(*gorm.DB) *gorm.DB) (Page[T], error) {
	req = req.Normalize()

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	items := make([]T, 0, req.PerPage)
	offset := (req.Page - 1) * req.PerPage

	if int64(offset) < total {
		if err := tx.Session(&gorm.Session{}).Scopes(scopes...).Limit(req.PerPage).Offset(offset).Find(&items).Error; err != nil {
			return Page[T]{}, err
		}
	}

	return Build(items, total, req), nil
}

// Build assembles a Page from already loaded items.
func Build[T any](items []T, total int64, req Request) Page[T] {
	req = req.Normalize()

	lastPage := int((total + int64(req.PerPage) - 1) / int64(req.PerPage))
	if lastPage == 0 {
		lastPage = 1
	}

	p := Page[T]{
		Data:        items,
		CurrentPage: req.Page,
		LastPage:    lastPage,
		PerPage:     req.PerPage,
		Total:       total,
		Path:        req.Path,
	}

	if len(items) > 0 {
		from := (req.Page-1)*req.PerPage + 1
		to := from + len(items) - 1
		p.From, p.To = &from, &to
	}

	if req.Page > 1 {
		prev := pageURL(req, req.Page-1)
		p.PrevPageURL = &prev
	}

	if req.Page < lastPage {
		next := pageURL(req, req.Page+1)
		p.NextPageURL = &next
	}

	return p
}

// Map converts the items of p with fn, keeping the page metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Data))
	for i, item := range p.Data {
		out[i] = fn(item)
	}

	return Page[U]{
		Data:        out,
		CurrentPage: p.CurrentPage,
		LastPage:    p.LastPage,
		PerPage:     p.PerPage,
		Total:       p.Total,
		From:        p.From,
		To:          p.To,
		Path:        p.Path,
		PrevPageURL: p.PrevPageURL,
		NextPageURL: p.NextPageURL,
	}
}

func pageURL(req Request, page int) string {
	q := url.Values{}
	for k, v := range req.Query {
		q[k] = v
	}

	q.Set("page", strconv.Itoa(page))

	return req.Path + "?" + q.Encode()
}
