package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/isdelr/travel-listings-be/internal/services"
)

const maxPageSize = 100

// Page is the paginated list envelope.
type Page struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// pageRequest is the page a client asked for.
type pageRequest struct {
	number int
	size   int
}

func (p pageRequest) limit() int  { return p.size }
func (p pageRequest) offset() int { return (p.number - 1) * p.size }

// parsePage reads "page" and "page_size". A malformed or non-positive page
// is ErrInvalidPage; a bad page_size falls back to the default.
func parsePage(r *http.Request, defaultSize int) (pageRequest, error) {
	p := pageRequest{number: 1, size: defaultSize}
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, services.ErrInvalidPage
		}
		p.number = n
	}
	if raw := q.Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.size = n
		}
	}
	if p.size > maxPageSize {
		p.size = maxPageSize
	}
	return p, nil
}

func lastPage(total, size int) int {
	if total == 0 {
		return 1
	}
	return (total + size - 1) / size
}

// newPage builds the envelope for results on page p out of total items.
// Pages past the end, other than the first, are ErrInvalidPage.
func newPage(r *http.Request, p pageRequest, total int, results interface{}) (Page, error) {
	if p.number > lastPage(total, p.size) {
		return Page{}, services.ErrInvalidPage
	}

	page := Page{Count: total, Results: results}
	if p.number*p.size < total {
		next := pageURL(r, p.number+1)
		page.Next = &next
	}
	if p.number > 1 {
		prev := pageURL(r, p.number-1)
		page.Previous = &prev
	}
	return page, nil
}

// pageURL returns the absolute URL of the request with its page replaced.
// The first page omits the parameter.
func pageURL(r *http.Request, number int) string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}

	q := r.URL.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
