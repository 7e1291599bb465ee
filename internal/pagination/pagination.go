// Package pagination implements page-number pagination with the
// {"count","next","previous","results"} envelope.
package pagination

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// MaxPageSize caps the page_size query parameter.
const MaxPageSize = 10

// ErrInvalidPage is returned when the requested page lies outside the result set.
var ErrInvalidPage = errors.New("Invalid page.")

// Page is a parsed page request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Envelope is the JSON body of a paginated list.
type Envelope struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// Parse reads page and page_size from the query. A missing or non-positive
// page_size falls back to defaultSize and anything above MaxPageSize is
// clamped. A page that is not a positive integer is ErrInvalidPage.
func Parse(q url.Values, defaultSize int) (Page, error) {
	p := Page{Number: 1, Size: defaultSize}

	if raw := q.Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.Size = min(n, MaxPageSize)
		}
	}

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, ErrInvalidPage
		}
		p.Number = n
	}
	return p, nil
}

// Check reports ErrInvalidPage when the page starts past the last row. The
// first page is always valid, even for an empty result.
func (p Page) Check(count int64) error {
	if p.Number > 1 && int64(p.Offset()) >= count {
		return ErrInvalidPage
	}
	return nil
}

// Build wraps results into an envelope with absolute next/previous links
// derived from the request URL.
func Build(r *http.Request, p Page, count int64, results interface{}) Envelope {
	env := Envelope{Count: count, Results: results}

	if int64(p.Number*p.Size) < count {
		next := pageURL(r, p.Number+1)
		env.Next = &next
	}
	if p.Number > 1 {
		prev := pageURL(r, p.Number-1)
		env.Previous = &prev
	}
	return env
}

func pageURL(r *http.Request, number int) string {
	u := url.URL{
		Scheme: "http",
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}

	q := r.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
