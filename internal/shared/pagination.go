package shared

import (
	"net/url"
	"strconv"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// Page is an offset window for list endpoints.
type Page struct {
	Skip  int
	Limit int
}

// NewPage clamps skip and limit into the supported range.
func NewPage(skip, limit int) Page {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Skip: skip, Limit: limit}
}

// PageFromQuery reads skip/limit query parameters, ignoring malformed values.
func PageFromQuery(q url.Values) Page {
	skip, _ := strconv.Atoi(q.Get("skip"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return NewPage(skip, limit)
}

// List is the envelope returned by collection endpoints.
type List[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}
