package api

import (
	"net/url"
	"strconv"
)

// ListOptions is the common pagination block for list endpoints.
type ListOptions struct {
	Page     int
	PageSize int
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return v
}

// page is the backend's paginated list envelope.
type page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}
