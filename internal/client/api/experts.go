package api

import (
	"context"
	"fmt"
)

// Expert is a certified counselor profile.
type Expert struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Specialties []string `json:"specialties"`
	Bio         string   `json:"bio"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	// Fee is the per-consultation price in wallet tokens.
	Fee int64 `json:"consultation_fee"`
}

// ExpertSearch narrows an expert listing.
type ExpertSearch struct {
	ListOptions
	Query     string
	Specialty string
}

// Experts searches the expert directory.
func (c *Client) Experts(ctx context.Context, s ExpertSearch) ([]Expert, error) {
	q := s.values()
	if s.Query != "" {
		q.Set("q", s.Query)
	}
	if s.Specialty != "" {
		q.Set("specialty", s.Specialty)
	}
	var p page[Expert]
	if err := c.get(ctx, "/experts/", q, &p); err != nil {
		return nil, err
	}
	return p.Results, nil
}

// Expert fetches one expert profile.
func (c *Client) Expert(ctx context.Context, id int64) (*Expert, error) {
	var e Expert
	if err := c.get(ctx, fmt.Sprintf("/experts/%d/", id), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
