package api

import (
	"context"
	"fmt"
	"time"
)

// Column is an expert-authored article. Read and Liked reflect the
// current user's state as reported by the server.
type Column struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	ExpertID    int64     `json:"expert_id"`
	ExpertName  string    `json:"expert_name"`
	Category    string    `json:"category"`
	ReadCount   int       `json:"read_count"`
	LikeCount   int       `json:"like_count"`
	Read        bool      `json:"read"`
	Liked       bool      `json:"liked"`
	PublishedAt time.Time `json:"published_at"`
}

// ColumnFilter narrows a column listing.
type ColumnFilter struct {
	ListOptions
	Category string
	ExpertID int64
}

// Columns lists published columns.
func (c *Client) Columns(ctx context.Context, f ColumnFilter) ([]Column, error) {
	q := f.values()
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.ExpertID > 0 {
		q.Set("expert", fmt.Sprintf("%d", f.ExpertID))
	}
	var p page[Column]
	if err := c.get(ctx, "/columns/", q, &p); err != nil {
		return nil, err
	}
	return p.Results, nil
}

// Column fetches one column.
func (c *Client) Column(ctx context.Context, id int64) (*Column, error) {
	var col Column
	if err := c.get(ctx, fmt.Sprintf("/columns/%d/", id), nil, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// MarkColumnRead records that the current user read the column.
func (c *Client) MarkColumnRead(ctx context.Context, id int64) (*Column, error) {
	var col Column
	if err := c.post(ctx, fmt.Sprintf("/columns/%d/read/", id), nil, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// LikeColumn likes a column on behalf of the current user.
func (c *Client) LikeColumn(ctx context.Context, id int64) (*Column, error) {
	var col Column
	if err := c.post(ctx, fmt.Sprintf("/columns/%d/like/", id), nil, &col); err != nil {
		return nil, err
	}
	return &col, nil
}
