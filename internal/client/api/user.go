package api

import "context"

// User is the identity record behind /user/me/. The session controller is
// the only component that replaces it; everyone else treats it as
// read-only.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"user_type"`
	Phone    string `json:"phone,omitempty"`
	ImageURL string `json:"profile_image,omitempty"`
}

// Me fetches the current user for the stored credentials.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.get(ctx, "/user/me/", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// UpdateProfile patches the current user's profile and returns the
// updated record.
func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*User, error) {
	var u User
	if err := c.patch(ctx, "/user/me/", in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
