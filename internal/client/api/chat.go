package api

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Room is a chat thread between a client and an expert.
type Room struct {
	ID          int64     `json:"id"`
	PeerName    string    `json:"peer_name"`
	LastMessage string    `json:"last_message"`
	UnreadCount int       `json:"unread_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message is one chat message. AttachmentURL is set when the message
// carries an uploaded file.
type Message struct {
	ID            int64     `json:"id"`
	RoomID        int64     `json:"room_id"`
	SenderID      int64     `json:"sender_id"`
	Body          string    `json:"body"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MessagePage is a cursor-paginated slice of messages, oldest first.
// NextCursor is empty on the last page.
type MessagePage struct {
	Messages   []Message `json:"results"`
	NextCursor string    `json:"next_cursor"`
}

// Rooms lists the current user's chat rooms, most recently active first.
func (c *Client) Rooms(ctx context.Context) ([]Room, error) {
	var p page[Room]
	if err := c.get(ctx, "/chat/rooms/", nil, &p); err != nil {
		return nil, err
	}
	return p.Results, nil
}

// Messages fetches a page of room history. Pass an empty cursor for the
// most recent page.
func (c *Client) Messages(ctx context.Context, roomID int64, cursor string) (*MessagePage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var p MessagePage
	if err := c.get(ctx, fmt.Sprintf("/chat/rooms/%d/messages/", roomID), q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SendMessage posts a text message to a room.
func (c *Client) SendMessage(ctx context.Context, roomID int64, body string) (*Message, error) {
	if body == "" {
		return nil, fieldErrors{"body": "must not be empty"}.err()
	}
	var m Message
	in := map[string]string{"body": body}
	if err := c.post(ctx, fmt.Sprintf("/chat/rooms/%d/messages/", roomID), in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SendAttachment uploads a file into a room as a multipart message.
func (c *Client) SendAttachment(ctx context.Context, roomID int64, filename string, content []byte) (*Message, error) {
	if len(content) == 0 {
		return nil, fieldErrors{"file": "must not be empty"}.err()
	}
	files := []filePart{{Field: "file", Filename: filename, Content: content}}
	var m Message
	path := fmt.Sprintf("/chat/rooms/%d/messages/", roomID)
	if err := c.postMultipart(ctx, path, nil, files, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkRoomRead zeroes the unread counter for a room.
func (c *Client) MarkRoomRead(ctx context.Context, roomID int64) error {
	return c.post(ctx, fmt.Sprintf("/chat/rooms/%d/read/", roomID), nil, nil)
}
