package api

import (
	"context"
	"fmt"
	"time"
)

// Question is a parent-authored forum question.
type Question struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	AuthorName  string    `json:"author_name"`
	AnswerCount int       `json:"answer_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Answer is an expert's reply to a question. Liked reflects the current
// user's like state as reported by the server.
type Answer struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	ExpertID   int64     `json:"expert_id"`
	ExpertName string    `json:"expert_name"`
	Body       string    `json:"body"`
	LikeCount  int       `json:"like_count"`
	Liked      bool      `json:"liked"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuestionDetail is a question plus its answers.
type QuestionDetail struct {
	Question
	Answers []Answer `json:"answers"`
}

// Questions lists forum questions, newest first.
func (c *Client) Questions(ctx context.Context, opts ListOptions) ([]Question, error) {
	var p page[Question]
	if err := c.get(ctx, "/qna/", opts.values(), &p); err != nil {
		return nil, err
	}
	return p.Results, nil
}

// Question fetches one question with its answers.
func (c *Client) Question(ctx context.Context, id int64) (*QuestionDetail, error) {
	var q QuestionDetail
	if err := c.get(ctx, fmt.Sprintf("/qna/%d/", id), nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// NewQuestion is the posting form for a question.
type NewQuestion struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Validate checks the question form.
func (q NewQuestion) Validate() error {
	fe := fieldErrors{}
	if q.Title == "" {
		fe["title"] = "must not be empty"
	}
	if q.Body == "" {
		fe["body"] = "must not be empty"
	}
	return fe.err()
}

// CreateQuestion posts a new question.
func (c *Client) CreateQuestion(ctx context.Context, in NewQuestion) (*Question, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var q Question
	if err := c.post(ctx, "/qna/", in, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// CreateAnswer posts an expert answer to a question.
func (c *Client) CreateAnswer(ctx context.Context, questionID int64, body string) (*Answer, error) {
	if body == "" {
		return nil, fieldErrors{"body": "must not be empty"}.err()
	}
	var a Answer
	in := map[string]string{"body": body}
	if err := c.post(ctx, fmt.Sprintf("/qna/%d/answers/", questionID), in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// LikeAnswer likes an answer; the returned record carries the server's
// authoritative like state and count.
func (c *Client) LikeAnswer(ctx context.Context, answerID int64) (*Answer, error) {
	var a Answer
	if err := c.post(ctx, fmt.Sprintf("/qna/answers/%d/like/", answerID), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// UnlikeAnswer removes the current user's like from an answer.
func (c *Client) UnlikeAnswer(ctx context.Context, answerID int64) (*Answer, error) {
	var a Answer
	if err := c.post(ctx, fmt.Sprintf("/qna/answers/%d/unlike/", answerID), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
