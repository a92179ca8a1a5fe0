// Package comment holds the per-cell Q&A thread. Comments are always scoped
// to a city even when shown on a roll-up.
package comment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/launch-radar/pkg/errors"
)

// Status of a question.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusAnswered Status = "ANSWERED"
)

// Comment is a question on a (product, city) cell and its optional answer.
type Comment struct {
	ID         string     `json:"comment_id"`
	ProductID  string     `json:"product_id"`
	CityID     string     `json:"city_id"`
	AuthorID   string     `json:"author_id"`
	Question   string     `json:"question"`
	AnswerText string     `json:"answer,omitempty"`
	AnsweredBy string     `json:"answered_by,omitempty"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

// AskInput is the body of a new question. AuthorID comes from the session.
type AskInput struct {
	ProductID string `json:"product_id"`
	CityID    string `json:"city_id"`
	Question  string `json:"question"`
	AuthorID  string `json:"-"`
}

func (in AskInput) Validate() error {
	switch {
	case strings.TrimSpace(in.ProductID) == "":
		return errors.New(errors.ErrCodeCommentInvalid, "product_id is required")
	case strings.TrimSpace(in.CityID) == "":
		return errors.New(errors.ErrCodeCommentInvalid, "city_id is required")
	case strings.TrimSpace(in.Question) == "":
		return errors.New(errors.ErrCodeCommentInvalid, "question is required")
	case strings.TrimSpace(in.AuthorID) == "":
		return errors.New(errors.ErrCodeCommentInvalid, "author is required")
	}
	return nil
}

// NewComment validates in and returns an OPEN comment.
func NewComment(in AskInput, now time.Time) (*Comment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &Comment{
		ID:        uuid.NewString(),
		ProductID: strings.TrimSpace(in.ProductID),
		CityID:    strings.TrimSpace(in.CityID),
		AuthorID:  in.AuthorID,
		Question:  strings.TrimSpace(in.Question),
		Status:    StatusOpen,
		CreatedAt: now,
	}, nil
}

// Answer flips an OPEN comment to ANSWERED. A second answer is a conflict
// and leaves the comment unchanged.
func (c *Comment) Answer(text, by string, now time.Time) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New(errors.ErrCodeCommentInvalid, "answer is required")
	}
	if c.Status == StatusAnswered {
		return errors.New(errors.ErrCodeCommentAlreadyAnswered, "comment already answered").WithDetail(c.ID)
	}
	c.AnswerText = text
	c.AnsweredBy = by
	c.Status = StatusAnswered
	c.AnsweredAt = &now
	return nil
}

// Open reports whether the question still awaits an answer.
func (c *Comment) Open() bool { return c.Status == StatusOpen }
