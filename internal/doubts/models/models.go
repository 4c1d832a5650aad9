package models

import (
	"strings"
	"time"

	id "docverify/pkg/domain"
	"docverify/pkg/platform/validation"
)

type AnswerStatus string

const (
	AnswerAnswered    AnswerStatus = "answered"
	AnswerUnavailable AnswerStatus = "unavailable"
)

// Doubt is a community question. Doubts are append-only; Answer is set once
// at creation and is nil when the assistant could not produce one.
type Doubt struct {
	ID           id.DoubtID   `json:"id"`
	UserID       id.UserID    `json:"userId"`
	Title        string       `json:"title"`
	Body         string       `json:"body"`
	District     string       `json:"district"`
	Category     string       `json:"category"`
	Answer       *string      `json:"answer"`
	AnswerStatus AnswerStatus `json:"answerStatus"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	District   string
	Category   string
	Unanswered bool
}

func (f Filter) Matches(d *Doubt) bool {
	if f.District != "" && !strings.EqualFold(f.District, d.District) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, d.Category) {
		return false
	}
	if f.Unanswered && d.AnswerStatus == AnswerAnswered {
		return false
	}
	return true
}

type PostRequest struct {
	Title    string `json:"title" validate:"required,notblank,max=200"`
	Body     string `json:"body" validate:"required,notblank,max=4000"`
	District string `json:"district" validate:"required,notblank,max=100"`
	Category string `json:"category" validate:"required,notblank,max=100"`
}

func (r *PostRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)
	r.District = strings.TrimSpace(r.District)
	r.Category = strings.TrimSpace(r.Category)
}

func (r *PostRequest) Validate() error {
	return validation.Validate(r)
}

type ListResponse struct {
	Doubts []*Doubt `json:"doubts"`
}
