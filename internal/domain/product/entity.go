// Package product models the products whose launch coverage is tracked.
package product

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/launch-radar/pkg/errors"
)

// Status is the delivery state of a product.
type Status string

const (
	StatusPlanned    Status = "PLANNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusLaunched   Status = "LAUNCHED"
	StatusPaused     Status = "PAUSED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusLaunched, StatusPaused:
		return true
	}
	return false
}

// Product is independent of markets and edited through admin screens.
type Product struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	LineOfBusiness string     `json:"line_of_business"`
	SubTeam        string     `json:"sub_team"`
	Status         Status     `json:"status"`
	LaunchDate     *time.Time `json:"launch_date,omitempty"`
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Input carries the editable product fields.
type Input struct {
	Name           string     `json:"name"`
	LineOfBusiness string     `json:"line_of_business"`
	SubTeam        string     `json:"sub_team"`
	Status         Status     `json:"status"`
	LaunchDate     *time.Time `json:"launch_date,omitempty"`
	Notes          string     `json:"notes"`
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New(errors.ErrCodeProductInvalid, "product name is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return errors.New(errors.ErrCodeProductInvalid, "unknown product status").WithDetail(string(in.Status))
	}
	return nil
}

// NewProduct validates in and returns a PLANNED product when no status is given.
func NewProduct(in Input, now time.Time) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &Product{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	p.apply(in, now)
	if p.Status == "" {
		p.Status = StatusPlanned
	}
	return p, nil
}

// Update replaces the editable fields. An empty status keeps the current one.
func (p *Product) Update(in Input, now time.Time) error {
	if err := in.validate(); err != nil {
		return err
	}
	keep := p.Status
	p.apply(in, now)
	if p.Status == "" {
		p.Status = keep
	}
	return nil
}

func (p *Product) apply(in Input, now time.Time) {
	p.Name = strings.TrimSpace(in.Name)
	p.LineOfBusiness = in.LineOfBusiness
	p.SubTeam = in.SubTeam
	p.Status = in.Status
	p.LaunchDate = in.LaunchDate
	p.Notes = in.Notes
	p.UpdatedAt = now
}
