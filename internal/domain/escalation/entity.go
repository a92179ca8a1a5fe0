// Package escalation models requests to count a blocked market as launched
// and the administrator-driven workflow that resolves them.
package escalation

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/launch-radar/pkg/errors"
)

// ScopeLevel is the market granularity an escalation targets.
type ScopeLevel string

const (
	ScopeCity    ScopeLevel = "CITY"
	ScopeCountry ScopeLevel = "COUNTRY"
	ScopeRegion  ScopeLevel = "REGION"
)

func (l ScopeLevel) Valid() bool {
	return l == ScopeCity || l == ScopeCountry || l == ScopeRegion
}

// Escalation targets exactly one of CityID, CountryCode or Region,
// matching ScopeLevel.
type Escalation struct {
	ID              string     `json:"esc_id"`
	ProductID       string     `json:"product_id"`
	ScopeLevel      ScopeLevel `json:"scope_level"`
	CityID          string     `json:"city_id,omitempty"`
	CountryCode     string     `json:"country_code,omitempty"`
	Region          string     `json:"region,omitempty"`
	RaisedBy        string     `json:"raised_by"`
	POC             string     `json:"poc"`
	Reason          string     `json:"reason"`
	ReasonType      string     `json:"reason_type,omitempty"`
	BusinessCaseURL string     `json:"business_case_url,omitempty"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	AlignedAt       *time.Time `json:"aligned_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// RaiseInput carries the fields a user submits. RaisedBy is filled from
// the session, not the request body.
type RaiseInput struct {
	ProductID       string     `json:"product_id"`
	ScopeLevel      ScopeLevel `json:"scope_level"`
	CityID          string     `json:"city_id,omitempty"`
	CountryCode     string     `json:"country_code,omitempty"`
	Region          string     `json:"region,omitempty"`
	POC             string     `json:"poc"`
	Reason          string     `json:"reason"`
	ReasonType      string     `json:"reason_type,omitempty"`
	BusinessCaseURL string     `json:"business_case_url,omitempty"`
	RaisedBy        string     `json:"-"`
}

func invalid(msg string) error {
	return errors.New(errors.ErrCodeEscalationInvalid, msg)
}

// Validate runs before any repository call.
func (in RaiseInput) Validate() error {
	if strings.TrimSpace(in.ProductID) == "" {
		return invalid("product_id is required")
	}
	if strings.TrimSpace(in.POC) == "" {
		return invalid("poc is required")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return invalid("reason is required")
	}
	if !in.ScopeLevel.Valid() {
		return invalid("scope_level must be CITY, COUNTRY or REGION")
	}

	populated := 0
	for _, v := range []string{in.CityID, in.CountryCode, in.Region} {
		if strings.TrimSpace(v) != "" {
			populated++
		}
	}
	if populated != 1 {
		return invalid("exactly one of city_id, country_code, region must be set")
	}
	if in.scopeTarget() == "" {
		return invalid("scope target does not match scope_level")
	}

	if in.BusinessCaseURL != "" {
		u, err := url.Parse(in.BusinessCaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return invalid("business_case_url must be an absolute http(s) URL")
		}
	}
	return nil
}

func (in RaiseInput) scopeTarget() string {
	switch in.ScopeLevel {
	case ScopeCity:
		return strings.TrimSpace(in.CityID)
	case ScopeCountry:
		return strings.TrimSpace(in.CountryCode)
	case ScopeRegion:
		return strings.TrimSpace(in.Region)
	}
	return ""
}

// NewEscalation validates in and returns a SUBMITTED escalation.
func NewEscalation(in RaiseInput, now time.Time) (*Escalation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	e := &Escalation{
		ID:              uuid.NewString(),
		ProductID:       strings.TrimSpace(in.ProductID),
		ScopeLevel:      in.ScopeLevel,
		RaisedBy:        in.RaisedBy,
		POC:             strings.TrimSpace(in.POC),
		Reason:          in.Reason,
		ReasonType:      in.ReasonType,
		BusinessCaseURL: in.BusinessCaseURL,
		Status:          StatusSubmitted,
		CreatedAt:       now,
	}
	switch in.ScopeLevel {
	case ScopeCity:
		e.CityID = in.scopeTarget()
	case ScopeCountry:
		e.CountryCode = in.scopeTarget()
	case ScopeRegion:
		e.Region = in.scopeTarget()
	}
	return e, nil
}

// ScopeTarget returns the populated target field.
func (e *Escalation) ScopeTarget() string {
	switch e.ScopeLevel {
	case ScopeCity:
		return e.CityID
	case ScopeCountry:
		return e.CountryCode
	case ScopeRegion:
		return e.Region
	}
	return ""
}

// Open reports whether the escalation is still awaiting a decision.
func (e *Escalation) Open() bool { return !e.Status.IsResolved() }

// ApplyStatusChange enforces the transition table, stamps aligned_at and
// resolved_at on first reaching the matching states, and returns the
// history row to append. e is unchanged on error.
func (e *Escalation) ApplyStatusChange(p StatusChangePatch, now time.Time) (*HistoryEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !CanTransition(e.Status, p.Status) {
		return nil, errors.Newf(errors.ErrCodeTransitionNotAllowed,
			"cannot move escalation from %s to %s", e.Status, p.Status).WithDetail(e.ID)
	}

	old := e.Status
	e.Status = p.Status
	if p.Status == StatusResolvedLaunched && e.AlignedAt == nil {
		t := now
		e.AlignedAt = &t
	}
	if p.Status.IsResolved() && e.ResolvedAt == nil {
		t := now
		e.ResolvedAt = &t
	}
	return newHistoryEntry(e.ID, old, p.Status, p.Actor, p.Notes, now), nil
}
