// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"
)

// Client is a policyholder record.
type Client struct {
	ID                   int64
	IdentificationNumber string // 10 digits, unique
	FullName             string
	Email                string // unique, stored lower-cased by create/update
	Phone                string
	CreatedAt            time.Time
	UpdatedAt            *time.Time // nil until first mutation
	Version              int64      // optimistic concurrency token (>= 1)
}

// Policy is an insurance contract owned by exactly one client.
type Policy struct {
	ID            int64
	Type          PolicyType
	StartDate     time.Time
	EndDate       time.Time
	InsuredAmount float64
	Status        PolicyStatus
	ClientID      int64 // FK -> clients.id, ON DELETE CASCADE
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	Version       int64
}

// ClientInput is the full set of mutable client fields used by create and update.
type ClientInput struct {
	IdentificationNumber string
	FullName             string
	Email                string
	Phone                string
}

// Normalize trims every field and lower-cases the email.
func (in ClientInput) Normalize() ClientInput {
	return ClientInput{
		IdentificationNumber: strings.TrimSpace(in.IdentificationNumber),
		FullName:             strings.TrimSpace(in.FullName),
		Email:                strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:                strings.TrimSpace(in.Phone),
	}
}

// ProfileChanges is the narrow customer-facing update. Nil means "not supplied".
type ProfileChanges struct {
	Email *string
	Phone *string
}

// Normalize trims supplied values and drops blank ones. Email is NOT lower-cased here.
func (p ProfileChanges) Normalize() ProfileChanges {
	var out ProfileChanges
	if p.Email != nil {
		if v := strings.TrimSpace(*p.Email); v != "" {
			out.Email = &v
		}
	}
	if p.Phone != nil {
		if v := strings.TrimSpace(*p.Phone); v != "" {
			out.Phone = &v
		}
	}
	return out
}

// Empty reports whether no field was supplied.
func (p ProfileChanges) Empty() bool { return p.Email == nil && p.Phone == nil }

// PolicyInput carries the fields needed to create a policy.
type PolicyInput struct {
	Type          PolicyType
	StartDate     time.Time
	EndDate       time.Time
	InsuredAmount float64
	ClientID      int64
}

// PolicyChanges is the administrative update: Status is required, the rest optional.
type PolicyChanges struct {
	Status        PolicyStatus
	Type          *PolicyType
	StartDate     *time.Time
	EndDate       *time.Time
	InsuredAmount *float64
	ClientID      *int64
}

// TouchesDates reports whether either date was supplied.
func (c PolicyChanges) TouchesDates() bool { return c.StartDate != nil || c.EndDate != nil }

// Apply copies status and supplied fields onto p.
func (c PolicyChanges) Apply(p *Policy) {
	p.Status = c.Status
	if c.Type != nil {
		p.Type = *c.Type
	}
	if c.StartDate != nil {
		p.StartDate = *c.StartDate
	}
	if c.EndDate != nil {
		p.EndDate = *c.EndDate
	}
	if c.InsuredAmount != nil {
		p.InsuredAmount = *c.InsuredAmount
	}
	if c.ClientID != nil {
		p.ClientID = *c.ClientID
	}
}

// WriteOutcome is the result of a versioned write.
type WriteOutcome int

const (
	// WriteOK means the row was updated.
	WriteOK WriteOutcome = iota
	// WriteNotFound means the row vanished (deleted concurrently or never existed).
	WriteNotFound
	// WriteConflict means the row exists but its version moved on.
	WriteConflict
)

func (o WriteOutcome) String() string {
	switch o {
	case WriteOK:
		return "ok"
	case WriteNotFound:
		return "not_found"
	case WriteConflict:
		return "conflict"
	default:
		return "unknown"
	}
}
