// Package api defines the JSON bodies exchanged over the HTTP surface. The
// server and the Go client share these types.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/and161185/policy-keeper/internal/model"
)

// DateLayout is the short form accepted for policy dates and date filters.
const DateLayout = "2006-01-02"

// ParseDate accepts "2006-01-02" (UTC midnight) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// Date is a time.Time that decodes from either date form and encodes as RFC 3339.
type Date struct{ time.Time }

// NewDate wraps t.
func NewDate(t time.Time) Date { return Date{Time: t} }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Client is the client resource.
type Client struct {
	ID                   int64      `json:"id"`
	IdentificationNumber string     `json:"identificationNumber"`
	FullName             string     `json:"fullName"`
	Email                string     `json:"email"`
	Phone                string     `json:"phone"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            *time.Time `json:"updatedAt"`
}

// ClientRequest is the body of POST /clients and PUT /clients/{id}.
type ClientRequest struct {
	IdentificationNumber string `json:"identificationNumber"`
	FullName             string `json:"fullName"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
}

// ProfileRequest is the body of PUT /customers/{id}/profile.
type ProfileRequest struct {
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Policy is the policy resource.
type Policy struct {
	ID            int64              `json:"id"`
	Type          model.PolicyType   `json:"type"`
	StartDate     Date               `json:"startDate"`
	EndDate       Date               `json:"endDate"`
	InsuredAmount float64            `json:"insuredAmount"`
	Status        model.PolicyStatus `json:"status"`
	ClientID      int64              `json:"clientId"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     *time.Time         `json:"updatedAt"`
}

// PolicyRequest is the body of POST /policies.
type PolicyRequest struct {
	Type          model.PolicyType `json:"type"`
	StartDate     Date             `json:"startDate"`
	EndDate       Date             `json:"endDate"`
	InsuredAmount float64          `json:"insuredAmount"`
	ClientID      int64            `json:"clientId"`
}

// PolicyStatusRequest is the body of PUT /policies/{id}/status.
type PolicyStatusRequest struct {
	Status        model.PolicyStatus `json:"status"`
	Type          *model.PolicyType  `json:"type,omitempty"`
	StartDate     *Date              `json:"startDate,omitempty"`
	EndDate       *Date              `json:"endDate,omitempty"`
	InsuredAmount *float64           `json:"insuredAmount,omitempty"`
	ClientID      *int64             `json:"clientId,omitempty"`
}

// ErrorResponse is the envelope of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}
