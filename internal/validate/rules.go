// Package validate holds the single rule set for client and policy fields.
// The HTTP boundary, the services and the CLI all call these predicates.
package validate

import (
	"math"
	"net/mail"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/and161185/policy-keeper/internal/errs"
	"github.com/and161185/policy-keeper/internal/model"
)

// Field limits.
const (
	IdentificationLen = 10
	FullNameMax       = 100
	EmailMax          = 100
	PhoneMax          = 20

	// InsuredAmountMax is the largest value NUMERIC(18, 2) holds.
	InsuredAmountMax = 1e16 - 0.01
)

var (
	identificationRe = regexp.MustCompile(`^[0-9]{10}$`)
	fullNameRe       = regexp.MustCompile(`^[\p{Latin}\s]+$`)
	phoneRe          = regexp.MustCompile(`^\+?[0-9\s\-()]+$`)
)

// Messages returned in violation maps.
const (
	MsgRequired        = "is required"
	MsgIdentification  = "must be exactly 10 digits"
	MsgFullName        = "must contain only letters and spaces"
	MsgFullNameTooLong = "must be at most 100 characters"
	MsgEmail           = "must be a valid email address"
	MsgEmailTooLong    = "must be at most 100 characters"
	MsgPhone           = "must be a valid phone number"
	MsgPhoneTooLong    = "must be at most 20 characters"
	MsgAmount          = "must be greater than zero, below 10^16, with at most 2 decimals"
	MsgPolicyType      = "must be one of Life, Automobile, Health, Home"
	MsgPolicyStatus    = "must be one of Active, Cancelled"
	MsgDateRange       = "must be after startDate"
	MsgClientID        = "must reference an existing client"
	MsgDuplicateID     = "a client with this identification number already exists"
	MsgDuplicateEmail  = "a client with this email already exists"
)

// IdentificationNumber reports whether s is exactly 10 ASCII digits.
func IdentificationNumber(s string) bool { return identificationRe.MatchString(s) }

// FullName reports whether s is 1..100 characters of letters and whitespace.
func FullName(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 1 && n <= FullNameMax && fullNameRe.MatchString(s)
}

// Email reports whether s is a bare address (no display name) of at most 100 characters.
func Email(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > EmailMax {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Phone reports whether s looks like a phone number of at most 20 characters.
func Phone(s string) bool {
	return s != "" && utf8.RuneCountInString(s) <= PhoneMax && phoneRe.MatchString(s)
}

// InsuredAmount reports whether a is a positive amount with at most 2 decimals
// that fits the insured_amount column.
func InsuredAmount(a float64) bool {
	if math.IsNaN(a) || math.IsInf(a, 0) || a <= 0 || a > InsuredAmountMax {
		return false
	}
	cents := a * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

// DateRange reports whether end is strictly after start.
func DateRange(start, end time.Time) bool { return end.After(start) }

// Client checks a normalized ClientInput and returns every violation found.
func Client(in model.ClientInput) errs.Violations {
	v := make(errs.Violations)
	switch {
	case in.IdentificationNumber == "":
		v.Add("identificationNumber", MsgRequired)
	case !IdentificationNumber(in.IdentificationNumber):
		v.Add("identificationNumber", MsgIdentification)
	}
	switch {
	case in.FullName == "":
		v.Add("fullName", MsgRequired)
	case utf8.RuneCountInString(in.FullName) > FullNameMax:
		v.Add("fullName", MsgFullNameTooLong)
	case !FullName(in.FullName):
		v.Add("fullName", MsgFullName)
	}
	emailRule(v, in.Email, true)
	phoneRule(v, in.Phone, true)
	return v
}

// Profile checks the supplied fields of a normalized ProfileChanges.
func Profile(p model.ProfileChanges) errs.Violations {
	v := make(errs.Violations)
	if p.Email != nil {
		emailRule(v, *p.Email, false)
	}
	if p.Phone != nil {
		phoneRule(v, *p.Phone, false)
	}
	return v
}

// Policy checks a PolicyInput. The date range is reported separately by the
// service so it can surface as ErrInvalidDateRange.
func Policy(in model.PolicyInput) errs.Violations {
	v := make(errs.Violations)
	if !in.Type.Valid() {
		v.Add("type", MsgPolicyType)
	}
	if in.StartDate.IsZero() {
		v.Add("startDate", MsgRequired)
	}
	if in.EndDate.IsZero() {
		v.Add("endDate", MsgRequired)
	}
	if !InsuredAmount(in.InsuredAmount) {
		v.Add("insuredAmount", MsgAmount)
	}
	if in.ClientID <= 0 {
		v.Add("clientId", MsgRequired)
	}
	return v
}

// PolicyChanges checks the administrative update payload.
func PolicyChanges(c model.PolicyChanges) errs.Violations {
	v := make(errs.Violations)
	if !c.Status.Valid() {
		v.Add("status", MsgPolicyStatus)
	}
	if c.Type != nil && !c.Type.Valid() {
		v.Add("type", MsgPolicyType)
	}
	if c.InsuredAmount != nil && !InsuredAmount(*c.InsuredAmount) {
		v.Add("insuredAmount", MsgAmount)
	}
	if c.ClientID != nil && *c.ClientID <= 0 {
		v.Add("clientId", MsgClientID)
	}
	return v
}

func emailRule(v errs.Violations, s string, required bool) {
	switch {
	case s == "":
		if required {
			v.Add("email", MsgRequired)
		}
	case utf8.RuneCountInString(s) > EmailMax:
		v.Add("email", MsgEmailTooLong)
	case !Email(s):
		v.Add("email", MsgEmail)
	}
}

func phoneRule(v errs.Violations, s string, required bool) {
	switch {
	case s == "":
		if required {
			v.Add("phone", MsgRequired)
		}
	case utf8.RuneCountInString(s) > PhoneMax:
		v.Add("phone", MsgPhoneTooLong)
	case !Phone(s):
		v.Add("phone", MsgPhone)
	}
}
