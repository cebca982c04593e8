package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PolicyType is the closed set of insurance lines.
type PolicyType string

const (
	PolicyTypeLife       PolicyType = "Life"
	PolicyTypeAutomobile PolicyType = "Automobile"
	PolicyTypeHealth     PolicyType = "Health"
	PolicyTypeHome       PolicyType = "Home"
)

// PolicyTypes lists the types in ordinal order.
var PolicyTypes = []PolicyType{PolicyTypeLife, PolicyTypeAutomobile, PolicyTypeHealth, PolicyTypeHome}

// Valid reports whether t is a known type.
func (t PolicyType) Valid() bool {
	for _, v := range PolicyTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ParsePolicyType accepts a name (case-insensitive) or an ordinal.
func ParsePolicyType(s string) (PolicyType, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n < len(PolicyTypes) {
			return PolicyTypes[n], nil
		}
		return "", fmt.Errorf("unknown policy type %q", s)
	}
	for _, v := range PolicyTypes {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown policy type %q", s)
}

// UnmarshalJSON accepts "Life" style names and 0..3 ordinals.
func (t *PolicyType) UnmarshalJSON(b []byte) error {
	v, err := parseEnumJSON(b, ParsePolicyType)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// PolicyStatus is the lifecycle state of a policy.
type PolicyStatus string

const (
	PolicyStatusActive    PolicyStatus = "Active"
	PolicyStatusCancelled PolicyStatus = "Cancelled"
)

// PolicyStatuses lists the statuses in ordinal order.
var PolicyStatuses = []PolicyStatus{PolicyStatusActive, PolicyStatusCancelled}

// Valid reports whether s is a known status.
func (s PolicyStatus) Valid() bool {
	return s == PolicyStatusActive || s == PolicyStatusCancelled
}

// ParsePolicyStatus accepts a name (case-insensitive) or an ordinal.
func ParsePolicyStatus(s string) (PolicyStatus, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n < len(PolicyStatuses) {
			return PolicyStatuses[n], nil
		}
		return "", fmt.Errorf("unknown policy status %q", s)
	}
	for _, v := range PolicyStatuses {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown policy status %q", s)
}

// UnmarshalJSON accepts "Active" style names and 0..1 ordinals.
func (s *PolicyStatus) UnmarshalJSON(b []byte) error {
	v, err := parseEnumJSON(b, ParsePolicyStatus)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func parseEnumJSON[T ~string](b []byte, parse func(string) (T, error)) (T, error) {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		return parse(str)
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		var zero T
		return zero, fmt.Errorf("enum must be a string or an integer: %s", string(b))
	}
	return parse(strconv.Itoa(n))
}

// CanCancel reports whether the dedicated cancel transition is allowed.
func (p *Policy) CanCancel() bool { return p.Status == PolicyStatusActive }

// IsActive reports whether the policy is active.
func (p *Policy) IsActive() bool { return p.Status == PolicyStatusActive }
