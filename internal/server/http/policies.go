package httpserver

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/and161185/policy-keeper/internal/api"
	"github.com/and161185/policy-keeper/internal/convert"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
)

// parsePolicyQuery reads type, status and the four inclusive date bounds.
func parsePolicyQuery(v url.Values) (query.Policies, map[string]string) {
	var (
		q   query.Policies
		bad = map[string]string{}
	)
	if s := v.Get("type"); s != "" {
		t, err := model.ParsePolicyType(s)
		if err != nil {
			bad["type"] = err.Error()
		} else {
			q.Type = &t
		}
	}
	if s := v.Get("status"); s != "" {
		st, err := model.ParsePolicyStatus(s)
		if err != nil {
			bad["status"] = err.Error()
		} else {
			q.Status = &st
		}
	}
	dates := []struct {
		name string
		dst  **time.Time
	}{
		{"startDateFrom", &q.StartDateFrom},
		{"startDateTo", &q.StartDateTo},
		{"endDateFrom", &q.EndDateFrom},
		{"endDateTo", &q.EndDateTo},
	}
	for _, d := range dates {
		s := v.Get(d.name)
		if s == "" {
			continue
		}
		t, err := api.ParseDate(s)
		if err != nil {
			bad[d.name] = err.Error()
			continue
		}
		*d.dst = &t
	}
	if len(bad) == 0 {
		bad = nil
	}
	return q, bad
}

// GET /policies?type=&status=&startDateFrom=&startDateTo=&endDateFrom=&endDateTo=
func (s *Server) listPolicies(w http.ResponseWriter, r *http.Request) {
	q, bad := parsePolicyQuery(r.URL.Query())
	if bad != nil {
		writeError(w, http.StatusBadRequest, "invalid query", bad)
		return
	}
	ps, err := s.policies.List(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIPolicies(ps))
}

func (s *Server) getPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.policies.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIPolicy(*p))
}

func (s *Server) createPolicy(w http.ResponseWriter, r *http.Request) {
	var req api.PolicyRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := s.policies.Create(r.Context(), convert.FromPolicyRequest(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/policies/"+strconv.FormatInt(p.ID, 10))
	writeJSON(w, http.StatusCreated, convert.ToAPIPolicy(*p))
}

// PUT /policies/{id}/status
func (s *Server) updatePolicyStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req api.PolicyStatusRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := s.policies.UpdateStatus(r.Context(), id, convert.FromPolicyStatusRequest(req)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deletePolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.policies.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
