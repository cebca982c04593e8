package httpserver

import (
	"net/http"

	"github.com/and161185/policy-keeper/internal/api"
	"github.com/and161185/policy-keeper/internal/convert"
	"github.com/and161185/policy-keeper/internal/model"
)

// GET /customers/{id}/policies?status=
func (s *Server) listCustomerPolicies(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var status *model.PolicyStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := model.ParsePolicyStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid query", map[string]string{"status": err.Error()})
			return
		}
		status = &st
	}
	ps, err := s.policies.ListForClient(r.Context(), clientID, status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIPolicies(ps))
}

// POST /customers/{id}/policies/{policyId}/cancel
func (s *Server) cancelCustomerPolicy(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	policyID, ok := pathID(w, r, "policyId")
	if !ok {
		return
	}
	if _, err := s.policies.Cancel(r.Context(), clientID, policyID); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /customers/{id}/profile
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req api.ProfileRequest
	if !decode(w, r, &req) {
		return
	}
	if _, _, err := s.clients.UpdateProfile(r.Context(), clientID, convert.FromProfileRequest(req)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
