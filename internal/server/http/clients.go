package httpserver

import (
	"net/http"
	"strconv"

	"github.com/and161185/policy-keeper/internal/api"
	"github.com/and161185/policy-keeper/internal/convert"
)

// GET /clients?search=
func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	cs, err := s.clients.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIClients(cs))
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := s.clients.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToAPIClient(*c))
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var req api.ClientRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := s.clients.Create(r.Context(), convert.FromClientRequest(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/clients/"+strconv.FormatInt(c.ID, 10))
	writeJSON(w, http.StatusCreated, convert.ToAPIClient(*c))
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req api.ClientRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := s.clients.Update(r.Context(), id, convert.FromClientRequest(req)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.clients.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
