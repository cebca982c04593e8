package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/policy-keeper/internal/metrics"
	"github.com/and161185/policy-keeper/internal/repository/memory"
	"github.com/and161185/policy-keeper/internal/service"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type harness struct {
	h   http.Handler
	reg *prometheus.Registry
}

func newHarness(t *testing.T, opts Options) harness {
	t.Helper()
	db := memory.NewDB()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := zaptest.NewLogger(t)
	cr := memory.NewClientRepo(db)
	srv := New(
		service.NewClientService(cr, log, m),
		service.NewPolicyService(memory.NewPolicyRepo(db), cr, log, m),
		log, m,
	)
	if opts.Gatherer == nil {
		opts.Gatherer = reg
	}
	return harness{h: srv.Router(opts), reg: reg}
}

func (hs harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

var errBoom = errors.New("boom")
