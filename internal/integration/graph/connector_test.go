package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	pkghttp "github.com/futig/fundqa-bot/pkg/http"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fundsJSON = `{"results":[{"m.name":"Zhang Kun","f.name":"E Fund Blue Chip Select"}]}`

func newNeptuneServer(t *testing.T, status int, body string) *httptest.Server {
	return httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openCypher", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "MATCH (n1) RETURN n1", r.PostForm.Get("query"))

		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func insecure() config.NeptuneConfig {
	return config.NeptuneConfig{InsecureSkipVerify: true}
}

func TestExecute_ReturnsBodyAsIs(t *testing.T) {
	srv := newNeptuneServer(t, http.StatusOK, fundsJSON)
	defer srv.Close()

	result, err := newConnector(srv.URL, insecure(), zap.NewNop()).Execute(context.Background(), "MATCH (n1) RETURN n1")
	require.NoError(t, err)

	rows, ok := result["results"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "Zhang Kun", rows[0].(map[string]any)["m.name"])
}

func TestExecute_ErrorCarriesStatusAndBody(t *testing.T) {
	srv := newNeptuneServer(t, http.StatusInternalServerError, "bad query")
	defer srv.Close()

	_, err := newConnector(srv.URL, insecure(), zap.NewNop()).Execute(context.Background(), "MATCH (n1) RETURN n1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "bad query")

	var httpErr *pkghttp.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestExecute_OnlyStatusOKSucceeds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "accepted", status: http.StatusAccepted, body: `{"note":"accepted"}`},
		{name: "no content", status: http.StatusNoContent, body: ""},
		{name: "partial content", status: http.StatusPartialContent, body: fundsJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newNeptuneServer(t, tt.status, tt.body)
			defer srv.Close()

			result, err := newConnector(srv.URL, insecure(), zap.NewNop()).Execute(context.Background(), "MATCH (n1) RETURN n1")
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Contains(t, err.Error(), fmt.Sprint(tt.status))

			var httpErr *pkghttp.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.body, httpErr.Message)
		})
	}
}

func TestExecute_RequestTimeout(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		fmt.Fprint(w, fundsJSON)
	}))
	defer srv.Close()

	cfg := insecure()
	cfg.RequestTimeout = 2 * time.Second
	result, err := newConnector(srv.URL, cfg, zap.NewNop()).Execute(context.Background(), "MATCH (n1) RETURN n1")
	require.NoError(t, err)
	assert.Contains(t, result, "results")

	cfg.RequestTimeout = 50 * time.Millisecond
	_, err = newConnector(srv.URL, cfg, zap.NewNop()).Execute(context.Background(), "MATCH (n1) RETURN n1")
	var netErr *pkghttp.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestExecute_VerifiesCertificatesByDefault(t *testing.T) {
	srv := newNeptuneServer(t, http.StatusOK, fundsJSON)
	defer srv.Close()

	_, err := newConnector(srv.URL, config.NeptuneConfig{}, zap.NewNop()).Execute(context.Background(), "MATCH (n1) RETURN n1")
	require.Error(t, err)

	var netErr *pkghttp.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestBoltURI(t *testing.T) {
	cfg := config.NeptuneConfig{Endpoint: "db-neptune-1", Port: 8182}
	assert.Equal(t, "bolt+s://db-neptune-1:8182", boltURI(cfg))

	cfg.InsecureSkipVerify = true
	assert.Equal(t, "bolt+ssc://db-neptune-1:8182", boltURI(cfg))
}

func TestRecordsToResult(t *testing.T) {
	records := []*neo4j.Record{
		{Keys: []string{"manager", "fund"}, Values: []any{"Zhang Kun", "E Fund Blue Chip Select"}},
	}

	result := recordsToResult(records)
	assert.Equal(t, entity.GraphResult{
		"results": []any{map[string]any{"manager": "Zhang Kun", "fund": "E Fund Blue Chip Select"}},
	}, result)

	assert.Equal(t, entity.GraphResult{"results": []any{}}, recordsToResult(nil))
}
