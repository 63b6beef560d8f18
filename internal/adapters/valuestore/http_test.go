package valuestore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

func TestHTTPStorePull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/values/mlflow_run_id", r.URL.Path)
		_, _ = w.Write([]byte(" run-42\n"))
	}))
	defer srv.Close()

	store, err := NewHTTPStore(srv.URL+"/values/", noopLogger{})
	require.NoError(t, err)

	value, err := store.Pull(context.Background(), "mlflow_run_id")
	require.NoError(t, err)
	assert.Equal(t, "run-42", value)
}

func TestHTTPStorePullBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nothing here", http.StatusNotFound)
	}))
	defer srv.Close()

	store, err := NewHTTPStore(srv.URL, noopLogger{})
	require.NoError(t, err)

	_, err = store.Pull(context.Background(), "mlflow_run_id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
	assert.Contains(t, err.Error(), "nothing here")
}

func TestHTTPStorePullTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", maxValueBytes+1)))
	}))
	defer srv.Close()

	store, err := NewHTTPStore(srv.URL, noopLogger{})
	require.NoError(t, err)

	_, err = store.Pull(context.Background(), "mlflow_run_id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "larger than")
}

func TestHTTPStoreEmptyBaseURL(t *testing.T) {
	_, err := NewHTTPStore("   ", noopLogger{})
	require.Error(t, err)
}

func TestHTTPStorePullEmptyKey(t *testing.T) {
	store, err := NewHTTPStore("http://localhost:9", noopLogger{})
	require.NoError(t, err)

	_, err = store.Pull(context.Background(), "")
	require.Error(t, err)
}
