package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAcquirer(t *testing.T) *Acquirer {
	t.Helper()
	return NewAcquirer(WithAcquireSleep(func(_ context.Context, _ time.Duration) error {
		return nil
	}))
}

func TestAcquireFetchesURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "atomforge")
		w.Write([]byte("drive manual body"))
	}))
	defer server.Close()

	a := newTestAcquirer(t)
	body, err := a.Acquire(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "drive manual body", body)
}

func TestAcquireRetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	a := newTestAcquirer(t)
	body, err := a.Acquire(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "recovered", body)
	assert.Equal(t, 3, attempts)
}

func TestAcquireExhaustsRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	a := newTestAcquirer(t)
	_, err := a.Acquire(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, 3, attempts)
}

func TestAcquireGapTopic(t *testing.T) {
	a := newTestAcquirer(t)

	body, err := a.Acquire(context.Background(), "gap:siemens:drive")
	require.NoError(t, err)
	assert.Contains(t, body, "siemens:drive")
}

func TestAcquireLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("file contents"), 0o644))

	a := newTestAcquirer(t)
	body, err := a.Acquire(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "file contents", body)
}

func TestAcquireRawTextPassthrough(t *testing.T) {
	a := newTestAcquirer(t)

	raw := "The inverter output stage uses six IGBTs."
	body, err := a.Acquire(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, raw, body)
}
