package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBlob(t *testing.T) {
	before := testutil.ToFloat64(BlobOperations.WithLabelValues("put", ResultOK))
	ObserveBlob("put", ResultOK)
	ObserveBlob("put", ResultOK)
	after := testutil.ToFloat64(BlobOperations.WithLabelValues("put", ResultOK))
	assert.Equal(t, before+2, after)
}

func TestResult(t *testing.T) {
	assert.Equal(t, ResultOK, Result(nil))
	assert.Equal(t, ResultError, Result(errors.New("boom")))
}

func TestWriteTextfile(t *testing.T) {
	ObserveBlob("get", ResultNotFound)
	path := filepath.Join(t.TempDir(), "profiles.prom")

	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `profiles_blob_operations_total{operation="get",result="not_found"}`)
	assert.Contains(t, string(data), "profiles_handles_live")
}

func TestWriteTextfile_MissingDir(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "profiles.prom"))
	assert.Error(t, err)
}
