package inventory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, session *fakeSession, ttl time.Duration) (*Orchestrator, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.tmp")
	orchestrator := NewOrchestrator(NewBuilder(session, testLogger()), Store{}, path, ttl, testLogger())
	return orchestrator, path
}

func TestGetSecondCallServedFromCache(t *testing.T) {
	session := prodSession()
	orchestrator, _ := newTestOrchestrator(t, session, time.Hour)

	first, err := orchestrator.Get(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, session.vmCalls)

	second, err := orchestrator.Get(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, session.vmCalls, "second call must not hit the live API")
	assert.Equal(t, first.Groups, second.Groups)
	assert.Equal(t, first.Hostvars, second.Hostvars)
}

func TestGetStaleCacheTriggersLiveFetch(t *testing.T) {
	session := prodSession()
	orchestrator, path := newTestOrchestrator(t, session, 10*time.Second)

	_, err := orchestrator.Get(context.Background(), false)
	require.NoError(t, err)

	aged := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(path, aged, aged))

	_, err = orchestrator.Get(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, session.vmCalls)
}

func TestGetRecoversFromCorruptFreshCache(t *testing.T) {
	session := prodSession()
	orchestrator, path := newTestOrchestrator(t, session, time.Hour)
	require.NoError(t, os.WriteFile(path, []byte("\x00garbage"), 0o644))

	doc, err := orchestrator.Get(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, doc.Groups["prod"])
	assert.Equal(t, 1, session.vmCalls)

	// The corrupted file must have been replaced with a valid snapshot.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))
}

func TestGetRefreshIgnoresFreshCache(t *testing.T) {
	session := prodSession()
	orchestrator, path := newTestOrchestrator(t, session, time.Hour)

	stale := NewDocument()
	stale.AddToGroup("prod", "decommissioned-vm")
	stale.Hostvars["decommissioned-vm"] = HostVars{}
	require.NoError(t, Store{}.Write(path, stale))

	doc, err := orchestrator.Get(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, session.vmCalls)
	assert.Equal(t, []string{"A"}, doc.Groups["prod"])

	persisted, err := Store{}.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, persisted.Groups["prod"], "refresh must overwrite the cache file")
}

func TestGetEmptyCachePathIsConfigurationError(t *testing.T) {
	session := prodSession()
	orchestrator := NewOrchestrator(NewBuilder(session, testLogger()), Store{}, "", time.Hour, testLogger())

	_, err := orchestrator.Get(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCachePath)
	assert.Zero(t, session.vmCalls)
}

func TestGetPropagatesBuildFailureWithoutWriting(t *testing.T) {
	session := prodSession()
	session.vmErr = assert.AnError
	orchestrator, path := newTestOrchestrator(t, session, time.Hour)

	_, err := orchestrator.Get(context.Background(), false)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "failed fetch must not leave a cache file")
}

func TestGetEndToEndScenario(t *testing.T) {
	orchestrator, _ := newTestOrchestrator(t, prodSession(), time.Hour)

	doc, err := orchestrator.Get(context.Background(), false)
	require.NoError(t, err)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_meta":{"hostvars":{"A":{"ansible_host":"10.0.0.5"}}},"prod":["A"]}`, string(out))
}
