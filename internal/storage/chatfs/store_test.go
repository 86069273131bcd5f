package chatfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	history := []models.Message{
		{Role: models.RoleAssistant, Content: "Hello!"},
		{Role: models.RoleUser, Content: "price of AAPL?"},
		{Role: models.RoleAssistant, Content: "AAPL closed at 189.50"},
	}
	require.NoError(t, store.Save("alice", history))

	loaded, err := store.Load("alice")
	require.NoError(t, err)
	assert.Equal(t, history, loaded)
}

func TestLoadMissingUserReturnsEmpty(t *testing.T) {
	store := newTestStore(t)

	history, err := store.Load("nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSaveStripsChartFromDisk(t *testing.T) {
	store := newTestStore(t)

	history := []models.Message{
		{Role: models.RoleAssistant, Content: "Here it is.", Chart: &models.Chart{
			Ticker:  "AAPL",
			Caption: "AAPL 6mo",
			PNG:     []byte{0x89, 'P', 'N', 'G'},
		}},
	}
	require.NoError(t, store.Save("alice", history))

	// The caller's slice is untouched.
	assert.NotNil(t, history[0].Chart)

	loaded, err := store.Load("alice")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Nil(t, loaded[0].Chart)

	raw, err := os.ReadFile(store.filePath("alice"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "chart")
	assert.NotContains(t, string(raw), "png")
}

func TestLoadCorruptFileStartsFresh(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, os.WriteFile(store.filePath("alice"), []byte("{not json"), 0644))

	history, err := store.Load("alice")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClearIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("alice", []models.Message{{Role: models.RoleUser, Content: "hi"}}))
	require.NoError(t, store.Clear("alice"))
	require.NoError(t, store.Clear("alice"))

	history, err := store.Load("alice")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUsernameSanitizedInFilename(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("../evil/../../name", []models.Message{{Role: models.RoleUser, Content: "hi"}}))

	entries, err := os.ReadDir(store.basePath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(entries[0].Name()), entries[0].Name())
	assert.NotContains(t, entries[0].Name(), "..")
}
