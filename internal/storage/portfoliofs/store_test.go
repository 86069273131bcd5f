package portfoliofs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)

	data := &models.UserData{
		Watchlist: []string{"AAPL", "BBCA.JK"},
		Portfolio: []models.Holding{
			{Symbol: "BBCA.JK", Quantity: 100, BuyPrice: 9000, Currency: models.CurrencyIDR},
		},
	}
	require.NoError(t, store.Save("alice", data))

	loaded, err := store.Load("alice")
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestLoadMissingUserReturnsEmpty(t *testing.T) {
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)

	loaded, err := store.Load("nobody")
	require.NoError(t, err)
	assert.Empty(t, loaded.Portfolio)
	assert.Empty(t, loaded.Watchlist)
}
