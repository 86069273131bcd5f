package interfaces

import (
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// LedgerStore persists user records: credentials, tier and quota counters.
type LedgerStore interface {
	GetUser(username string) (*models.User, error)
	SaveUser(user *models.User) error
	HasUser(username string) (bool, error)
	ListUsers() ([]*models.User, error)
	Close() error
}

// ChatHistoryStore persists per-user conversation transcripts.
type ChatHistoryStore interface {
	// Load returns the stored transcript, or an empty slice when the user has
	// no history yet or the stored file cannot be decoded.
	Load(username string) ([]models.Message, error)

	// Save replaces the stored transcript. Transient fields (charts) are
	// stripped before writing.
	Save(username string, history []models.Message) error

	// Clear removes the stored transcript. Clearing a missing transcript is
	// not an error.
	Clear(username string) error
}

// PortfolioStore persists per-user watchlists and holdings.
type PortfolioStore interface {
	Load(username string) (*models.UserData, error)
	Save(username string, data *models.UserData) error
}
