// Package userdb implements the user ledger store using BadgerHold.
// It holds account credentials, tier assignments and daily quota counters.
package userdb

import (
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// Store implements interfaces.LedgerStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens (or creates) the ledger database at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger db path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger db at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("Ledger DB opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) GetUser(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Get(username, &user); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("user '%s' not found", username)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", username, err)
	}
	return &user, nil
}

func (s *Store) SaveUser(user *models.User) error {
	now := time.Now()
	var existing models.User
	if err := s.db.Get(user.Username, &existing); err == nil {
		user.CreatedAt = existing.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.ModifiedAt = now

	if err := s.db.Upsert(user.Username, user); err != nil {
		return fmt.Errorf("failed to save user '%s': %w", user.Username, err)
	}
	s.logger.Debug().Str("username", user.Username).Msg("User saved")
	return nil
}

func (s *Store) HasUser(username string) (bool, error) {
	var user models.User
	err := s.db.Get(username, &user)
	if err == nil {
		return true, nil
	}
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	return false, fmt.Errorf("failed to check user '%s': %w", username, err)
}

func (s *Store) ListUsers() ([]*models.User, error) {
	var users []models.User
	if err := s.db.Find(&users, nil); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	result := make([]*models.User, len(users))
	for i := range users {
		result[i] = &users[i]
	}
	return result, nil
}

// Close shuts down the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
