// Package portfoliofs persists per-user watchlists and holdings as JSON files.
package portfoliofs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// Store implements interfaces.PortfolioStore on the local filesystem.
type Store struct {
	basePath string
	logger   *common.Logger
}

// NewStore creates the base directory if needed.
func NewStore(logger *common.Logger, basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create portfolio path %s: %w", basePath, err)
	}
	logger.Debug().Str("path", basePath).Msg("Portfolio store opened")
	return &Store{basePath: basePath, logger: logger}, nil
}

func sanitizeUsername(username string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(username)
}

func (s *Store) filePath(username string) string {
	return filepath.Join(s.basePath, "portfolio_"+sanitizeUsername(username)+".json")
}

// Load returns the stored watchlist and holdings. A missing file yields an
// empty UserData.
func (s *Store) Load(username string) (*models.UserData, error) {
	data, err := os.ReadFile(s.filePath(username))
	if err != nil {
		if os.IsNotExist(err) {
			return &models.UserData{}, nil
		}
		return nil, fmt.Errorf("failed to read portfolio for '%s': %w", username, err)
	}

	var ud models.UserData
	if err := json.Unmarshal(data, &ud); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio for '%s': %w", username, err)
	}
	return &ud, nil
}

// Save replaces the stored data atomically.
func (s *Store) Save(username string, ud *models.UserData) error {
	jsonData, err := json.MarshalIndent(ud, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath(username)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.logger.Debug().Str("username", username).Msg("Portfolio saved")
	return nil
}
