// Package chatfs persists per-user conversation transcripts as JSON files.
// Each user owns one file named chat_history_<username>.json under the base
// path. Charts are transient and never written to disk.
package chatfs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// Store implements interfaces.ChatHistoryStore on the local filesystem.
type Store struct {
	basePath string
	logger   *common.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates the base directory if needed.
func NewStore(logger *common.Logger, basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chat history path %s: %w", basePath, err)
	}
	logger.Debug().Str("path", basePath).Msg("Chat history store opened")
	return &Store{
		basePath: basePath,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// userLock returns the per-user mutex, creating it on first use. Save and
// Clear for the same user serialize on it so concurrent turns cannot
// interleave a partial write.
func (s *Store) userLock(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[username]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[username] = lock
	}
	return lock
}

// sanitizeUsername makes a username safe for use as a filename.
func sanitizeUsername(username string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(username)
}

func (s *Store) filePath(username string) string {
	return filepath.Join(s.basePath, "chat_history_"+sanitizeUsername(username)+".json")
}

// Load returns the stored transcript. A missing or undecodable file yields an
// empty transcript so the conversation restarts cleanly.
func (s *Store) Load(username string) ([]models.Message, error) {
	data, err := os.ReadFile(s.filePath(username))
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Message{}, nil
		}
		return nil, fmt.Errorf("failed to read chat history for '%s': %w", username, err)
	}

	var history []models.Message
	if err := json.Unmarshal(data, &history); err != nil {
		s.logger.Warn().Str("username", username).Err(err).Msg("Chat history corrupt, starting fresh")
		return []models.Message{}, nil
	}
	return history, nil
}

// Save replaces the stored transcript atomically. Chart payloads are stripped
// before writing since they are regenerated per turn.
func (s *Store) Save(username string, history []models.Message) error {
	lock := s.userLock(username)
	lock.Lock()
	defer lock.Unlock()

	durable := make([]models.Message, len(history))
	for i, msg := range history {
		msg.Chart = nil
		durable[i] = msg
	}

	jsonData, err := json.MarshalIndent(durable, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chat history: %w", err)
	}
	jsonData = append(jsonData, '\n')

	// Atomic write: temp file in the same directory, then rename.
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

	s.logger.Debug().Str("username", username).Int("messages", len(durable)).Msg("Chat history saved")
	return nil
}

// Clear removes the stored transcript. Clearing a missing file is a no-op.
func (s *Store) Clear(username string) error {
	lock := s.userLock(username)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.filePath(username)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear chat history for '%s': %w", username, err)
	}
	s.logger.Debug().Str("username", username).Msg("Chat history cleared")
	return nil
}
