// Package quota enforces the per-user daily request quota.
//
// Free-tier users get a fixed number of requests per calendar day; pro-tier
// users are unlimited. Usage counters roll over when the stored reset date
// falls behind today.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

const dateLayout = "2006-01-02"

// Service implements interfaces.QuotaLedger on top of a LedgerStore.
type Service struct {
	store      interfaces.LedgerStore
	logger     *common.Logger
	dailyLimit int

	// now is swappable for tests.
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a quota service with the given free-tier daily limit.
func NewService(store interfaces.LedgerStore, logger *common.Logger, dailyLimit int) *Service {
	if dailyLimit <= 0 {
		dailyLimit = 5
	}
	return &Service{
		store:      store,
		logger:     logger,
		dailyLimit: dailyLimit,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// userLock returns the per-user mutex, creating it on first use. Check and
// increment for the same user serialize on it so concurrent requests cannot
// both pass the final remaining slot.
func (s *Service) userLock(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[username]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[username] = lock
	}
	return lock
}

func (s *Service) today() string {
	return s.now().Format(dateLayout)
}

// rollover resets the usage counter when the stored reset date is behind
// today. Returns true when a reset happened.
func (s *Service) rollover(user *models.User) bool {
	today := s.today()
	if user.LastReset == today {
		return false
	}
	user.QuotaUsage = 0
	user.LastReset = today
	return true
}

// CheckAvailable reports whether the user may issue another request today,
// along with a status line suitable for display. A day rollover is applied
// and persisted before the check.
func (s *Service) CheckAvailable(ctx context.Context, username string) (bool, string, error) {
	lock := s.userLock(username)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.store.GetUser(username)
	if err != nil {
		return false, "", fmt.Errorf("%w: %v", common.ErrLedgerUnavailable, err)
	}

	if user.Tier == models.TierPro {
		return true, "Unlimited access", nil
	}

	reset := s.rollover(user)
	if reset {
		if err := s.store.SaveUser(user); err != nil {
			return false, "", fmt.Errorf("%w: %v", common.ErrLedgerUnavailable, err)
		}
		s.logger.Debug().Str("username", username).Msg("Quota counter rolled over")
		return true, fmt.Sprintf("Quota reset. %d requests available today.", s.dailyLimit), nil
	}

	remaining := s.dailyLimit - user.QuotaUsage
	if remaining <= 0 {
		return false, "Daily quota exhausted. Upgrade to Pro for unlimited access.", nil
	}
	return true, fmt.Sprintf("%d of %d requests remaining today.", remaining, s.dailyLimit), nil
}

// IncrementUsage records one consumed request for free-tier users. Pro users
// are never counted.
func (s *Service) IncrementUsage(ctx context.Context, username string) error {
	lock := s.userLock(username)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.store.GetUser(username)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrLedgerUnavailable, err)
	}
	if user.Tier == models.TierPro {
		return nil
	}

	s.rollover(user)
	user.QuotaUsage++

	if err := s.store.SaveUser(user); err != nil {
		return fmt.Errorf("%w: %v", common.ErrLedgerUnavailable, err)
	}
	s.logger.Debug().Str("username", username).Int("usage", user.QuotaUsage).Msg("Quota usage incremented")
	return nil
}

// UpgradeTier moves the user to the pro tier.
func (s *Service) UpgradeTier(ctx context.Context, username string) error {
	lock := s.userLock(username)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.store.GetUser(username)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrLedgerUnavailable, err)
	}
	if user.Tier == models.TierPro {
		return nil
	}

	user.Tier = models.TierPro
	if err := s.store.SaveUser(user); err != nil {
		return fmt.Errorf("%w: %v", common.ErrLedgerUnavailable, err)
	}
	s.logger.Info().Str("username", username).Msg("User upgraded to pro tier")
	return nil
}

// Status returns the current status line without consuming anything.
func (s *Service) Status(ctx context.Context, username string) (string, error) {
	_, status, err := s.CheckAvailable(ctx, username)
	return status, err
}

// Ensure Service implements QuotaLedger
var _ interfaces.QuotaLedger = (*Service)(nil)
