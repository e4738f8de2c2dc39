package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"docsign-service/internal/domain"
)

const validatedTokenCacheTTL = 30 * time.Second

type validatedTokenEntry struct {
	user      *domain.SupabaseUser
	expiresAt time.Time
}

type authService struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
	now            func() time.Time

	cacheMu sync.RWMutex
	cache   map[string]validatedTokenEntry
}

// NewAuthService validates user tokens through Supabase. Successful lookups
// are cached briefly so repeated reconciliation clicks do not hit GoTrue.
func NewAuthService(
	supabaseClient domain.SupabaseClient,
	logger domain.Logger,
) *authService {
	return &authService{
		supabaseClient: supabaseClient,
		logger:         logger,
		now:            time.Now,
		cache:          make(map[string]validatedTokenEntry),
	}
}

// ValidateToken returns the user owning token.
func (s *authService) ValidateToken(token string) (*domain.SupabaseUser, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", domain.ErrInvalidToken)
	}

	key := tokenKey(token)
	now := s.now()
	s.cacheMu.RLock()
	entry, ok := s.cache[key]
	s.cacheMu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.user, nil
	}

	user, err := s.supabaseClient.ValidateToken(token)
	if err != nil {
		s.logger.Warn("Token validation failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	s.cacheMu.Lock()
	for k, e := range s.cache {
		if !now.Before(e.expiresAt) {
			delete(s.cache, k)
		}
	}
	s.cache[key] = validatedTokenEntry{user: user, expiresAt: now.Add(validatedTokenCacheTTL)}
	s.cacheMu.Unlock()

	return user, nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
