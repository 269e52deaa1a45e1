package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"

	"github.com/google/uuid"
)

const (
	DefaultCurrency      = "AUD"
	MaxDisplayNameLength = 64
)

// ProfileFields are the user supplied columns of a profile.
type ProfileFields struct {
	DisplayName string
	Currency    string
}

// ProfileService manages the profile row created alongside an identity.
type ProfileService struct {
	Store store.Store

	// Now defaults to time.Now.
	Now func() time.Time
}

// Create inserts the user's profile. The currency is an ISO 4217 code and
// defaults to AUD.
func (s *ProfileService) Create(ctx context.Context, userID string, fields ProfileFields) (domain.Profile, error) {
	name := strings.TrimSpace(fields.DisplayName)
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return domain.Profile{}, ErrInvalidProfile
	}
	currency, err := normalizeCurrency(fields.Currency)
	if err != nil {
		return domain.Profile{}, err
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	p := domain.Profile{
		ID:          uuid.NewString(),
		UserID:      userID,
		DisplayName: name,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Profiles().CreateProfile(ctx, p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

func (s *ProfileService) Get(ctx context.Context, userID string) (domain.Profile, error) {
	return s.Store.Profiles().GetProfileByUserID(ctx, userID)
}

func normalizeCurrency(c string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency, nil
	}
	if len(c) != 3 {
		return "", ErrInvalidProfile
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidProfile
		}
	}
	return c, nil
}
