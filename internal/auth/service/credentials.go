package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/mail"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"
	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/aussiebroadwan/pocketbook/pkg/idx"
	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"

	"golang.org/x/text/unicode/norm"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 256

	ConfirmTokenTTL = 24 * time.Hour
	ResetTokenTTL   = time.Hour
)

// CredentialService owns identities, passwords and sessions.
type CredentialService struct {
	Store  store.Store
	Keys   *jwtx.KeyManager
	Mailer mail.Mailer
	Links  mail.Links
	Issuer string

	// SessionTTL defaults to jwtx.DefaultSessionTTL.
	SessionTTL time.Duration

	// AutoConfirm marks new identities confirmed instead of mailing a link.
	AutoConfirm bool

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *CredentialService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CredentialService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return jwtx.DefaultSessionTTL
}

// NormalizeEmail applies NFKC, trims and lower-cases email, and rejects
// anything that isn't a bare address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(norm.NFKC.String(email)))
	addr, err := netmail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// ValidatePassword enforces the length bounds on the normalised password.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(cryptox.NormalizePassword(password))
	if n < MinPasswordLength || n > MaxPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// SignUp creates an identity and mails a confirmation link, unless
// AutoConfirm is set.
func (s *CredentialService) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	email, err := NormalizeEmail(email)
	if err != nil {
		return domain.Identity{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return domain.Identity{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	id := domain.Identity{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if s.AutoConfirm {
		id.EmailConfirmedAt = &now
	}

	var token string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Identities().CreateIdentity(ctx, id); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		if s.AutoConfirm {
			return nil
		}

		token, err = s.createEmailToken(ctx, tx, id.ID, domain.EmailTokenConfirm, ConfirmTokenTTL, now)
		return err
	})
	if err != nil {
		return domain.Identity{}, err
	}

	l.Info("identity created", slog.String("user_id", id.ID), slog.Bool("confirmed", id.EmailConfirmed()))

	if token != "" {
		if err := s.Mailer.Send(ctx, s.Links.Confirmation(email, token)); err != nil {
			l.Error("failed to send confirmation email", slog.String("user_id", id.ID), slog.Any("error", err))
		}
	}
	return id, nil
}

func (s *CredentialService) createEmailToken(ctx context.Context, tx store.Tx, userID string, purpose domain.EmailTokenPurpose, ttl time.Duration, now time.Time) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	if err := tx.EmailTokens().DeleteUserEmailTokens(ctx, userID, purpose); err != nil {
		return "", err
	}
	err = tx.EmailTokens().CreateEmailToken(ctx, domain.EmailToken{
		TokenHash: cryptox.FingerprintToken(token),
		UserID:    userID,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// SignInWithPassword checks the password and issues a session. Sessions are
// issued for unconfirmed identities too; callers decide what to allow.
func (s *CredentialService) SignInWithPassword(ctx context.Context, email, password string) (domain.Identity, domain.IssuedSession, error) {
	l := slogx.FromContext(ctx)

	email, err := NormalizeEmail(email)
	if err != nil {
		cryptox.DummyVerify(password)
		return domain.Identity{}, domain.IssuedSession{}, ErrInvalidCredentials
	}

	id, err := s.Store.Identities().GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.DummyVerify(password)
			return domain.Identity{}, domain.IssuedSession{}, ErrInvalidCredentials
		}
		return domain.Identity{}, domain.IssuedSession{}, err
	}

	if err := s.checkPassword(ctx, id, password); err != nil {
		l.Info("password sign-in failed", slog.String("user_id", id.ID))
		return domain.Identity{}, domain.IssuedSession{}, err
	}

	issued, err := s.issueSession(ctx, id, []string{"pwd"})
	if err != nil {
		return domain.Identity{}, domain.IssuedSession{}, err
	}
	return id, issued, nil
}

func (s *CredentialService) checkPassword(ctx context.Context, id domain.Identity, password string) error {
	err := cryptox.VerifyPassword(password, id.PasswordHash)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cryptox.ErrPasswordMismatch):
		return ErrInvalidCredentials
	default:
		slogx.FromContext(ctx).Error("stored password hash unusable", slog.String("user_id", id.ID), slog.Any("error", err))
		return ErrInvalidCredentials
	}
}

func (s *CredentialService) issueSession(ctx context.Context, id domain.Identity, amr []string) (domain.IssuedSession, error) {
	now := s.now()
	ttl := s.sessionTTL()

	sess := domain.Session{
		ID:        idx.NewAt(now).String(),
		UserID:    id.ID,
		AMR:       amr,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	token, err := s.Keys.Sign(jwtx.NewSessionClaims(id.ID, sess.ID, id.Email, amr, ttl, s.Issuer, now))
	if err != nil {
		return domain.IssuedSession{}, fmt.Errorf("sign session: %w", err)
	}
	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return domain.IssuedSession{}, fmt.Errorf("create session: %w", err)
	}

	slogx.FromContext(ctx).Info("session issued",
		slog.String("user_id", id.ID),
		slog.String("session_id", sess.ID),
	)
	return domain.IssuedSession{Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// GetSession resolves a bearer token to its identity and live session row.
func (s *CredentialService) GetSession(ctx context.Context, token string) (domain.Identity, domain.Session, error) {
	claims, err := s.Keys.Verify(token)
	if err != nil {
		return domain.Identity{}, domain.Session{}, ErrInvalidToken
	}

	sess, err := s.Store.Sessions().GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, domain.Session{}, ErrInvalidToken
		}
		return domain.Identity{}, domain.Session{}, err
	}
	if sess.UserID != claims.Subject {
		return domain.Identity{}, domain.Session{}, ErrInvalidToken
	}
	if !sess.IsLive(s.now()) {
		return domain.Identity{}, domain.Session{}, ErrSessionRevoked
	}

	id, err := s.Store.Identities().GetIdentityByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, domain.Session{}, ErrInvalidToken
		}
		return domain.Identity{}, domain.Session{}, err
	}
	return id, sess, nil
}

// VerifySession implements httpx.SessionVerifier.
func (s *CredentialService) VerifySession(ctx context.Context, token string) (userID, sessionID string, err error) {
	_, sess, err := s.GetSession(ctx, token)
	if err != nil {
		return "", "", err
	}
	return sess.UserID, sess.ID, nil
}

// SignOut revokes the session behind token. Signing out an already revoked
// or expired session succeeds.
func (s *CredentialService) SignOut(ctx context.Context, token string) error {
	claims, err := s.Keys.Verify(token)
	if err != nil {
		return ErrInvalidToken
	}

	revoked, err := s.Store.Sessions().RevokeSession(ctx, claims.SID, s.now())
	if err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("sign out",
		slog.String("user_id", claims.Subject),
		slog.String("session_id", claims.SID),
		slog.Bool("revoked", revoked),
	)
	return nil
}

// Reauthenticate checks password for userID without issuing a session.
func (s *CredentialService) Reauthenticate(ctx context.Context, userID, password string) error {
	id, err := s.Store.Identities().GetIdentityByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.DummyVerify(password)
			return ErrInvalidCredentials
		}
		return err
	}
	return s.checkPassword(ctx, id, password)
}

func (s *CredentialService) GetIdentity(ctx context.Context, userID string) (domain.Identity, error) {
	return s.Store.Identities().GetIdentityByID(ctx, userID)
}

// ConfirmEmail consumes a confirmation token.
func (s *CredentialService) ConfirmEmail(ctx context.Context, token string) (domain.Identity, error) {
	now := s.now()

	var id domain.Identity
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		t, err := tx.EmailTokens().ConsumeEmailToken(ctx, cryptox.FingerprintToken(token), domain.EmailTokenConfirm, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		if err := tx.Identities().ConfirmEmail(ctx, t.UserID, now); err != nil {
			return err
		}
		id, err = tx.Identities().GetIdentityByID(ctx, t.UserID)
		return err
	})
	if err != nil {
		return domain.Identity{}, err
	}

	slogx.FromContext(ctx).Info("email confirmed", slog.String("user_id", id.ID))
	return id, nil
}

// SendPasswordReset mails a reset link. Unknown addresses are accepted
// silently so the endpoint cannot be used to probe for accounts.
func (s *CredentialService) SendPasswordReset(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	id, err := s.Store.Identities().GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Debug("password reset for unknown email")
			return nil
		}
		return err
	}

	var token string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		token, err = s.createEmailToken(ctx, tx, id.ID, domain.EmailTokenPasswordReset, ResetTokenTTL, s.now())
		return err
	})
	if err != nil {
		return err
	}

	// A delivery failure is not reported to the caller, who would otherwise
	// learn that the address is registered.
	if err := s.Mailer.Send(ctx, s.Links.PasswordReset(email, token)); err != nil {
		l.Error("failed to send password reset email", slog.String("user_id", id.ID), slog.Any("error", err))
		return nil
	}
	l.Info("password reset requested", slog.String("user_id", id.ID))
	return nil
}

// ResetPassword consumes a reset token, sets the new password and revokes
// every live session of the user.
func (s *CredentialService) ResetPassword(ctx context.Context, token, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	var (
		userID  string
		revoked int64
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		t, err := tx.EmailTokens().ConsumeEmailToken(ctx, cryptox.FingerprintToken(token), domain.EmailTokenPasswordReset, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		userID = t.UserID

		if err := tx.Identities().UpdatePasswordHash(ctx, userID, hash, now); err != nil {
			return err
		}
		revoked, err = tx.Sessions().RevokeUserSessions(ctx, userID, now)
		return err
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password reset",
		slog.String("user_id", userID),
		slog.Int64("sessions_revoked", revoked),
	)
	return nil
}
