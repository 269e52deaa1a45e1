package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const issuer = "pocketbook-auth"

func newManager(t *testing.T) *jwtx.KeyManager {
	t.Helper()
	km, err := jwtx.NewEphemeralKeyManager(issuer)
	require.NoError(t, err)
	return km
}

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	km := newManager(t)
	now := time.Now().UTC()
	claims := jwtx.NewSessionClaims("user-1", "sess-1", "a@example.com", []string{"pwd"}, time.Hour, issuer, now)

	token, err := km.Sign(claims)
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(token, ".")))

	got, err := km.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "sess-1", got.SID)
	require.Equal(t, "a@example.com", got.Email)
	require.Equal(t, []string{"pwd"}, got.AMR)
	require.WithinDuration(t, now.Add(time.Hour), got.ExpiresAtTime(), time.Second)
}

func TestVerifyRejects(t *testing.T) {
	t.Parallel()

	km := newManager(t)
	now := time.Now().UTC()
	sign := func(c jwtx.SessionClaims) string {
		tok, err := km.Sign(c)
		require.NoError(t, err)
		return tok
	}

	t.Run("expired", func(t *testing.T) {
		tok := sign(jwtx.NewSessionClaims("u", "s", "", nil, time.Minute, issuer, now.Add(-time.Hour)))
		_, err := km.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		tok := sign(jwtx.NewSessionClaims("u", "s", "", nil, time.Hour, issuer, now.Add(time.Hour)))
		_, err := km.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrNotYetValid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		tok := sign(jwtx.NewSessionClaims("u", "s", "", nil, time.Hour, "someone-else", now))
		_, err := km.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("missing sid", func(t *testing.T) {
		tok := sign(jwtx.NewSessionClaims("u", "", "", nil, time.Hour, issuer, now))
		_, err := km.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := km.Verify("not.a.token")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("foreign key", func(t *testing.T) {
		other := newManager(t)
		tok, err := other.Sign(jwtx.NewSessionClaims("u", "s", "", nil, time.Hour, issuer, now))
		require.NoError(t, err)
		_, err = km.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	})

	t.Run("tampered signature", func(t *testing.T) {
		tok := sign(jwtx.NewSessionClaims("u", "s", "", nil, time.Hour, issuer, now))
		parts := strings.Split(tok, ".")
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		_, err := km.Verify(parts[0] + "." + parts[1] + "." + string(sig))
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("other algorithm", func(t *testing.T) {
		c := jwtx.NewSessionClaims("u", "s", "", nil, time.Hour, issuer, now)
		tk := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
		tk.Header["kid"] = km.Signer().KID()
		tok, err := tk.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = km.Verify(tok)
		require.Error(t, err)
	})
}

func TestVerifierClockAndLeeway(t *testing.T) {
	t.Parallel()

	km := newManager(t)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tok, err := km.Sign(jwtx.NewSessionClaims("u", "s", "", nil, time.Hour, issuer, issued))
	require.NoError(t, err)

	v := jwtx.NewVerifier(km.KeySet, issuer)

	v.Now = func() time.Time { return issued.Add(time.Hour + 10*time.Second) }
	_, err = v.Verify(tok)
	require.NoError(t, err, "within leeway")

	v.Now = func() time.Time { return issued.Add(time.Hour + time.Minute) }
	_, err = v.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestRotateAndRetire(t *testing.T) {
	t.Parallel()

	km := newManager(t)
	now := time.Now().UTC()
	oldKID := km.Signer().KID()

	before, err := km.Sign(jwtx.NewSessionClaims("u", "s1", "", nil, time.Hour, issuer, now))
	require.NoError(t, err)

	next, err := jwtx.GenerateSigner()
	require.NoError(t, err)
	require.NoError(t, km.Rotate(next))
	require.Equal(t, next.KID(), km.Signer().KID())
	require.Len(t, km.KeySet.PublicJWKS().Keys, 2)

	_, err = km.Verify(before)
	require.NoError(t, err, "old tokens survive rotation")

	require.Error(t, km.Retire(next.KID()), "active key cannot be retired")
	require.NoError(t, km.Retire(oldKID))
	require.Error(t, km.Retire(oldKID))

	_, err = km.Verify(before)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
}

func TestNewKeyManagerFromPEM(t *testing.T) {
	t.Parallel()

	s, err := jwtx.GenerateSigner()
	require.NoError(t, err)

	reloaded, err := jwtx.NewSigner(s.KID(), s.PrivatePEM())
	require.NoError(t, err)

	km, err := jwtx.NewKeyManager(issuer, reloaded)
	require.NoError(t, err)

	tok, err := s.Sign(jwtx.NewSessionClaims("u", "s", "", nil, time.Hour, issuer, time.Now()))
	require.NoError(t, err)
	_, err = km.Verify(tok)
	require.NoError(t, err)

	_, err = jwtx.NewKeyManager("", s)
	require.Error(t, err)
	_, err = jwtx.NewKeyManager(issuer)
	require.Error(t, err)
	_, err = jwtx.NewSigner("", s.PrivatePEM())
	require.Error(t, err)
}

func TestJWKRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := jwtx.GenerateSigner()
	require.NoError(t, err)

	j := s.PublicJWK()
	require.Equal(t, "OKP", j.Kty)
	require.Equal(t, "Ed25519", j.Crv)
	require.Equal(t, "EdDSA", j.Alg)

	ks := jwtx.NewKeySet()
	require.False(t, ks.IsReady())
	require.NoError(t, ks.AddJWK(j))
	require.True(t, ks.IsReady())

	pub, err := ks.Get(s.KID())
	require.NoError(t, err)
	require.Equal(t, s.Public(), pub)

	_, err = ks.Get("missing")
	require.ErrorIs(t, err, jwtx.ErrNoKey)

	require.Error(t, ks.AddJWK(jwtx.JWK{Kty: "RSA", Kid: "x"}))
}
