package service

import (
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/mail"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store/storetest"
	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

const testIssuer = "pocketbook-auth-test"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: storetest.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store  *sqlite.Store
	clock  *testClock
	mailer *mail.Recorder
	sealer *cryptox.Sealer
	keys   *jwtx.KeyManager
	creds  *CredentialService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := storetest.NewSQLite(t)
	clock := newTestClock()
	mailer := &mail.Recorder{}

	sealer, err := cryptox.NewSealer([]byte("test master key"))
	require.NoError(t, err)

	keys, err := jwtx.NewEphemeralKeyManager(testIssuer)
	require.NoError(t, err)
	keys.Verifier.Now = clock.Now

	return &fixture{
		store:  st,
		clock:  clock,
		mailer: mailer,
		sealer: sealer,
		keys:   keys,
		creds: &CredentialService{
			Store:  st,
			Keys:   keys,
			Mailer: mailer,
			Links:  mail.Links{BaseURL: "https://pocketbook.test"},
			Issuer: testIssuer,
			Now:    clock.Now,
		},
	}
}
