package authflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/aussiebroadwan/pocketbook/pkg/idx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend down")

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

// newTestClock starts on a 30 second step boundary.
func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeUser struct {
	identity Identity
	password string
}

type fakeCredentials struct {
	mu         sync.Mutex
	users      map[string]*fakeUser
	sessions   map[string]string
	calls      int
	err        error
	signOutErr error
	resets     []string
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{
		users:    make(map[string]*fakeUser),
		sessions: make(map[string]string),
	}
}

func (f *fakeCredentials) add(email, password string, confirmed bool) Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := Identity{ID: idx.New().String(), Email: email, EmailConfirmed: confirmed}
	f.users[email] = &fakeUser{identity: id, password: password}
	return id
}

func (f *fakeCredentials) liveSessions(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, uid := range f.sessions {
		if uid == userID {
			n++
		}
	}
	return n
}

func (f *fakeCredentials) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeCredentials) byID(userID string) *fakeUser {
	for _, u := range f.users {
		if u.identity.ID == userID {
			return u
		}
	}
	return nil
}

func (f *fakeCredentials) SignInWithPassword(_ context.Context, email, password string) (Identity, Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Identity{}, Session{}, f.err
	}
	u, ok := f.users[email]
	if !ok || u.password != password {
		return Identity{}, Session{}, ErrInvalidCredentials
	}
	s := Session{Token: idx.New().String(), ExpiresAt: time.Now().Add(time.Hour)}
	f.sessions[s.Token] = u.identity.ID
	return u.identity, s, nil
}

func (f *fakeCredentials) SignUp(_ context.Context, email, password string) (Identity, error) {
	f.mu.Lock()
	f.calls++
	if f.err != nil {
		f.mu.Unlock()
		return Identity{}, f.err
	}
	if _, ok := f.users[email]; ok {
		f.mu.Unlock()
		return Identity{}, ErrAlreadyExists
	}
	f.mu.Unlock()
	return f.add(email, password, false), nil
}

func (f *fakeCredentials) SignOut(_ context.Context, s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.signOutErr != nil {
		return f.signOutErr
	}
	delete(f.sessions, s.Token)
	return nil
}

func (f *fakeCredentials) GetSession(_ context.Context, token string) (Identity, Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Identity{}, Session{}, f.err
	}
	uid, ok := f.sessions[token]
	if !ok {
		return Identity{}, Session{}, ErrNotFound
	}
	return f.byID(uid).identity, Session{Token: token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeCredentials) Reauthenticate(_ context.Context, s Session, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	uid, ok := f.sessions[s.Token]
	if !ok {
		return ErrInvalidCredentials
	}
	if f.byID(uid).password != password {
		return ErrInvalidCredentials
	}
	return nil
}

func (f *fakeCredentials) GetIdentity(_ context.Context, userID string) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Identity{}, f.err
	}
	u := f.byID(userID)
	if u == nil {
		return Identity{}, ErrNotFound
	}
	return u.identity, nil
}

func (f *fakeCredentials) SendPasswordReset(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.resets = append(f.resets, email)
	return nil
}

type fakeRecords struct {
	mu    sync.Mutex
	recs  map[string]MFARecord
	calls int
	err   error

	// beforeUpdate runs at the start of UpdateMFARecord, outside the lock.
	beforeUpdate func()
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{recs: make(map[string]MFARecord)}
}

func (f *fakeRecords) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRecords) snapshot(userID string) MFARecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.recs[userID]
	rec.RecoveryCodes = append([]string(nil), rec.RecoveryCodes...)
	return rec
}

func (f *fakeRecords) GetMFARecord(_ context.Context, userID string) (MFARecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return MFARecord{}, f.err
	}
	rec, ok := f.recs[userID]
	if !ok {
		return MFARecord{}, ErrNotFound
	}
	rec.RecoveryCodes = append([]string(nil), rec.RecoveryCodes...)
	return rec, nil
}

func (f *fakeRecords) UpsertMFARecord(_ context.Context, rec MFARecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if prev, ok := f.recs[rec.UserID]; ok {
		rec.CreatedAt = prev.CreatedAt
	} else {
		rec.CreatedAt = time.Now()
	}
	rec.UpdatedAt = time.Now()
	rec.RecoveryCodes = append([]string(nil), rec.RecoveryCodes...)
	f.recs[rec.UserID] = rec
	return nil
}

func (f *fakeRecords) UpdateMFARecord(_ context.Context, userID string, patch MFAPatch) error {
	if f.beforeUpdate != nil {
		hook := f.beforeUpdate
		f.beforeUpdate = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	rec, ok := f.recs[userID]
	if !ok {
		return ErrNotFound
	}
	if patch.IfSecret != "" && !strings.EqualFold(patch.IfSecret, rec.SecretKey) {
		return ErrSecretChanged
	}
	if patch.Enabled != nil {
		rec.Enabled = *patch.Enabled
	}
	if patch.SetupCompleted != nil {
		rec.SetupCompleted = *patch.SetupCompleted
	}
	rec.UpdatedAt = time.Now()
	f.recs[userID] = rec
	return nil
}

func (f *fakeRecords) ConsumeRecoveryCode(_ context.Context, userID, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	want, err := cryptox.NormalizeRecoveryCode(code)
	if err != nil {
		return false, nil
	}
	rec, ok := f.recs[userID]
	if !ok {
		return false, ErrNotFound
	}
	for i, c := range rec.RecoveryCodes {
		if have, _ := cryptox.NormalizeRecoveryCode(c); have == want {
			rec.RecoveryCodes = append(rec.RecoveryCodes[:i:i], rec.RecoveryCodes[i+1:]...)
			f.recs[userID] = rec
			return true, nil
		}
	}
	return false, nil
}

type fakeProfiles struct {
	mu      sync.Mutex
	created map[string]ProfileFields
	err     error
}

func (f *fakeProfiles) CreateProfile(_ context.Context, userID string, fields ProfileFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.created == nil {
		f.created = make(map[string]ProfileFields)
	}
	f.created[userID] = fields
	return nil
}

type harness struct {
	o        *Orchestrator
	creds    *fakeCredentials
	records  *fakeRecords
	profiles *fakeProfiles
	clock    *testClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		creds:    newFakeCredentials(),
		records:  newFakeRecords(),
		profiles: &fakeProfiles{},
		clock:    newTestClock(),
	}
	h.o = New(Options{
		Credentials: h.creds,
		Records:     h.records,
		Profiles:    h.profiles,
		Issuer:      "Pocketbook",
		Now:         h.clock.Now,
	})
	return h
}

// signedIn registers a confirmed user and signs them in.
func (h *harness) signedIn(t *testing.T, email, password string) Identity {
	t.Helper()
	id := h.creds.add(email, password, true)
	res := h.o.SignIn(context.Background(), email, password)
	require.True(t, res.Success, "sign in: %+v", res.Error)
	return id
}

// enrolled signs a user in, completes MFA enrollment and signs out again.
func (h *harness) enrolled(t *testing.T, email, password string) (Identity, string, []string) {
	t.Helper()
	ctx := context.Background()
	id := h.signedIn(t, email, password)

	setup := h.o.SetupMFA(ctx)
	require.True(t, setup.Success)

	done := h.o.CompleteMFASetup(ctx, codeAt(t, setup.Secret, h.clock.Now()), setup.Secret)
	require.True(t, done.Success, "complete setup: %+v", done.Error)

	require.True(t, h.o.SignOut(ctx).Success)
	return id, setup.Secret, done.RecoveryCodes
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}
