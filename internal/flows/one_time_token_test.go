package flows

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goOTT/session"
	"github.com/MrEthical07/goOTT/verification"
)

var (
	errNotReady        = errors.New("not ready")
	errForbidden       = errors.New("forbidden")
	errUnauthenticated = errors.New("unauthenticated")
	errInvalidInput    = errors.New("invalid input")
	errInvalidToken    = errors.New("invalid token")
	errExpired         = errors.New("expired")
	errSessionNotFound = errors.New("session not found")
	errGeneration      = errors.New("generation")
	errUnavailable     = errors.New("unavailable")
	errCreation        = errors.New("creation")
	errTransport       = errors.New("transport")
)

type fakeRecords struct {
	mu      sync.Mutex
	records map[string]verification.Record
	nextID  int
	findErr error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: map[string]verification.Record{}}
}

func (f *fakeRecords) create(_ context.Context, r verification.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[r.Identifier]; ok {
		return verification.ErrDuplicate
	}
	f.nextID++
	r.ID = strconv.Itoa(f.nextID)
	f.records[r.Identifier] = r
	return nil
}

func (f *fakeRecords) find(_ context.Context, identifier string) (*verification.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	r, ok := f.records[identifier]
	if !ok {
		return nil, verification.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRecords) delete(_ context.Context, r verification.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.records[r.Identifier]
	if !ok || cur.ID != r.ID {
		return verification.ErrNotFound
	}
	delete(f.records, r.Identifier)
	return nil
}

func (f *fakeRecords) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type flowFixture struct {
	records  *fakeRecords
	sessions map[string]*session.Session
	saved    []*session.Session
	now      time.Time
	metrics  map[int]int
	events   []string
	mu       sync.Mutex
}

func newFlowFixture() *flowFixture {
	fx := &flowFixture{
		records:  newFakeRecords(),
		sessions: map[string]*session.Session{},
		now:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		metrics:  map[int]int{},
	}
	fx.sessions["durable-1"] = &session.Session{ID: "s1", Token: "durable-1", UserID: "u1"}
	return fx
}

func (fx *flowFixture) deps() OneTimeTokenDeps {
	counter := 0
	return OneTimeTokenDeps{
		ExpiresIn:        3 * time.Minute,
		CreateSession:    true,
		SessionLifetime:  time.Hour,
		IdentifierPrefix: "one-time-token:",
		Now:              func() time.Time { return fx.now },
		GenerateToken: func(context.Context, *session.Session, *session.User) (string, error) {
			counter++
			return "tok-" + strconv.Itoa(counter), nil
		},
		StoreKey:           func(_ context.Context, t string) (string, error) { return t, nil },
		CreateVerification: fx.records.create,
		FindVerification:   fx.records.find,
		DeleteVerification: fx.records.delete,
		ResolveSession: func(_ context.Context, token string) (*session.Session, *session.User, error) {
			fx.mu.Lock()
			defer fx.mu.Unlock()
			s, ok := fx.sessions[token]
			if !ok {
				return nil, nil, errSessionNotFound
			}
			return s, &session.User{ID: s.UserID}, nil
		},
		NewSessionID:    func() string { return "s-new" },
		NewSessionToken: func() (string, error) { return "durable-new", nil },
		SaveSession: func(_ context.Context, s *session.Session) error {
			fx.mu.Lock()
			defer fx.mu.Unlock()
			fx.saved = append(fx.saved, s)
			return nil
		},
		MetricInc: func(id int) {
			fx.mu.Lock()
			defer fx.mu.Unlock()
			fx.metrics[id]++
		},
		EmitAudit: func(_ context.Context, event string, _ bool, _, _ string, _ error, _ func() map[string]string) {
			fx.mu.Lock()
			defer fx.mu.Unlock()
			fx.events = append(fx.events, event)
		},
		Metrics: OneTimeTokenMetrics{
			Generated: 1, GenerateForbidden: 2, GenerateFailure: 3, Verified: 4, Invalid: 5,
			Expired: 6, ReplayRejected: 7, SessionNotFound: 8, VerifyFailure: 9, SessionCreated: 10,
		},
		Events: OneTimeTokenEvents{Generate: "generate", Verify: "verify", Replay: "replay", Expired: "expired"},
		Errors: OneTimeTokenErrors{
			EngineNotReady: errNotReady, Forbidden: errForbidden, Unauthenticated: errUnauthenticated,
			InvalidInput: errInvalidInput, InvalidToken: errInvalidToken, TokenExpired: errExpired,
			SessionNotFound: errSessionNotFound, TokenGeneration: errGeneration, StoreUnavailable: errUnavailable,
			SessionCreation: errCreation, SessionTransport: errTransport,
		},
	}
}

func (fx *flowFixture) current() *session.Session {
	return fx.sessions["durable-1"]
}

func TestGenerateStoresPrefixedRecord(t *testing.T) {
	fx := newFlowFixture()
	deps := fx.deps()

	token, err := RunGenerateOneTimeToken(context.Background(), fx.current(), nil, deps)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	rec, err := fx.records.find(context.Background(), "one-time-token:"+token)
	if err != nil {
		t.Fatalf("record not stored: %v", err)
	}
	if rec.Value != "durable-1" {
		t.Fatalf("expected value durable-1, got %q", rec.Value)
	}
	if !rec.ExpiresAt.Equal(fx.now.Add(3 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", rec.ExpiresAt)
	}
	if fx.metrics[deps.Metrics.Generated] != 1 {
		t.Fatalf("expected generated metric")
	}
}

func TestGenerateForbiddenTouchesNothing(t *testing.T) {
	fx := newFlowFixture()
	deps := fx.deps()
	deps.DisableClientRequest = true
	deps.IsClientRequest = func(context.Context) bool { return true }
	deps.GenerateToken = func(context.Context, *session.Session, *session.User) (string, error) {
		t.Fatal("generator must not run for forbidden calls")
		return "", nil
	}

	if _, err := RunGenerateOneTimeToken(context.Background(), fx.current(), nil, deps); !errors.Is(err, errForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if fx.records.len() != 0 {
		t.Fatal("no record must be created")
	}
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name   string
		sess   *session.Session
		mutate func(*OneTimeTokenDeps)
		want   error
	}{
		{name: "nil session", sess: nil, want: errUnauthenticated},
		{name: "empty durable token", sess: &session.Session{ID: "x"}, want: errUnauthenticated},
		{
			name: "generator error",
			mutate: func(d *OneTimeTokenDeps) {
				d.GenerateToken = func(context.Context, *session.Session, *session.User) (string, error) {
					return "", errors.New("boom")
				}
			},
			want: errGeneration,
		},
		{
			name: "empty generated token",
			mutate: func(d *OneTimeTokenDeps) {
				d.GenerateToken = func(context.Context, *session.Session, *session.User) (string, error) { return "", nil }
			},
			want: errGeneration,
		},
		{
			name: "store down",
			mutate: func(d *OneTimeTokenDeps) {
				d.CreateVerification = func(context.Context, verification.Record) error { return errors.New("conn refused") }
			},
			want: errUnavailable,
		},
		{
			name: "identifier collision",
			mutate: func(d *OneTimeTokenDeps) {
				d.CreateVerification = func(context.Context, verification.Record) error { return verification.ErrDuplicate }
			},
			want: errGeneration,
		},
		{
			name: "missing collaborator",
			mutate: func(d *OneTimeTokenDeps) {
				d.CreateVerification = nil
			},
			want: errNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFlowFixture()
			deps := fx.deps()
			if tt.mutate != nil {
				tt.mutate(&deps)
			}
			sess := tt.sess
			if sess == nil && tt.name != "nil session" {
				sess = fx.current()
			}
			if _, err := RunGenerateOneTimeToken(context.Background(), sess, nil, deps); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVerifyCreatesSuccessorSession(t *testing.T) {
	fx := newFlowFixture()
	deps := fx.deps()

	token, err := RunGenerateOneTimeToken(context.Background(), fx.current(), nil, deps)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var transported *session.Session
	deps.SetSession = func(_ context.Context, s *session.Session, _ *session.User) error {
		transported = s
		return nil
	}

	res, err := RunVerifyOneTimeToken(context.Background(), token, deps)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Session.ID != "s-new" || res.Token == nil || *res.Token != "durable-new" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.User.ID != "u1" {
		t.Fatalf("expected user u1, got %q", res.User.ID)
	}
	if !res.Session.ExpiresAt.Equal(fx.now.Add(time.Hour)) {
		t.Fatalf("unexpected session expiry %v", res.Session.ExpiresAt)
	}
	if transported != res.Session {
		t.Fatal("successor session must be handed to the transport")
	}
	if len(fx.saved) != 1 {
		t.Fatalf("expected one saved session, got %d", len(fx.saved))
	}

	if _, err := RunVerifyOneTimeToken(context.Background(), token, deps); !errors.Is(err, errInvalidToken) {
		t.Fatalf("second redemption: expected invalid token, got %v", err)
	}
}

func TestVerifyWithoutSessionCreationReturnsOriginal(t *testing.T) {
	fx := newFlowFixture()
	deps := fx.deps()
	deps.CreateSession = false
	deps.SaveSession = nil

	token, _ := RunGenerateOneTimeToken(context.Background(), fx.current(), nil, deps)
	res, err := RunVerifyOneTimeToken(context.Background(), token, deps)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Session != fx.current() || res.Token != nil {
		t.Fatalf("expected original session and nil token, got %+v", res)
	}
}

func TestVerifyExpiredDeletesRecord(t *testing.T) {
	fx := newFlowFixture()
	deps := fx.deps()

	token, _ := RunGenerateOneTimeToken(context.Background(), fx.current(), nil, deps)
	fx.now = fx.now.Add(3 * time.Minute)

	if _, err := RunVerifyOneTimeToken(context.Background(), token, deps); !errors.Is(err, errExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if fx.records.len() != 0 {
		t.Fatal("expired record must be removed")
	}
	if _, err := RunVerifyOneTimeToken(context.Background(), token, deps); !errors.Is(err, errInvalidToken) {
		t.Fatalf("expected invalid after cleanup, got %v", err)
	}
}

func TestVerifyExpiredCleanupFailureIsLoggedNotSurfaced(t *testing.T) {
	fx := newFlowFixture()
	deps := fx.deps()
	token, _ := RunGenerateOneTimeToken(context.Background(), fx.current(), nil, deps)
	fx.now = fx.now.Add(time.Hour)

	var logged error
	deps.DeleteVerification = func(context.Context, verification.Record) error { return errors.New("down") }
	deps.LogCleanupFailure = func(_ context.Context, _ string, err error) { logged = err }

	if _, err := RunVerifyOneTimeToken(context.Background(), token, deps); !errors.Is(err, errExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if logged == nil {
		t.Fatal("cleanup failure must be logged")
	}
}

func TestVerifyBurnsTokenWhenSessionGone(t *testing.T) {
	fx := newFlowFixture()
	deps := fx.deps()
	token, _ := RunGenerateOneTimeToken(context.Background(), fx.current(), nil, deps)
	delete(fx.sessions, "durable-1")

	if _, err := RunVerifyOneTimeToken(context.Background(), token, deps); !errors.Is(err, errSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if fx.records.len() != 0 {
		t.Fatal("token must be consumed before session resolution")
	}
	if len(fx.saved) != 0 {
		t.Fatal("no session may be created")
	}
}

func TestVerifyInputAndStoreFailures(t *testing.T) {
	fx := newFlowFixture()
	deps := fx.deps()

	for _, in := range []string{"", "   ", "\t\n"} {
		if _, err := RunVerifyOneTimeToken(context.Background(), in, deps); !errors.Is(err, errInvalidInput) {
			t.Fatalf("input %q: expected invalid input, got %v", in, err)
		}
	}

	fx.records.findErr = errors.New("timeout")
	if _, err := RunVerifyOneTimeToken(context.Background(), "abc", deps); !errors.Is(err, errUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestVerifyTransportFailure(t *testing.T) {
	fx := newFlowFixture()
	deps := fx.deps()
	token, _ := RunGenerateOneTimeToken(context.Background(), fx.current(), nil, deps)
	deps.SetSession = func(context.Context, *session.Session, *session.User) error { return errors.New("headers sent") }

	if _, err := RunVerifyOneTimeToken(context.Background(), token, deps); !errors.Is(err, errTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestVerifyConcurrentSingleWinner(t *testing.T) {
	fx := newFlowFixture()
	deps := fx.deps()
	token, _ := RunGenerateOneTimeToken(context.Background(), fx.current(), nil, deps)

	const workers = 64
	start := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	success, invalid := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := RunVerifyOneTimeToken(context.Background(), token, deps)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, errInvalidToken):
				invalid++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if success != 1 || invalid != workers-1 {
		t.Fatalf("expected 1 success and %d invalid, got %d/%d", workers-1, success, invalid)
	}
}
