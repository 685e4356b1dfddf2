package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/credgate/internal/core"
	"github.com/edvin/credgate/internal/model"
)

// ---------- In-memory credential store ----------

// fakeStore implements CredentialStore with the store's semantics:
// one active record per hash, version CAS, revoked is terminal.
type fakeStore struct {
	mu          sync.Mutex
	records      map[string]*model.CredentialRecord // by token hash, active only
	failLookups  bool
	extendCalls  int
	replaceCalls int

	// extendDelay holds ExtendExpiry open so concurrent callers pile up
	// behind the in-flight extension.
	extendDelay time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*model.CredentialRecord)}
}

func (s *fakeStore) put(rec *model.CredentialRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.TokenHash] = rec
}

func (s *fakeStore) setFailLookups(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLookups = fail
}

func (s *fakeStore) LookupByHash(_ context.Context, hash string) (*model.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLookups {
		return nil, errors.New("connection refused")
	}
	rec, ok := s.records[hash]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) ExtendExpiry(ctx context.Context, hash string, newExpiry time.Time) (*model.CredentialRecord, error) {
	if s.extendDelay > 0 {
		select {
		case <-time.After(s.extendDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[hash]
	if !ok {
		return nil, core.ErrNotFound
	}
	if rec.Revoked() {
		return nil, core.ErrCannotMutateRevoked
	}
	s.extendCalls++
	rec.ExpiresAt = newExpiry
	rec.Version++
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) Replace(_ context.Context, hash string) (*model.CredentialRecord, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[hash]
	if !ok {
		return nil, "", core.ErrNotFound
	}
	if rec.Revoked() {
		return nil, "", core.ErrCannotMutateRevoked
	}
	s.replaceCalls++

	newRaw, err := core.MintToken(rec.Family)
	if err != nil {
		return nil, "", err
	}
	successor := *rec
	successor.ID = rec.ID + "-next"
	successor.TokenHash = core.HashToken(newRaw)
	successor.TokenPrefix = core.TokenPrefix(newRaw)
	successor.ExpiresAt = time.Now().Add(30 * 24 * time.Hour)
	successor.Version = rec.Version + 1

	delete(s.records, hash)
	s.records[successor.TokenHash] = &successor
	cp := successor
	return &cp, newRaw, nil
}

// ---------- Identity fakes ----------

type fakeTenants struct {
	mu      sync.Mutex
	tenants map[string]*model.Tenant
}

func newFakeTenants(tenants ...*model.Tenant) *fakeTenants {
	m := make(map[string]*model.Tenant)
	for _, t := range tenants {
		m[t.ID] = t
	}
	return &fakeTenants{tenants: m}
}

func (f *fakeTenants) setStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tenants[id].Status = status
}

func (f *fakeTenants) GetByID(_ context.Context, id string) (*model.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

type fakeUsers struct {
	users map[string]*model.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	if f == nil || f.users == nil {
		return nil, core.ErrNotFound
	}
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// ---------- Recording audit sink ----------

type recordingSink struct {
	mu   sync.Mutex
	recs []*model.AuditRecord
}

func (r *recordingSink) Record(rec *model.AuditRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
}

func (r *recordingSink) byEvent(event string) []*model.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AuditRecord
	for _, rec := range r.recs {
		if rec.Event == event {
			out = append(out, rec)
		}
	}
	return out
}

func (r *recordingSink) last() *model.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.recs) == 0 {
		return nil
	}
	return r.recs[len(r.recs)-1]
}

// ---------- Assembled test gateway ----------

type testGateway struct {
	dispatcher *Dispatcher
	store      *fakeStore
	tenants    *fakeTenants
	sink       *recordingSink
	policy     *Policy
	cache      *Cache
}

func newTestGateway(policy *Policy) *testGateway {
	return newTestGatewayTimeout(policy, time.Second)
}

func newTestGatewayTimeout(policy *Policy, storeTimeout time.Duration) *testGateway {
	if policy == nil {
		policy = DefaultPolicy()
	}
	store := newFakeStore()
	tenants := newFakeTenants(
		&model.Tenant{ID: "tenant-1", Name: "tenant one", Status: model.TenantActive},
		&model.Tenant{ID: "tenant-2", Name: "tenant two", Status: model.TenantActive},
	)
	sink := &recordingSink{}
	cache := NewCache(policy.CacheTTL())
	limiter := NewRateLimiter()

	validator := NewValidator(policy, store)
	resolver := NewResolver(tenants, &fakeUsers{}, policy, StaticScorer{})
	lifecycle := NewLifecycleManager(store, policy, cache, sink, zerolog.Nop())

	return &testGateway{
		dispatcher: NewDispatcher(validator, resolver, lifecycle, cache, limiter, policy, sink, zerolog.Nop(), storeTimeout),
		store:      store,
		tenants:    tenants,
		sink:       sink,
		policy:     policy,
		cache:      cache,
	}
}

// seedCredential stores a credential for tenantID and returns its raw
// token and record.
func (g *testGateway) seedCredential(tenantID string, scopes []string, expiresAt time.Time) (string, *model.CredentialRecord) {
	raw, _ := core.MintToken(model.FamilyLive)
	rec := &model.CredentialRecord{
		ID:              "cred-" + core.TokenPrefix(raw),
		TokenHash:       core.HashToken(raw),
		TokenPrefix:     core.TokenPrefix(raw),
		Family:          model.FamilyLive,
		TenantID:        tenantID,
		Scopes:          scopes,
		ExpiresAt:       expiresAt,
		RateLimitPerMin: 600,
		Version:         1,
		CreatedAt:       time.Now(),
	}
	g.store.put(rec)
	return raw, rec
}
