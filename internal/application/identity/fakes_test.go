package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/slotbook/backend/internal/domain/billing"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
)

// memMerchants is an in-memory merchant repository with unique slug, owner
// and custom domain columns
type memMerchants struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]identity.Merchant
	createErrs  map[string]error
	existsCalls int
	saves       int
}

func newMemMerchants() *memMerchants {
	return &memMerchants{
		byID:       map[uuid.UUID]identity.Merchant{},
		createErrs: map[string]error{},
	}
}

func (r *memMerchants) seed(slug string) *identity.Merchant {
	m, err := identity.NewMerchant(uuid.New(), "Seeded "+slug, slug)
	if err != nil {
		panic(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.ID] = *m
	return m
}

func (r *memMerchants) find(pred func(identity.Merchant) bool) (*identity.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byID {
		if pred(m) {
			out := m
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memMerchants) FindByID(_ context.Context, id uuid.UUID) (*identity.Merchant, error) {
	return r.find(func(m identity.Merchant) bool { return m.ID == id })
}

func (r *memMerchants) FindBySlug(_ context.Context, slug string) (*identity.Merchant, error) {
	return r.find(func(m identity.Merchant) bool { return m.Slug == slug })
}

func (r *memMerchants) FindActiveByCustomDomain(_ context.Context, domain string) (*identity.Merchant, error) {
	return r.find(func(m identity.Merchant) bool { return m.Active && m.CustomDomain == domain })
}

func (r *memMerchants) FindByOwner(_ context.Context, ownerID uuid.UUID) (*identity.Merchant, error) {
	return r.find(func(m identity.Merchant) bool { return m.OwnerID == ownerID })
}

func (r *memMerchants) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	r.mu.Lock()
	r.existsCalls++
	r.mu.Unlock()
	_, err := r.FindBySlug(ctx, slug)
	return err == nil, nil
}

func (r *memMerchants) ExistsByOwner(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	_, err := r.FindByOwner(ctx, ownerID)
	return err == nil, nil
}

func (r *memMerchants) ListDirectory(_ context.Context, filter shared.Filter) ([]identity.Merchant, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []identity.Merchant
	for _, m := range r.byID {
		if m.Active && m.DirectoryVisible {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, int64(len(out)), nil
}

func (r *memMerchants) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memMerchants) Create(_ context.Context, merchant *identity.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.createErrs[merchant.Slug]; ok {
		return err
	}
	for _, m := range r.byID {
		if m.Slug == merchant.Slug {
			return identity.ErrSlugTaken
		}
	}
	r.byID[merchant.ID] = *merchant
	return nil
}

func (r *memMerchants) Save(_ context.Context, merchant *identity.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[merchant.ID]; !ok {
		return shared.ErrNotFound
	}
	for _, m := range r.byID {
		if m.ID != merchant.ID && merchant.CustomDomain != "" && m.CustomDomain == merchant.CustomDomain {
			return identity.ErrDomainTaken
		}
	}
	r.byID[merchant.ID] = *merchant
	r.saves++
	return nil
}

type memCustomers struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]identity.CustomerAccount
}

func newMemCustomers() *memCustomers {
	return &memCustomers{accounts: map[uuid.UUID]identity.CustomerAccount{}}
}

func (r *memCustomers) FindByID(_ context.Context, id uuid.UUID) (*identity.CustomerAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &a, nil
}

func (r *memCustomers) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.accounts[id]
	return ok, nil
}

func (r *memCustomers) Create(_ context.Context, a *identity.CustomerAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ID]; ok {
		return shared.Conflict("customer account already exists")
	}
	r.accounts[a.ID] = *a
	return nil
}

func (r *memCustomers) Save(_ context.Context, a *identity.CustomerAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.ID] = *a
	return nil
}

type memUserTypes struct {
	mu        sync.Mutex
	records   map[uuid.UUID]identity.UserTypeRecord
	upserts   int
	upsertErr error
}

func newMemUserTypes() *memUserTypes {
	return &memUserTypes{records: map[uuid.UUID]identity.UserTypeRecord{}}
}

func (r *memUserTypes) Find(_ context.Context, identityID uuid.UUID) (*identity.UserTypeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identityID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &rec, nil
}

func (r *memUserTypes) Upsert(_ context.Context, record *identity.UserTypeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.records[record.IdentityID] = *record
	r.upserts++
	return nil
}

func (r *memUserTypes) CreateIfAbsent(_ context.Context, record *identity.UserTypeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.IdentityID]; !ok {
		r.records[record.IdentityID] = *record
	}
	return nil
}

func (r *memUserTypes) set(identityID uuid.UUID, role identity.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[identityID] = identity.UserTypeRecord{IdentityID: identityID, Role: role, CreatedAt: time.Now()}
}

func (r *memUserTypes) role(identityID uuid.UUID) identity.Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[identityID].Role
}

type memFavorites struct {
	mu   sync.Mutex
	rows map[[2]uuid.UUID]identity.Favorite
}

func newMemFavorites() *memFavorites {
	return &memFavorites{rows: map[[2]uuid.UUID]identity.Favorite{}}
}

func (r *memFavorites) List(_ context.Context, customerID uuid.UUID) ([]identity.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []identity.Favorite
	for k, f := range r.rows {
		if k[0] == customerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFavorites) Add(_ context.Context, f identity.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]uuid.UUID{f.CustomerID, f.MerchantID}
	if _, ok := r.rows[key]; !ok {
		r.rows[key] = f
	}
	return nil
}

func (r *memFavorites) Remove(_ context.Context, customerID, merchantID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, [2]uuid.UUID{customerID, merchantID})
	return nil
}

type mockSubscriptions struct {
	mock.Mock
}

func (m *mockSubscriptions) AssignFree(ctx context.Context, merchantID uuid.UUID) (*billing.MerchantSubscription, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.MerchantSubscription), args.Error(1)
}

func (m *mockSubscriptions) GetCurrentSubscription(ctx context.Context, merchantID uuid.UUID) (*billing.MerchantSubscription, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.MerchantSubscription), args.Error(1)
}

func (m *mockSubscriptions) EffectiveLayout(sub *billing.MerchantSubscription, storedLayout string) string {
	if billing.IsFree(sub) {
		return identity.LayoutBaseline
	}
	return storedLayout
}

type mockDomainCache struct {
	mock.Mock
}

func (m *mockDomainCache) Get(ctx context.Context, domain string) (string, bool, error) {
	args := m.Called(ctx, domain)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockDomainCache) Set(ctx context.Context, domain, slug string, ttl time.Duration) error {
	args := m.Called(ctx, domain, slug, ttl)
	return args.Error(0)
}

func (m *mockDomainCache) Invalidate(ctx context.Context, domains ...string) error {
	args := m.Called(ctx, domains)
	return args.Error(0)
}
