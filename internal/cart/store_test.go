package cart_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/rocketshoes/internal/cart"
	"github.com/Skotchmaster/rocketshoes/internal/models"
	"github.com/Skotchmaster/rocketshoes/internal/notify"
	"github.com/Skotchmaster/rocketshoes/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	mu         sync.Mutex
	products   map[int]models.Product
	stock      map[int]int
	stockErr   error
	productErr error
	stockCalls int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[int]models.Product{
			1: {ID: 1, Title: "Running shoe", Price: 179.9, Image: "https://img/1.jpg"},
			2: {ID: 2, Title: "Trail shoe", Price: 139.9, Image: "https://img/2.jpg"},
			3: {ID: 3, Title: "Sneaker", Price: 99.5, Image: "https://img/3.jpg"},
		},
		stock: map[int]int{1: 5, 2: 5, 3: 5},
	}
}

func (f *fakeCatalog) setStock(id, amount int) {
	f.mu.Lock()
	f.stock[id] = amount
	f.mu.Unlock()
}

func (f *fakeCatalog) GetStock(_ context.Context, id int) (models.Stock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stockCalls++
	if f.stockErr != nil {
		return models.Stock{}, f.stockErr
	}
	amount, ok := f.stock[id]
	if !ok {
		return models.Stock{}, errors.New("stock not found")
	}
	return models.Stock{ID: id, Amount: amount}, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.productErr != nil {
		return models.Product{}, f.productErr
	}
	p, ok := f.products[id]
	if !ok {
		return models.Product{}, errors.New("product not found")
	}
	return p, nil
}

type failingStorage struct {
	*storage.Memory
	setErr error
}

func (f *failingStorage) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Memory.Set(ctx, key, value)
}

type eventSink struct {
	mu     sync.Mutex
	events []cart.Event
}

func (s *eventSink) Publish(_ context.Context, ev cart.Event) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

// blockingPublisher holds every Publish until release is closed or the
// publish context expires.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPublisher) Publish(ctx context.Context, _ cart.Event) error {
	p.entered <- struct{}{}
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, cart.Event) error {
	return errors.New("broker unreachable")
}

type outcomeCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *outcomeCounter) Observe(op string, outcome cart.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[op+"/"+string(outcome)]++
}

type testEnv struct {
	Store    *cart.Store
	Catalog  *fakeCatalog
	Storage  *storage.Memory
	Notifier *notify.Recorder
}

func newTestEnv(t *testing.T, seed []models.Product) *testEnv {
	t.Helper()

	env := &testEnv{
		Catalog:  newFakeCatalog(),
		Storage:  storage.NewMemory(),
		Notifier: &notify.Recorder{},
	}
	if seed != nil {
		data, err := json.Marshal(seed)
		require.NoError(t, err)
		require.NoError(t, env.Storage.Set(context.Background(), cart.StorageKey, string(data)))
	}

	store, err := cart.New(context.Background(), cart.Deps{
		Catalog:  env.Catalog,
		Storage:  env.Storage,
		Notifier: env.Notifier,
	})
	require.NoError(t, err)
	env.Store = store
	return env
}

func (env *testEnv) persisted(t *testing.T) []models.Product {
	t.Helper()
	raw, ok, err := env.Storage.Get(context.Background(), cart.StorageKey)
	require.NoError(t, err)
	require.True(t, ok, "cart was never persisted")

	var items []models.Product
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	return items
}

func TestAddProduct_AppendsNewProduct(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	require.NoError(t, env.Store.AddProduct(context.Background(), 1))

	got := env.Store.Cart()
	require.Len(t, got, 1)
	assert.Equal(t, models.Product{ID: 1, Title: "Running shoe", Price: 179.9, Image: "https://img/1.jpg", Amount: 1}, got[0])
	assert.Equal(t, got, env.persisted(t))
	assert.Empty(t, env.Notifier.Messages())
}

func TestAddProduct_IncrementsExisting(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, []models.Product{{ID: 1, Title: "Running shoe", Price: 179.9, Amount: 1}})

	require.NoError(t, env.Store.AddProduct(context.Background(), 1))

	got := env.Store.Cart()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Amount)
	assert.Equal(t, got, env.persisted(t))
}

func TestAddProduct_StopsAtStockLimit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.Catalog.setStock(2, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = env.Store.AddProduct(ctx, 2)
	}

	got := env.Store.Cart()
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Amount)
	assert.Equal(t, []string{cart.MsgAmountOutOfStock, cart.MsgAmountOutOfStock}, env.Notifier.Messages())
}

func TestAddProduct_OutOfStock(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.Catalog.setStock(1, 0)

	err := env.Store.AddProduct(context.Background(), 1)
	require.ErrorIs(t, err, cart.ErrStockExceeded)
	assert.Equal(t, cart.MsgProductOutOfStock, cart.Message(err))

	assert.Empty(t, env.Store.Cart())
	assert.Equal(t, []string{cart.MsgProductOutOfStock}, env.Notifier.Messages())

	_, ok, err := env.Storage.Get(context.Background(), cart.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddProduct_RemoteFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(c *fakeCatalog)
		id    int
	}{
		{name: "stock lookup fails", setup: func(c *fakeCatalog) { c.stockErr = errors.New("connection refused") }, id: 1},
		{name: "product lookup fails", setup: func(c *fakeCatalog) { c.productErr = errors.New("timeout") }, id: 1},
		{name: "unknown product", setup: func(c *fakeCatalog) {}, id: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)
			tt.setup(env.Catalog)

			err := env.Store.AddProduct(context.Background(), tt.id)
			require.ErrorIs(t, err, cart.ErrRemote)
			assert.Empty(t, env.Store.Cart())
			assert.Equal(t, []string{cart.MsgAddFailed}, env.Notifier.Messages())
		})
	}
}

func TestRemoveProduct_Unknown(t *testing.T) {
	t.Parallel()
	seed := []models.Product{{ID: 1, Title: "Running shoe", Amount: 2}}
	env := newTestEnv(t, seed)

	err := env.Store.RemoveProduct(context.Background(), 9)
	require.ErrorIs(t, err, cart.ErrValidation)
	require.ErrorIs(t, err, cart.ErrNotInCart)
	assert.Equal(t, seed, env.Store.Cart())
	assert.Equal(t, []string{cart.MsgRemoveFailed}, env.Notifier.Messages())
}

func TestRemoveProduct_KeepsOrderOfOthers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, []models.Product{
		{ID: 1, Title: "Running shoe", Amount: 1},
		{ID: 2, Title: "Trail shoe", Amount: 3},
		{ID: 3, Title: "Sneaker", Amount: 2},
	})

	require.NoError(t, env.Store.RemoveProduct(context.Background(), 2))

	want := []models.Product{
		{ID: 1, Title: "Running shoe", Amount: 1},
		{ID: 3, Title: "Sneaker", Amount: 2},
	}
	assert.Equal(t, want, env.Store.Cart())
	assert.Equal(t, want, env.persisted(t))
	assert.Zero(t, env.Catalog.stockCalls)
}

func TestUpdateProductAmount_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      int
		amount  int
		wantErr error
		wantMsg string
	}{
		{name: "amount zero", id: 1, amount: 0, wantErr: cart.ErrValidation, wantMsg: cart.MsgUpdateFailed},
		{name: "negative amount", id: 1, amount: -2, wantErr: cart.ErrValidation, wantMsg: cart.MsgUpdateFailed},
		{name: "not in cart", id: 2, amount: 1, wantErr: cart.ErrValidation, wantMsg: cart.MsgUpdateFailed},
		{name: "over stock", id: 1, amount: 5, wantErr: cart.ErrStockExceeded, wantMsg: cart.MsgAmountOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			seed := []models.Product{{ID: 1, Title: "Running shoe", Amount: 3}}
			env := newTestEnv(t, seed)
			env.Catalog.setStock(1, 2)

			err := env.Store.UpdateProductAmount(context.Background(), tt.id, tt.amount)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, seed, env.Store.Cart())
			assert.Equal(t, []string{tt.wantMsg}, env.Notifier.Messages())
		})
	}
}

func TestUpdateProductAmount_SkipsStockLookupWhenInvalid(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, []models.Product{{ID: 1, Amount: 1}})

	_ = env.Store.UpdateProductAmount(context.Background(), 1, 0)
	assert.Zero(t, env.Catalog.stockCalls)
}

func TestUpdateProductAmount_RemoteFailure(t *testing.T) {
	t.Parallel()
	seed := []models.Product{{ID: 1, Amount: 1}}
	env := newTestEnv(t, seed)
	env.Catalog.stockErr = errors.New("503")

	err := env.Store.UpdateProductAmount(context.Background(), 1, 2)
	require.ErrorIs(t, err, cart.ErrRemote)
	assert.Equal(t, seed, env.Store.Cart())
	assert.Equal(t, []string{cart.MsgUpdateFailed}, env.Notifier.Messages())
}

func TestUpdateProductAmount_ReplacesInPlace(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, []models.Product{
		{ID: 1, Title: "Running shoe", Amount: 1},
		{ID: 2, Title: "Trail shoe", Amount: 1},
	})

	require.NoError(t, env.Store.UpdateProductAmount(context.Background(), 1, 4))

	want := []models.Product{
		{ID: 1, Title: "Running shoe", Amount: 4},
		{ID: 2, Title: "Trail shoe", Amount: 1},
	}
	assert.Equal(t, want, env.Store.Cart())
	assert.Equal(t, want, env.persisted(t))
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, env.Store.AddProduct(ctx, 3))
	require.NoError(t, env.Store.AddProduct(ctx, 1))
	require.NoError(t, env.Store.AddProduct(ctx, 3))
	require.NoError(t, env.Store.UpdateProductAmount(ctx, 1, 4))

	reloaded, err := cart.New(ctx, cart.Deps{Catalog: env.Catalog, Storage: env.Storage, Notifier: env.Notifier})
	require.NoError(t, err)
	assert.Equal(t, env.Store.Cart(), reloaded.Cart())
	assert.Equal(t, []int{3, 1}, []int{reloaded.Cart()[0].ID, reloaded.Cart()[1].ID})
}

func TestNew_LoadsPersistedState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		raw     *string
		want    []models.Product
		wantErr error
	}{
		{name: "absent key", raw: nil, want: []models.Product{}},
		{name: "empty value", raw: ptr(""), want: []models.Product{}},
		{name: "null", raw: ptr("null"), want: []models.Product{}},
		{name: "valid", raw: ptr(`[{"id":1,"title":"a","price":1.5,"image":"x","amount":2}]`), want: []models.Product{{ID: 1, Title: "a", Price: 1.5, Image: "x", Amount: 2}}},
		{name: "malformed", raw: ptr(`{not json`), wantErr: cart.ErrCorruptState},
		{name: "zero amount", raw: ptr(`[{"id":1,"amount":0}]`), wantErr: cart.ErrCorruptState},
		{name: "duplicate id", raw: ptr(`[{"id":1,"amount":1},{"id":1,"amount":2}]`), wantErr: cart.ErrCorruptState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mem := storage.NewMemory()
			if tt.raw != nil {
				require.NoError(t, mem.Set(ctx, cart.StorageKey, *tt.raw))
			}

			store, err := cart.New(ctx, cart.Deps{Catalog: newFakeCatalog(), Storage: mem, Notifier: &notify.Recorder{}})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.Cart())
		})
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()
	_, err := cart.New(context.Background(), cart.Deps{Storage: storage.NewMemory()})
	require.Error(t, err)
}

func TestStore_StorageFailureLeavesCartUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := &failingStorage{Memory: storage.NewMemory()}
	rec := &notify.Recorder{}

	store, err := cart.New(ctx, cart.Deps{Catalog: newFakeCatalog(), Storage: st, Notifier: rec})
	require.NoError(t, err)
	require.NoError(t, store.AddProduct(ctx, 1))

	st.setErr = errors.New("disk full")

	err = store.AddProduct(ctx, 2)
	require.ErrorIs(t, err, cart.ErrStorage)
	err = store.RemoveProduct(ctx, 1)
	require.ErrorIs(t, err, cart.ErrStorage)

	require.Len(t, store.Cart(), 1)
	assert.Equal(t, 1, store.Cart()[0].ID)
	assert.Equal(t, []string{cart.MsgAddFailed, cart.MsgRemoveFailed}, rec.Messages())
}

func TestStore_ConcurrentAddsAreSerialized(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.Catalog.setStock(1, 1000)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = env.Store.AddProduct(context.Background(), 1)
		}()
	}
	wg.Wait()

	got := env.Store.Cart()
	require.Len(t, got, 1)
	assert.Equal(t, n, got[0].Amount)
	assert.Equal(t, got, env.persisted(t))
	assert.Empty(t, env.Notifier.Messages())
}

func TestStore_Summary(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, []models.Product{
		{ID: 1, Price: 10, Amount: 2},
		{ID: 2, Price: 2.5, Amount: 4},
	})

	assert.Equal(t, cart.Summary{Items: 2, Units: 6, Total: 30}, env.Store.Summary())
}

func TestStore_PublishesAndRecordsOutcomes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sink := &eventSink{}
	counter := &outcomeCounter{}
	catalog := newFakeCatalog()
	catalog.setStock(1, 1)

	store, err := cart.New(ctx, cart.Deps{
		Catalog:   catalog,
		Storage:   storage.NewMemory(),
		Notifier:  &notify.Recorder{},
		Publisher: sink,
		Recorder:  counter,
	})
	require.NoError(t, err)

	require.NoError(t, store.AddProduct(ctx, 1))
	require.Error(t, store.AddProduct(ctx, 1))
	require.NoError(t, store.RemoveProduct(ctx, 1))
	require.Error(t, store.RemoveProduct(ctx, 1))

	require.Len(t, sink.events, 2)
	assert.Equal(t, cart.EventProductAdded, sink.events[0].Type)
	assert.Equal(t, 1, sink.events[0].Amount)
	assert.Len(t, sink.events[0].Cart, 1)
	assert.NotEmpty(t, sink.events[0].ID)
	assert.Equal(t, cart.EventProductRemoved, sink.events[1].Type)
	assert.Empty(t, sink.events[1].Cart)

	assert.Equal(t, map[string]int{
		"add/applied":     1,
		"add/rejected":    1,
		"remove/applied":  1,
		"remove/rejected": 1,
	}, counter.counts)
}

func ptr(s string) *string { return &s }

func TestStore_SlowPublishDoesNotBlockReaders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pub := &blockingPublisher{entered: make(chan struct{}, 1), release: make(chan struct{})}

	store, err := cart.New(ctx, cart.Deps{
		Catalog:   newFakeCatalog(),
		Storage:   storage.NewMemory(),
		Notifier:  &notify.Recorder{},
		Publisher: pub,
	})
	require.NoError(t, err)

	added := make(chan error, 1)
	go func() { added <- store.AddProduct(ctx, 1) }()

	select {
	case <-pub.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("publish was never called")
	}

	read := make(chan []models.Product, 1)
	go func() { read <- store.Cart() }()

	select {
	case items := <-read:
		require.Len(t, items, 1)
		assert.Equal(t, 1, items[0].Amount)
	case <-time.After(time.Second):
		t.Fatal("Cart() blocked while an event was being published")
	}
	assert.Equal(t, cart.Summary{Items: 1, Units: 1, Total: 179.9}, store.Summary())

	close(pub.release)
	require.NoError(t, <-added)
}

func TestStore_PublishFailureDoesNotAffectOutcome(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := storage.NewMemory()
	notes := &notify.Recorder{}
	counter := &outcomeCounter{}

	store, err := cart.New(ctx, cart.Deps{
		Catalog:   newFakeCatalog(),
		Storage:   mem,
		Notifier:  notes,
		Publisher: failingPublisher{},
		Recorder:  counter,
	})
	require.NoError(t, err)

	require.NoError(t, store.AddProduct(ctx, 2))
	require.NoError(t, store.UpdateProductAmount(ctx, 2, 3))

	got := store.Cart()
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Amount)

	raw, ok, err := mem.Get(ctx, cart.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	var persisted []models.Product
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, got, persisted)

	assert.Empty(t, notes.Messages())
	assert.Equal(t, map[string]int{"add/applied": 1, "update/applied": 1}, counter.counts)
}
