package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-botbase/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type stubModelRepository struct {
	mu        sync.Mutex
	rows      map[int64]botCommandView
	nextID    int64
	readCalls int
	readErr   error
}

func newStubModelRepository(rows ...botCommandView) *stubModelRepository {
	repo := &stubModelRepository{rows: map[int64]botCommandView{}}
	for _, row := range rows {
		repo.rows[row.ID] = row
		if row.ID > repo.nextID {
			repo.nextID = row.ID
		}
	}
	return repo
}

func (s *stubModelRepository) Resource() string { return "bot_commands" }

func (s *stubModelRepository) ReadModel(_ context.Context, id int64) (*botCommandView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readCalls++
	if s.readErr != nil {
		return nil, s.readErr
	}
	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *stubModelRepository) CreateModel(_ context.Context, input createBotCommand) (*botCommandView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	row := botCommandView{ID: s.nextID, Name: input.Name, Response: input.Response, Enabled: true}
	s.rows[row.ID] = row
	return &row, nil
}

func (s *stubModelRepository) UpdateModel(_ context.Context, id int64, input updateBotCommand) (*botCommandView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	if input.Response != nil {
		row.Response = *input.Response
	}
	if input.Enabled != nil {
		row.Enabled = *input.Enabled
	}
	s.rows[id] = row
	return &row, nil
}

func (s *stubModelRepository) DeleteModel(_ context.Context, id int64) (*botCommandView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	delete(s.rows, id)
	return &row, nil
}

func (s *stubModelRepository) QueryModel(context.Context, ...SelectCriteria) ([]botCommandView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]botCommandView, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *stubModelRepository) reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCalls
}

func newTestModelCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func botCommandID(row botCommandView) int64 { return row.ID }

func newCachedBotCommands(t *testing.T, base *stubModelRepository) *CachedAccessor[botCommandView, createBotCommand, updateBotCommand] {
	t.Helper()
	cached, err := NewCachedAccessor[botCommandView, createBotCommand, updateBotCommand](base, newTestModelCacheService(t), "", botCommandID)
	if err != nil {
		t.Fatalf("new cached accessor: %v", err)
	}
	return cached
}

func TestCachedAccessor_ReadModel_MissFetchThenHit(t *testing.T) {
	base := newStubModelRepository(botCommandView{ID: 1, Name: "!hi", Response: "hello"})
	cached := newCachedBotCommands(t, base)
	ctx := context.Background()

	first, err := cached.ReadModel(ctx, 1)
	if err != nil || first == nil || first.Name != "!hi" {
		t.Fatalf("first read: %#v, %v", first, err)
	}
	second, err := cached.ReadModel(ctx, 1)
	if err != nil || second == nil || *second != *first {
		t.Fatalf("second read: %#v, %v", second, err)
	}
	if base.reads() != 1 {
		t.Fatalf("expected second read to be a cache hit, base reads=%d", base.reads())
	}
}

func TestCachedAccessor_MissingRowsAreNotCached(t *testing.T) {
	base := newStubModelRepository()
	cached := newCachedBotCommands(t, base)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		model, err := cached.ReadModel(ctx, 7)
		if err != nil || model != nil {
			t.Fatalf("expected nil, nil for missing row, got %#v, %v", model, err)
		}
	}
	if base.reads() != 2 {
		t.Fatalf("expected every miss to reach the base, base reads=%d", base.reads())
	}
}

func TestCachedAccessor_ReadModelPropagatesErrors(t *testing.T) {
	base := newStubModelRepository(botCommandView{ID: 1})
	base.readErr = errors.New("store offline")
	cached := newCachedBotCommands(t, base)

	if _, err := cached.ReadModel(context.Background(), 1); err == nil {
		t.Fatalf("expected base error to propagate")
	}
}

func TestCachedAccessor_UpdateInvalidates(t *testing.T) {
	base := newStubModelRepository(botCommandView{ID: 1, Name: "!hi", Response: "hello"})
	cached := newCachedBotCommands(t, base)
	ctx := context.Background()

	if _, err := cached.ReadModel(ctx, 1); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	response := "hey"
	if _, err := cached.UpdateModel(ctx, 1, updateBotCommand{Response: &response}); err != nil {
		t.Fatalf("update: %v", err)
	}
	read, err := cached.ReadModel(ctx, 1)
	if err != nil || read == nil || read.Response != "hey" {
		t.Fatalf("expected fresh row after update, got %#v, %v", read, err)
	}
	if base.reads() != 2 {
		t.Fatalf("expected update to invalidate cached row, base reads=%d", base.reads())
	}
}

func TestCachedAccessor_DeleteInvalidates(t *testing.T) {
	base := newStubModelRepository(botCommandView{ID: 1, Name: "!bye"})
	cached := newCachedBotCommands(t, base)
	ctx := context.Background()

	if _, err := cached.ReadModel(ctx, 1); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	deleted, err := cached.DeleteModel(ctx, 1)
	if err != nil || deleted == nil || deleted.Name != "!bye" {
		t.Fatalf("delete: %#v, %v", deleted, err)
	}
	read, err := cached.ReadModel(ctx, 1)
	if err != nil || read != nil {
		t.Fatalf("expected deleted row to be gone, got %#v, %v", read, err)
	}
}

func TestCachedAccessor_CreateInvalidatesNewID(t *testing.T) {
	base := newStubModelRepository()
	cached := newCachedBotCommands(t, base)
	ctx := context.Background()

	if model, _ := cached.ReadModel(ctx, 1); model != nil {
		t.Fatalf("expected empty store")
	}
	created, err := cached.CreateModel(ctx, createBotCommand{Name: "!new", Response: "fresh"})
	if err != nil || created == nil || created.ID != 1 {
		t.Fatalf("create: %#v, %v", created, err)
	}
	read, err := cached.ReadModel(ctx, 1)
	if err != nil || read == nil || read.Name != "!new" {
		t.Fatalf("expected created row, got %#v, %v", read, err)
	}
}

func TestCachedAccessor_QueryModelPassesThrough(t *testing.T) {
	base := newStubModelRepository(botCommandView{ID: 1}, botCommandView{ID: 2})
	cached := newCachedBotCommands(t, base)
	rows, err := cached.QueryModel(context.Background())
	if err != nil || len(rows) != 2 {
		t.Fatalf("query: %#v, %v", rows, err)
	}
	if base.reads() != 0 {
		t.Fatalf("expected query not to use read model")
	}
}

func TestNewCachedAccessor_Validation(t *testing.T) {
	cacheService := newTestModelCacheService(t)
	if _, err := NewCachedAccessor[botCommandView, createBotCommand, updateBotCommand](nil, cacheService, "x", nil); !core.HasTextCode(err, core.ErrorNotConfigured) {
		t.Fatalf("expected not configured for nil base, got %v", err)
	}
	base := newStubModelRepository()
	if _, err := NewCachedAccessor[botCommandView, createBotCommand, updateBotCommand](base, nil, "x", nil); !core.HasTextCode(err, core.ErrorNotConfigured) {
		t.Fatalf("expected not configured for nil cache, got %v", err)
	}
	cached, err := NewCachedAccessor[botCommandView, createBotCommand, updateBotCommand](base, cacheService, "  ", nil)
	if err != nil {
		t.Fatalf("expected namespace fallback to resource, got %v", err)
	}
	if cached.namespace != "bot_commands" {
		t.Fatalf("expected resource namespace, got %q", cached.namespace)
	}
}

func TestModelCacheKey(t *testing.T) {
	if got := ModelCacheKey(" bot commands ", 42); got != "go-botbase::model::v1::bot%20commands::42" {
		t.Fatalf("unexpected cache key %q", got)
	}
}

func TestCachedAccessor_WithSQLAccessor(t *testing.T) {
	accessor, db := newBotCommandAccessor(t)
	cached, err := NewCachedAccessor[botCommandView, createBotCommand, updateBotCommand](accessor, newTestModelCacheService(t), "", botCommandID)
	if err != nil {
		t.Fatalf("new cached accessor: %v", err)
	}
	ctx := context.Background()

	created, err := cached.CreateModel(ctx, createBotCommand{Name: "!cached", Response: "one"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := cached.ReadModel(ctx, created.ID); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if _, err := db.NewUpdate().Model((*botCommand)(nil)).Set("response = ?", "changed behind the cache").Where("id = ?", created.ID).Exec(ctx); err != nil {
		t.Fatalf("direct update: %v", err)
	}
	read, err := cached.ReadModel(ctx, created.ID)
	if err != nil || read == nil || read.Response != "one" {
		t.Fatalf("expected cached projection, got %#v, %v", read, err)
	}
}
