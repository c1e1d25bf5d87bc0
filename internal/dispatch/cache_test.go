package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"standardizer/internal/standards"
)

type fakeKeeper struct {
	err   error
	calls int
}

func (f *fakeKeeper) KeepAlive(_ context.Context, _ string) error {
	f.calls++
	return f.err
}

func testCatalog() *standards.Catalog {
	return standards.New(map[string]standards.CharacteristicSet{
		"26.20": {
			"Процессор": {Values: []string{"Intel Core i5"}, Units: []string{}},
		},
	})
}

func TestCacheGetOrCreate(t *testing.T) {
	cache := NewPromptContextCache(testCatalog(), &fakeKeeper{}, slog.Default())

	rendered, ok := cache.GetOrCreate("26.20")
	if !ok {
		t.Fatal("expected context for known group")
	}
	if rendered == "" {
		t.Fatal("rendered context must not be empty")
	}

	// Повторный вызов возвращает тот же текст: условие
	// переиспользования кэша на стороне API.
	again, ok := cache.GetOrCreate("26.20")
	if !ok || again != rendered {
		t.Error("rendered context must be stable across calls")
	}

	if _, ok := cache.GetOrCreate("99.99"); ok {
		t.Error("unknown group must not produce a context")
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 cached context, got %d", cache.Len())
	}
}

func TestCacheRefreshIfStale(t *testing.T) {
	keeper := &fakeKeeper{}
	cache := NewPromptContextCache(testCatalog(), keeper, slog.Default())

	now := time.Now()
	cache.now = func() time.Time { return now }

	if _, ok := cache.GetOrCreate("26.20"); !ok {
		t.Fatal("GetOrCreate failed")
	}

	// Свежий контекст не прогревается.
	cache.RefreshIfStale(context.Background(), "26.20")
	if keeper.calls != 0 {
		t.Fatalf("fresh context must not be refreshed, got %d calls", keeper.calls)
	}

	// Спустя порог — один keep-alive.
	now = now.Add(refreshInterval + time.Second)
	cache.RefreshIfStale(context.Background(), "26.20")
	if keeper.calls != 1 {
		t.Fatalf("expected 1 keep-alive, got %d", keeper.calls)
	}

	// Сразу после прогрева контекст снова свежий.
	cache.RefreshIfStale(context.Background(), "26.20")
	if keeper.calls != 1 {
		t.Errorf("refreshed context must not be refreshed again, got %d calls", keeper.calls)
	}
}

func TestCacheRefreshFailureSwallowed(t *testing.T) {
	keeper := &fakeKeeper{err: errors.New("api down")}
	cache := NewPromptContextCache(testCatalog(), keeper, slog.Default())

	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.GetOrCreate("26.20")
	now = now.Add(refreshInterval + time.Second)

	// Ошибка прогрева не паникует и не возвращается.
	cache.RefreshIfStale(context.Background(), "26.20")
	if keeper.calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", keeper.calls)
	}

	// Неудачный прогрев не сдвигает отметку: следующая проверка
	// пробует снова.
	cache.RefreshIfStale(context.Background(), "26.20")
	if keeper.calls != 2 {
		t.Errorf("failed refresh must be retried, got %d calls", keeper.calls)
	}
}

func TestCacheRefreshUnknownGroup(t *testing.T) {
	keeper := &fakeKeeper{}
	cache := NewPromptContextCache(testCatalog(), keeper, slog.Default())

	cache.RefreshIfStale(context.Background(), "99.99")
	if keeper.calls != 0 {
		t.Error("refresh of a missing context must be a no-op")
	}
}
