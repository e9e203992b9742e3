package querycache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrazmi/taskdeck/sdk/querycache"
)

var tasksKey = querycache.Key{"tasks"}

func TestKey_HasPrefix(t *testing.T) {
	k := querycache.Key{"tasks", "abc"}
	if !k.HasPrefix(querycache.Key{"tasks"}) {
		t.Error("expected tasks prefix")
	}
	if !k.HasPrefix(nil) {
		t.Error("empty prefix matches everything")
	}
	if k.HasPrefix(querycache.Key{"session"}) {
		t.Error("unexpected session prefix")
	}
	if (querycache.Key{"tasks"}).HasPrefix(k) {
		t.Error("longer prefix cannot match")
	}
	if got := k.String(); got != `["tasks","abc"]` {
		t.Errorf("String: got %s", got)
	}
}

func TestFetch_CachesWhileFresh(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := querycache.New(
		querycache.WithStaleTime(5*time.Second),
		querycache.WithClock(func() time.Time { return now }),
	)
	defer c.Close()

	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	ctx := context.Background()
	for range 3 {
		v, err := querycache.FetchQuery(ctx, c, tasksKey, fetch)
		if err != nil || v != 1 {
			t.Fatalf("fetch: got %d %v", v, err)
		}
	}

	now = now.Add(6 * time.Second)
	if !c.IsStale(tasksKey) {
		t.Fatal("expected key to be stale after stale time")
	}
	v, err := querycache.FetchQuery(ctx, c, tasksKey, fetch)
	if err != nil || v != 2 {
		t.Fatalf("refetch: got %d %v", v, err)
	}
}

func TestFetch_SharesConcurrentFetch(t *testing.T) {
	c := querycache.New(querycache.WithStaleTime(time.Minute))
	defer c.Close()

	gate := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-gate
		return "tasks", nil
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := querycache.FetchQuery(context.Background(), c, tasksKey, fetch)
			if err != nil || v != "tasks" {
				t.Errorf("fetch: got %q %v", v, err)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one shared fetch, got %d", got)
	}
}

func TestFetch_RetriesReadOnce(t *testing.T) {
	tests := []struct {
		name      string
		failures  int32
		wantErr   bool
		wantCalls int32
	}{
		{"succeeds on retry", 1, false, 2},
		{"gives up after one retry", 5, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := querycache.New(querycache.WithRetryInterval(time.Millisecond))
			defer c.Close()

			var calls atomic.Int32
			fetch := func(ctx context.Context) (string, error) {
				if calls.Add(1) <= tt.failures {
					return "", errors.New("flaky")
				}
				return "ok", nil
			}

			_, err := querycache.FetchQuery(context.Background(), c, tasksKey, fetch)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Fatalf("calls: got %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestFetch_SkipsRetryForFinalErrors(t *testing.T) {
	errRejected := errors.New("session rejected")
	c := querycache.New(
		querycache.WithRetryInterval(time.Millisecond),
		querycache.WithRetryable(func(err error) bool { return !errors.Is(err, errRejected) }),
	)
	defer c.Close()

	var calls atomic.Int32
	_, err := querycache.FetchQuery(context.Background(), c, tasksKey, func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", errRejected
	})
	if !errors.Is(err, errRejected) {
		t.Fatalf("err: got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls: got %d, want 1", got)
	}
}

func TestCancelQueries_DiscardsLateResult(t *testing.T) {
	now := time.Now()
	c := querycache.New(querycache.WithClock(func() time.Time { return now }))
	defer c.Close()

	c.SetQueryData(tasksKey, "cached")
	now = now.Add(time.Minute)

	started := make(chan struct{})
	gate := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		close(started)
		<-gate
		return "late server value", nil
	}

	done := make(chan string)
	go func() {
		v, err := querycache.FetchQuery(context.Background(), c, tasksKey, fetch)
		if err != nil {
			t.Errorf("fetch: %v", err)
		}
		done <- v
	}()

	<-started
	c.CancelQueries(tasksKey)
	c.SetQueryData(tasksKey, "optimistic")
	close(gate)

	if v := <-done; v != "optimistic" {
		t.Errorf("waiting caller: got %q", v)
	}
	if v, _ := querycache.GetQueryData[string](c, tasksKey); v != "optimistic" {
		t.Fatalf("cache overwritten by cancelled fetch: %q", v)
	}
}

func TestCancelQueries_NoDataReturnsCancelled(t *testing.T) {
	c := querycache.New()
	defer c.Close()

	started := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}

	errc := make(chan error)
	go func() {
		_, err := querycache.FetchQuery(context.Background(), c, tasksKey, fetch)
		errc <- err
	}()

	<-started
	c.CancelQueries(querycache.Key{})
	if err := <-errc; !errors.Is(err, querycache.ErrQueryCancelled) {
		t.Fatalf("expected ErrQueryCancelled, got %v", err)
	}
}

func TestInvalidateQueries_RefetchesPrefix(t *testing.T) {
	c := querycache.New(querycache.WithStaleTime(time.Hour))
	defer c.Close()
	ctx := context.Background()

	counts := map[string]*atomic.Int32{"tasks": {}, "task": {}, "session": {}}
	fetcher := func(name string) func(context.Context) (int, error) {
		return func(context.Context) (int, error) {
			return int(counts[name].Add(1)), nil
		}
	}

	querycache.FetchQuery(ctx, c, tasksKey, fetcher("tasks"))
	querycache.FetchQuery(ctx, c, querycache.Key{"tasks", "a"}, fetcher("task"))
	querycache.FetchQuery(ctx, c, querycache.Key{"session"}, fetcher("session"))

	if err := c.InvalidateQueries(ctx, tasksKey); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if counts["tasks"].Load() != 2 || counts["task"].Load() != 2 {
		t.Errorf("expected tasks keys refetched, got %d %d", counts["tasks"].Load(), counts["task"].Load())
	}
	if counts["session"].Load() != 1 {
		t.Errorf("session should not refetch, got %d", counts["session"].Load())
	}
	if v, _ := querycache.GetQueryData[int](c, tasksKey); v != 2 {
		t.Errorf("cached tasks: got %d", v)
	}
}

func TestRemoveQuery_SkipsInvalidation(t *testing.T) {
	c := querycache.New()
	defer c.Close()
	ctx := context.Background()

	var calls atomic.Int32
	querycache.FetchQuery(ctx, c, querycache.Key{"tasks", "gone"}, func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	})

	c.RemoveQuery(querycache.Key{"tasks", "gone"})
	if err := c.InvalidateQueries(ctx, tasksKey); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("removed key was refetched %d times", calls.Load()-1)
	}
	if _, ok := c.GetQueryData(querycache.Key{"tasks", "gone"}); ok {
		t.Fatal("expected no cached value")
	}
}

func TestClose(t *testing.T) {
	c := querycache.New()
	c.Close()

	_, err := c.Fetch(context.Background(), tasksKey, func(context.Context) (any, error) { return 1, nil })
	if !errors.Is(err, querycache.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
