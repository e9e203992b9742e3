package querycache_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrazmi/taskdeck/sdk/querycache"
)

type item struct {
	ID   string
	Done bool
}

// server is an authoritative list the fetchers read from.
type server struct {
	mu    sync.Mutex
	items []item
	fail  atomic.Bool
}

func (s *server) list(ctx context.Context) ([]item, error) {
	if s.fail.Load() {
		return nil, errors.New("server unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]item(nil), s.items...), nil
}

func (s *server) toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Done = !s.items[i].Done
		}
	}
}

func flip(id string) func(prev []item, ok bool) []item {
	return func(prev []item, ok bool) []item {
		next := make([]item, len(prev))
		copy(next, prev)
		for i := range next {
			if next[i].ID == id {
				next[i].Done = !next[i].Done
			}
		}
		return next
	}
}

func newSeeded(t *testing.T, srv *server) *querycache.Cache {
	t.Helper()
	c := querycache.New(querycache.WithRetryInterval(time.Millisecond))
	t.Cleanup(c.Close)
	if _, err := querycache.FetchQuery(context.Background(), c, tasksKey, srv.list); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return c
}

func TestRunOptimistic_RollbackRestoresSnapshot(t *testing.T) {
	srv := &server{items: []item{{ID: "a"}, {ID: "b", Done: true}}}
	c := newSeeded(t, srv)
	ctx := context.Background()

	snapshot, _ := querycache.GetQueryData[[]item](c, tasksKey)
	want := append([]item(nil), snapshot...)

	// Keep the refetch from masking the rollback.
	srv.fail.Store(true)

	mutateErr := errors.New("toggle failed")
	err := querycache.RunOptimistic(ctx, c, querycache.Optimistic[[]item]{
		Key:    tasksKey,
		Update: flip("a"),
		Mutate: func(ctx context.Context) error {
			during, _ := querycache.GetQueryData[[]item](c, tasksKey)
			if !during[0].Done {
				t.Error("optimistic value not visible during mutation")
			}
			return mutateErr
		},
	})
	if !errors.Is(err, mutateErr) {
		t.Fatalf("expected mutation error, got %v", err)
	}

	got, _ := querycache.GetQueryData[[]item](c, tasksKey)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rollback: got %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(snapshot, want) {
		t.Fatalf("snapshot was mutated: %+v", snapshot)
	}
}

func TestRunOptimistic_CommitConvergesOnServer(t *testing.T) {
	srv := &server{items: []item{{ID: "a"}, {ID: "b"}}}
	c := newSeeded(t, srv)

	err := querycache.RunOptimistic(context.Background(), c, querycache.Optimistic[[]item]{
		Key:    tasksKey,
		Update: flip("b"),
		Mutate: func(ctx context.Context) error {
			srv.toggle("b")
			return nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	got, _ := querycache.GetQueryData[[]item](c, tasksKey)
	want, _ := srv.list(context.Background())
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("cache %+v, server %+v", got, want)
	}
}

func TestBeginTransaction_SerializesPerKey(t *testing.T) {
	srv := &server{items: []item{{ID: "a"}, {ID: "b"}}}
	c := newSeeded(t, srv)
	ctx := context.Background()

	first, err := querycache.BeginTransaction[[]item](ctx, c, tasksKey)
	if err != nil {
		t.Fatalf("begin first: %v", err)
	}
	prev, _ := first.Previous()
	first.Apply(flip("a")(prev, true))

	second := make(chan *querycache.Transaction[[]item])
	go func() {
		txn, err := querycache.BeginTransaction[[]item](ctx, c, tasksKey)
		if err != nil {
			t.Errorf("begin second: %v", err)
		}
		second <- txn
	}()

	select {
	case <-second:
		t.Fatal("second transaction began while the first was open")
	case <-time.After(30 * time.Millisecond):
	}

	first.Commit()
	txn := <-second

	prev, _ = txn.Previous()
	txn.Apply(flip("b")(prev, true))
	txn.Commit()

	got, _ := querycache.GetQueryData[[]item](c, tasksKey)
	want := []item{{ID: "a", Done: true}, {ID: "b", Done: true}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lost update: got %+v", got)
	}
}

func TestBeginTransaction_HonorsContext(t *testing.T) {
	c := querycache.New()
	defer c.Close()

	open, err := querycache.BeginTransaction[[]item](context.Background(), c, tasksKey)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer open.Commit()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := querycache.BeginTransaction[[]item](ctx, c, tasksKey); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestTransaction_RollbackRestoresAbsence(t *testing.T) {
	c := querycache.New()
	defer c.Close()

	txn, err := querycache.BeginTransaction[[]item](context.Background(), c, tasksKey)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, ok := txn.Previous(); ok {
		t.Fatal("expected empty snapshot")
	}
	txn.Apply([]item{{ID: "x"}})
	txn.Rollback()

	if _, ok := c.GetQueryData(tasksKey); ok {
		t.Fatal("expected no cached value after rollback")
	}
	if err := txn.Apply(nil); !errors.Is(err, querycache.ErrTransactionSettled) {
		t.Fatalf("expected ErrTransactionSettled, got %v", err)
	}
}

func TestConcurrentOptimisticToggles(t *testing.T) {
	srv := &server{items: []item{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	c := newSeeded(t, srv)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := querycache.RunOptimistic(context.Background(), c, querycache.Optimistic[[]item]{
				Key:    tasksKey,
				Update: flip(id),
				Mutate: func(ctx context.Context) error {
					time.Sleep(5 * time.Millisecond)
					srv.toggle(id)
					return nil
				},
			})
			if err != nil {
				t.Errorf("toggle %s: %v", id, err)
			}
		}()
	}
	wg.Wait()

	got, _ := querycache.GetQueryData[[]item](c, tasksKey)
	want := []item{{ID: "a", Done: true}, {ID: "b"}, {ID: "c", Done: true}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestInvalidateQueries_KeepsOpenTransactionValue(t *testing.T) {
	srv := &server{items: []item{{ID: "a"}}}
	c := newSeeded(t, srv)
	ctx := context.Background()

	txn, err := querycache.BeginTransaction[[]item](ctx, c, tasksKey)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	prev, _ := txn.Previous()
	txn.Apply(flip("a")(prev, true))

	// Another write lands on the server while the toggle is in flight.
	srv.mu.Lock()
	srv.items = append(srv.items, item{ID: "b"})
	srv.mu.Unlock()

	if err := c.InvalidateQueries(ctx, tasksKey); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	got, _ := querycache.GetQueryData[[]item](c, tasksKey)
	if want := []item{{ID: "a", Done: true}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("optimistic value overwritten during transaction: got %+v", got)
	}
	if !c.IsStale(tasksKey) {
		t.Error("expected the key to be marked stale")
	}

	srv.toggle("a")
	if err := txn.Settle(ctx, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}
	got, _ = querycache.GetQueryData[[]item](c, tasksKey)
	want, _ := srv.list(ctx)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("cache %+v, server %+v", got, want)
	}
}

func TestInvalidateQueries_RollbackThenConverges(t *testing.T) {
	srv := &server{items: []item{{ID: "a"}}}
	c := newSeeded(t, srv)
	ctx := context.Background()

	txn, err := querycache.BeginTransaction[[]item](ctx, c, tasksKey)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	prev, _ := txn.Previous()
	txn.Apply(flip("a")(prev, true))

	srv.mu.Lock()
	srv.items = append(srv.items, item{ID: "b"})
	srv.mu.Unlock()
	if err := c.InvalidateQueries(ctx, tasksKey); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	mutErr := errors.New("toggle rejected")
	if err := txn.Settle(ctx, mutErr); !errors.Is(err, mutErr) {
		t.Fatalf("settle: got %v", err)
	}
	got, _ := querycache.GetQueryData[[]item](c, tasksKey)
	if want := []item{{ID: "a"}, {ID: "b"}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("newer server state lost after rollback: got %+v", got)
	}
}
