package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/level"
)

// recorder captures sink reports and notifications in call order
type recorder struct {
	mu       sync.Mutex
	calls    []string
	outcomes []Outcome
	events   []Event
	err      error
}

func (r *recorder) Report(ctx context.Context, outcome Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "report")
	r.outcomes = append(r.outcomes, outcome)
	return r.err
}

func (r *recorder) Notify(sessionID string, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "notify:"+string(event.Type))
	r.events = append(r.events, event)
}

func (r *recorder) snapshot() ([]string, []Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...), append([]Outcome(nil), r.outcomes...)
}

func testLevel(id int, objects [][]int) *level.Level {
	return &level.Level{ID: id, Name: "test", Objects: objects}
}

// hour-long ticks keep the background source quiet; tests drive tick() directly
func quietOptions(r *recorder) Options {
	return Options{TickInterval: time.Hour, Sink: r, Notifier: r}
}

func newTestSession(t *testing.T, objects [][]int, r *recorder) *Session {
	t.Helper()
	sess, err := New("t1", testLevel(1, objects), Player{UserID: "u1", Username: "alice"}, quietOptions(r))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(sess.Close)
	return sess
}

func TestSession_ClearReportsOnceBeforeNotify(t *testing.T) {
	r := &recorder{}
	sess := newTestSession(t, [][]int{{2, 0, 4}}, r)

	sess.tick()
	sess.tick()
	sess.tick()

	ctx := context.Background()
	if _, _, err := sess.Move(ctx, engine.Right); err != nil {
		t.Fatalf("Move: %v", err)
	}
	res, state, err := sess.Move(ctx, engine.Right)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !res.Reached || state.Status != engine.Cleared {
		t.Fatalf("expected cleared after reaching goal, got %+v", res)
	}

	// further input and ticks change nothing
	sess.Move(ctx, engine.Left)
	if sess.tick() {
		t.Error("tick after clear should stop the source")
	}

	calls, outcomes := r.snapshot()
	if len(outcomes) != 1 {
		t.Fatalf("expected exactly one report, got %d", len(outcomes))
	}
	want := Outcome{SessionID: "t1", LevelID: 1, Elapsed: 3, UserID: "u1", Username: "alice", Moves: 2}
	if outcomes[0] != want {
		t.Errorf("expected outcome %+v, got %+v", want, outcomes[0])
	}

	reportAt, clearedAt := -1, -1
	for i, c := range calls {
		switch c {
		case "report":
			reportAt = i
		case "notify:cleared":
			clearedAt = i
		}
	}
	if reportAt < 0 || clearedAt < 0 || reportAt > clearedAt {
		t.Errorf("expected report before cleared notification, got %v", calls)
	}
	if got := sess.State().Elapsed; got != 3 {
		t.Errorf("expected frozen elapsed 3, got %d", got)
	}
}

func TestSession_SinkFailureIsOnlyLogged(t *testing.T) {
	r := &recorder{err: errors.New("backend down")}
	sess := newTestSession(t, [][]int{{2, 4}}, r)

	res, state, err := sess.Move(context.Background(), engine.Right)
	if err != nil {
		t.Fatalf("sink failure must not surface as a move error: %v", err)
	}
	if !res.Reached || state.Status != engine.Cleared {
		t.Errorf("expected cleared state despite sink failure")
	}
	if !sess.Cleared() {
		t.Error("expected session to stay cleared")
	}

	_, outcomes := r.snapshot()
	if len(outcomes) != 1 {
		t.Errorf("expected one report attempt without retry, got %d", len(outcomes))
	}
}

func TestSession_NoSinkConfigured(t *testing.T) {
	sess, err := New("t2", testLevel(2, [][]int{{2, 4}}), Player{}, Options{TickInterval: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close()

	if res, _, _ := sess.Move(context.Background(), engine.Right); !res.Reached {
		t.Error("expected goal reached without a sink")
	}
}

func TestSession_CancelledContextStillReports(t *testing.T) {
	var got context.Context
	sink := SinkFunc(func(ctx context.Context, o Outcome) error {
		got = ctx
		return ctx.Err()
	})
	sess, err := New("t3", testLevel(1, [][]int{{2, 4}}), Player{}, Options{TickInterval: time.Hour, Sink: sink})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sess.Move(ctx, engine.Right)

	if got == nil {
		t.Fatal("expected the sink to be called")
	}
	if got.Err() != nil {
		t.Errorf("expected a live report context, got %v", got.Err())
	}
}

func TestSession_RejectedMoveDoesNotNotify(t *testing.T) {
	r := &recorder{}
	sess := newTestSession(t, [][]int{{2, 1, 4}}, r)

	res, _, err := sess.Move(context.Background(), engine.Right)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if res.Kind != engine.Rejected {
		t.Errorf("expected rejection, got %s", res.Kind)
	}
	if calls, _ := r.snapshot(); len(calls) != 0 {
		t.Errorf("expected no notifications, got %v", calls)
	}
}

func TestSession_CloseStopsTicksAndInput(t *testing.T) {
	r := &recorder{}
	sess := newTestSession(t, [][]int{{2, 0, 4}}, r)

	sess.tick()
	sess.Close()
	sess.Close()

	if sess.tick() {
		t.Error("late tick after close should be a no-op")
	}
	if got := sess.State().Elapsed; got != 1 {
		t.Errorf("expected elapsed to stay 1, got %d", got)
	}
	if _, _, err := sess.Move(context.Background(), engine.Right); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if !sess.Closed() {
		t.Error("expected Closed to report true")
	}
}

func TestSession_TickSource(t *testing.T) {
	r := &recorder{}
	sess, err := New("t4", testLevel(1, [][]int{{2, 0, 4}}), Player{}, Options{
		TickInterval: 5 * time.Millisecond,
		Notifier:     r,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := sess.State().Elapsed; got != 0 {
		t.Fatalf("ticks must not run before Start, got %d", got)
	}

	sess.Start()
	sess.Start()
	deadline := time.Now().Add(2 * time.Second)
	for sess.State().Elapsed < 3 {
		if time.Now().After(deadline) {
			t.Fatal("tick source did not advance elapsed time")
		}
		time.Sleep(5 * time.Millisecond)
	}

	sess.Close()
	frozen := sess.State().Elapsed
	time.Sleep(30 * time.Millisecond)
	if got := sess.State().Elapsed; got != frozen {
		t.Errorf("elapsed changed after close: %d -> %d", frozen, got)
	}
}

func TestSession_TickSourceStopsOnClear(t *testing.T) {
	sess, err := New("t5", testLevel(1, [][]int{{2, 4}}), Player{}, Options{TickInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close()
	sess.Start()

	sess.Move(context.Background(), engine.Right)
	frozen := sess.State().Elapsed
	time.Sleep(30 * time.Millisecond)
	if got := sess.State().Elapsed; got != frozen {
		t.Errorf("elapsed changed after clear: %d -> %d", frozen, got)
	}

	select {
	case <-sess.done:
	case <-time.After(time.Second):
		t.Error("tick goroutine did not exit after clear")
	}
}

func TestSession_ConcurrentInputAndTicks(t *testing.T) {
	r := &recorder{}
	objects := [][]int{
		{1, 1, 1, 1, 1, 1},
		{1, 2, 0, 0, 0, 1},
		{1, 0, 3, 0, 0, 1},
		{1, 0, 0, 0, 0, 1},
		{1, 1, 1, 1, 1, 1},
	}
	sess := newTestSession(t, objects, r)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				sess.Move(context.Background(), engine.Directions[(g+i)%4])
				sess.tick()
			}
		}(g)
	}
	wg.Wait()

	state := sess.State()
	grid, err := engine.DecodeGrid(state.Grid)
	if err != nil {
		t.Fatalf("DecodeGrid: %v", err)
	}
	if grid.Count(engine.Player) != 1 || grid.Count(engine.Block) != 1 {
		t.Errorf("expected one player and one block, got %d and %d",
			grid.Count(engine.Player), grid.Count(engine.Block))
	}
	if grid.At(state.PlayerPos) != engine.Player {
		t.Errorf("player position %v out of sync with grid", state.PlayerPos)
	}
	if state.Elapsed != 200 {
		t.Errorf("expected 200 ticks, got %d", state.Elapsed)
	}
}

func TestNew_NilLevel(t *testing.T) {
	if _, err := New("x", nil, Player{}, Options{}); !errors.Is(err, level.ErrInvalidLevel) {
		t.Errorf("expected ErrInvalidLevel, got %v", err)
	}
}
