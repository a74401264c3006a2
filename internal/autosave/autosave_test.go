package autosave

import (
	"context"
	"errors"
	"testing"
	"time"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

type recorder struct {
	clock *FakeClock
	calls []time.Time
	fail  error
}

func (r *recorder) save(ctx context.Context, c domain.Content) (Derived, error) {
	r.calls = append(r.calls, r.clock.Now())
	if r.fail != nil {
		return Derived{}, r.fail
	}
	return Derived{Characters: []string{"BOB"}}, nil
}

func snapshot() domain.Content {
	return domain.Content{Elements: []domain.Element{{ID: "a", Type: grammar.Action, Content: "x"}}}
}

func newSaver(t *testing.T) (*Saver, *recorder, time.Time) {
	t.Helper()
	start := time.Unix(1_700_000_000, 0)
	clk := NewFakeClock(start)
	rec := &recorder{clock: clk}
	return NewSaver(snapshot, rec.save, Options{Clock: clk}), rec, start
}

func TestDebounceCollapsesBurst(t *testing.T) {
	s, rec, start := newSaver(t)
	clk := rec.clock
	s.MarkDirty()
	clk.Advance(200 * time.Millisecond)
	s.MarkDirty()
	clk.Advance(300 * time.Millisecond)
	s.MarkDirty()
	if s.Status() != Dirty {
		t.Fatalf("status = %v, want dirty", s.Status())
	}
	clk.Advance(1999 * time.Millisecond)
	if len(rec.calls) != 0 {
		t.Fatalf("save fired before the quiet period elapsed")
	}
	clk.Advance(time.Millisecond)
	if len(rec.calls) != 1 {
		t.Fatalf("saves = %d, want 1", len(rec.calls))
	}
	if want := start.Add(500*time.Millisecond + DefaultDelay); !rec.calls[0].Equal(want) {
		t.Fatalf("save at %v, want %v", rec.calls[0], want)
	}
	clk.Advance(10 * time.Second)
	if len(rec.calls) != 1 || s.Status() != Clean {
		t.Fatalf("after settle: saves %d status %v", len(rec.calls), s.Status())
	}
}

func TestSaveNowCancelsPending(t *testing.T) {
	s, rec, _ := newSaver(t)
	s.MarkDirty()
	rec.clock.Advance(time.Second)
	if err := s.SaveNow(context.Background()); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}
	if len(rec.calls) != 1 || s.Pending() {
		t.Fatalf("saves %d pending %v", len(rec.calls), s.Pending())
	}
	rec.clock.Advance(5 * time.Second)
	if len(rec.calls) != 1 {
		t.Fatalf("cancelled timer still fired: %d saves", len(rec.calls))
	}
}

func TestFailureLeavesDirty(t *testing.T) {
	s, rec, _ := newSaver(t)
	rec.fail = errors.New("network down")
	s.MarkDirty()
	rec.clock.Advance(DefaultDelay)
	if s.Status() != Dirty || s.Err() == nil {
		t.Fatalf("status %v err %v", s.Status(), s.Err())
	}
	rec.clock.Advance(time.Minute)
	if len(rec.calls) != 1 {
		t.Fatalf("failed save was retried: %d", len(rec.calls))
	}
	rec.fail = nil
	if err := s.SaveNow(context.Background()); err != nil || s.Status() != Clean || s.Err() != nil {
		t.Fatalf("recovery: err %v status %v", err, s.Status())
	}
}

func TestOnSavedReceivesDerived(t *testing.T) {
	start := time.Unix(0, 0)
	clk := NewFakeClock(start)
	rec := &recorder{clock: clk}
	var got Derived
	s := NewSaver(snapshot, rec.save, Options{Clock: clk, Delay: time.Second, OnSaved: func(d Derived) { got = d }})
	s.MarkDirty()
	clk.Advance(time.Second)
	if len(got.Characters) != 1 || got.Characters[0] != "BOB" {
		t.Fatalf("derived = %+v", got)
	}
}

func TestCloseSavesOnlyWhenDirty(t *testing.T) {
	s, rec, _ := newSaver(t)
	if err := s.Close(context.Background()); err != nil || len(rec.calls) != 0 {
		t.Fatalf("clean close saved: %d", len(rec.calls))
	}

	s, rec, _ = newSaver(t)
	s.MarkDirty()
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(rec.calls) != 1 || rec.clock.Pending() != 0 {
		t.Fatalf("close: saves %d pending timers %d", len(rec.calls), rec.clock.Pending())
	}
	s.MarkDirty()
	if s.Pending() {
		t.Fatalf("mutation after close scheduled a save")
	}
	if err := s.SaveNow(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("SaveNow after close = %v", err)
	}
}

func TestSavingStatusDuringSave(t *testing.T) {
	clk := NewFakeClock(time.Unix(0, 0))
	var s *Saver
	var during Status
	s = NewSaver(snapshot, func(ctx context.Context, c domain.Content) (Derived, error) {
		during = s.Status()
		return Derived{}, nil
	}, Options{Clock: clk})
	s.MarkDirty()
	if err := s.SaveNow(context.Background()); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}
	if during != Saving || s.Status() != Clean {
		t.Fatalf("during %v after %v", during, s.Status())
	}
}

func TestTaskFireNowAndCancel(t *testing.T) {
	clk := NewFakeClock(time.Unix(0, 0))
	n := 0
	task := NewTask(clk, func() { n++ })
	task.Schedule(time.Second)
	task.FireNow()
	clk.Advance(2 * time.Second)
	if n != 1 || task.Pending() {
		t.Fatalf("fire now: runs %d pending %v", n, task.Pending())
	}
	task.Schedule(time.Second)
	task.Cancel()
	clk.Advance(2 * time.Second)
	if n != 1 {
		t.Fatalf("cancelled task ran")
	}
}

func TestDocumentChangesDriveSaver(t *testing.T) {
	clk := NewFakeClock(time.Unix(0, 0))
	doc := domain.NewDocument(grammar.Screenplay, domain.Content{})
	saves := 0
	s := NewSaver(doc.Content, func(ctx context.Context, c domain.Content) (Derived, error) {
		saves++
		return Derived{}, nil
	}, Options{Clock: clk})
	doc.OnChange(s.MarkDirty)
	first, _ := doc.At(0)
	for i, text := range []string{"I", "IN", "INT"} {
		doc.SetContent(first.ID, text)
		if i < 2 {
			clk.Advance(100 * time.Millisecond)
		}
	}
	clk.Advance(DefaultDelay)
	if saves != 1 {
		t.Fatalf("saves = %d, want 1", saves)
	}
}

func TestTimerPanicGoesToHandler(t *testing.T) {
	clk := NewFakeClock(time.Unix(0, 0))
	var got any
	s := NewSaver(snapshot, func(context.Context, domain.Content) (Derived, error) {
		panic("disk on fire")
	}, Options{Clock: clk, OnPanic: func(r any) { got = r }})
	s.MarkDirty()
	clk.Advance(DefaultDelay)
	if got != "disk on fire" {
		t.Fatalf("handler got %v", got)
	}
}

func TestFireNowPanicIsNotSwallowed(t *testing.T) {
	task := NewTask(NewFakeClock(time.Unix(0, 0)), func() { panic("now") })
	task.SetPanicHandler(func(any) { t.Fatalf("handler must not run for FireNow") })
	defer func() {
		if r := recover(); r != "now" {
			t.Fatalf("recovered %v", r)
		}
	}()
	task.FireNow()
}
