package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPlan(t *testing.T) {
	now := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)

	policy := Policy{
		PolicyID:    "default",
		BaseMs:      100,
		MaxMs:       30000,
		MaxJitterMs: 0, // Disable jitter for deterministic checks in this test
		MaxAttempts: 5,
	}
	params := Params{PolicyID: "default", Operation: "snapshot.upsert", Key: "u1/2026-01-30"}

	plan := Plan(params, policy, now)
	if len(plan) != 5 {
		t.Fatalf("Expected 5 items in schedule, got %d", len(plan))
	}
	if plan[0].DelayMs != 0 || !plan[0].ScheduledAt.Equal(now) {
		t.Errorf("Attempt 0 = %+v, want immediate", plan[0])
	}

	// BaseMs * 2^attempt, cumulative.
	want := []int64{0, 200, 400, 800, 1600}
	elapsed := int64(0)
	for i, w := range want {
		if plan[i].DelayMs != w {
			t.Errorf("Attempt %d delayMs = %d, want %d", i, plan[i].DelayMs, w)
		}
		elapsed += w
		if exp := now.Add(time.Duration(elapsed) * time.Millisecond); !plan[i].ScheduledAt.Equal(exp) {
			t.Errorf("Attempt %d time = %v, want %v", i, plan[i].ScheduledAt, exp)
		}
	}
}

func TestComputeBackoff_Cap(t *testing.T) {
	policy := Policy{BaseMs: 100, MaxMs: 500}
	if got := ComputeBackoff(Params{AttemptIndex: 40}, policy); got != 500*time.Millisecond {
		t.Errorf("capped delay = %v, want 500ms", got)
	}
}

func TestJitterDeterministic(t *testing.T) {
	policy := Policy{PolicyID: "p", MaxJitterMs: 1000}
	p := Params{PolicyID: "p", Operation: "op", Key: "k", AttemptIndex: 2}

	j1 := ComputeDeterministicJitter(p, policy)
	j2 := ComputeDeterministicJitter(p, policy)
	if j1 != j2 {
		t.Errorf("jitter not deterministic: %d vs %d", j1, j2)
	}
	if j1 < 0 || j1 >= 1000 {
		t.Errorf("jitter %d out of range", j1)
	}
}

func withInstantSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = orig })
	return &slept
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	slept := withInstantSleep(t)
	calls := 0
	err := Do(context.Background(), Policy{BaseMs: 10, MaxMs: 100, MaxAttempts: 3}, Params{Operation: "op"}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(*slept) != 2 || (*slept)[0] != 20*time.Millisecond || (*slept)[1] != 40*time.Millisecond {
		t.Errorf("slept = %v", *slept)
	}
}

func TestDo_GivesUp(t *testing.T) {
	withInstantSleep(t)
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 2}, Params{Operation: "op"}, func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDo_PermanentStops(t *testing.T) {
	withInstantSleep(t)
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 5}, Params{}, func(context.Context) error {
		calls++
		return Permanent(errors.New("bad request"))
	})
	if !errors.Is(err, ErrPermanent) || calls != 1 {
		t.Errorf("err = %v calls = %d", err, calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	withInstantSleep(t)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 5}, Params{}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("err = %v calls = %d", err, calls)
	}
}
