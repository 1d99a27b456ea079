package services

import (
	"testing"
	"time"

	"questa/models"
)

func fixedResolver(now time.Time) *StatusResolver {
	return &StatusResolver{Now: func() time.Time { return now }}
}

func TestResolve_DeadlinePassedOverridesInProgress(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := &models.Task{Status: "Active", TaskDeadlineHours: 1, CreatedAt: created}
	started := created.Add(30 * time.Minute)
	rec := &models.TaskStatusRecord{Status: models.StatusInProgress, StartedAt: &started}

	r := fixedResolver(created.Add(2 * time.Hour))
	res := r.Resolve(task, rec, TimerState{StartedAt: &started}, 0)

	if res.Status != models.StatusEnded {
		t.Fatalf("status = %q, want %q", res.Status, models.StatusEnded)
	}
	if res.Remaining != "Ended" {
		t.Errorf("remaining = %q, want Ended", res.Remaining)
	}
	if res.CanRestart {
		t.Error("ended tasks must not be restartable")
	}
}

func TestResolve_EndedTaskStatusWins(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := &models.Task{Status: "Ended", CreatedAt: now.Add(-time.Hour)}
	rec := &models.TaskStatusRecord{Status: models.StatusPendingReview}

	res := fixedResolver(now).Resolve(task, rec, TimerState{}, 0)
	if res.Status != models.StatusEnded {
		t.Fatalf("status = %q, want %q", res.Status, models.StatusEnded)
	}
}

func TestResolve_NoRecordDefaultsAvailable(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	deadline := now.Add(49 * time.Hour)
	task := &models.Task{Status: "Active", Deadline: &deadline, CreatedAt: now.Add(-time.Hour)}

	res := fixedResolver(now).Resolve(task, nil, TimerState{}, 0)
	if res.Status != models.StatusAvailable {
		t.Fatalf("status = %q, want %q", res.Status, models.StatusAvailable)
	}
	if res.Remaining != "2d 1h" {
		t.Errorf("remaining = %q, want 2d 1h", res.Remaining)
	}
}

func TestResolve_BudgetElapsedMarksExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := &models.Task{Status: "Active", UserTimeLimitHours: 2, MaxRestarts: 1, CreatedAt: now.Add(-24 * time.Hour)}
	started := now.Add(-3 * time.Hour)
	rec := &models.TaskStatusRecord{Status: models.StatusInProgress, StartedAt: &started}

	res := fixedResolver(now).Resolve(task, rec, TimerState{StartedAt: &started}, 0)
	if res.Status != models.StatusExpired {
		t.Fatalf("status = %q, want %q", res.Status, models.StatusExpired)
	}
	if !res.TimedOut {
		t.Error("freshly observed overrun should carry the timed-out flag")
	}
	if !res.CanRestart {
		t.Error("expired with 0 of 2 allowed completions should be restartable")
	}
}

func TestResolve_CachedExpiredFlagSticks(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := &models.Task{Status: "Active", UserTimeLimitHours: 2, CreatedAt: now.Add(-24 * time.Hour)}
	rec := &models.TaskStatusRecord{Status: models.StatusInProgress}

	res := fixedResolver(now).Resolve(task, rec, TimerState{Expired: true}, 0)
	if res.Status != models.StatusExpired {
		t.Fatalf("status = %q, want %q", res.Status, models.StatusExpired)
	}
	if res.TimedOut {
		t.Error("an already-cached expiry should not be re-flagged for persistence")
	}
}

func TestResolve_TerminalStatusIgnoresExpiredOverlay(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := &models.Task{Status: "Active", UserTimeLimitHours: 1, MaxRestarts: 2, CreatedAt: now.Add(-24 * time.Hour)}
	started := now.Add(-10 * time.Hour)
	rec := &models.TaskStatusRecord{Status: models.StatusApproved, StartedAt: &started}

	res := fixedResolver(now).Resolve(task, rec, TimerState{StartedAt: &started, Expired: true}, 1)
	if res.Status != models.StatusApproved {
		t.Fatalf("status = %q, want %q", res.Status, models.StatusApproved)
	}
	if !res.CanRestart {
		t.Error("approved with 1 of 3 allowed completions should be restartable")
	}
}

func TestResolve_RestartExhausted(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := &models.Task{Status: "Active", MaxRestarts: 1, CreatedAt: now.Add(-time.Hour)}
	rec := &models.TaskStatusRecord{Status: models.StatusApproved}

	// max_restarts=1 allows 2 completions total
	res := fixedResolver(now).Resolve(task, rec, TimerState{}, 2)
	if res.CanRestart {
		t.Error("2 completions with max_restarts=1 should not be restartable")
	}
}

func TestResolve_InProgressCountdownUsesEffectiveDeadline(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	deadline := now.Add(72 * time.Hour)
	task := &models.Task{Status: "Active", Deadline: &deadline, UserTimeLimitHours: 4, CreatedAt: now.Add(-time.Hour)}
	started := now.Add(-1 * time.Hour)
	rec := &models.TaskStatusRecord{Status: models.StatusInProgress, StartedAt: &started}

	res := fixedResolver(now).Resolve(task, rec, TimerState{StartedAt: &started}, 0)
	if res.Status != models.StatusInProgress {
		t.Fatalf("status = %q, want %q", res.Status, models.StatusInProgress)
	}
	// personal budget (3h left) is tighter than the task deadline
	if res.Remaining != "3h" {
		t.Errorf("remaining = %q, want 3h", res.Remaining)
	}
}

func TestResolve_UnstartedFallbackWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	limited := &models.Task{Status: "Active", UserTimeLimitHours: 5, CreatedAt: now}
	res := fixedResolver(now).Resolve(limited, nil, TimerState{}, 0)
	if res.Remaining != "5h" {
		t.Errorf("static limit remaining = %q, want 5h", res.Remaining)
	}

	open := &models.Task{Status: "Active", CreatedAt: now}
	res = fixedResolver(now).Resolve(open, nil, TimerState{}, 0)
	if res.Remaining != "7d" {
		t.Errorf("default window remaining = %q, want 7d", res.Remaining)
	}
}

func TestEffectiveDeadline_PicksEarlier(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	task := &models.Task{TaskDeadlineHours: 48, UserTimeLimitHours: 2, CreatedAt: created}

	started := created.Add(time.Hour)
	got := EffectiveDeadline(task, &started)
	want := started.Add(2 * time.Hour)
	if got == nil || !got.Equal(want) {
		t.Fatalf("deadline = %v, want %v", got, want)
	}

	// near the task cutoff the task-wide deadline wins
	lateStart := created.Add(47 * time.Hour)
	got = EffectiveDeadline(task, &lateStart)
	want = created.Add(48 * time.Hour)
	if got == nil || !got.Equal(want) {
		t.Fatalf("deadline = %v, want %v", got, want)
	}

	if EffectiveDeadline(&models.Task{CreatedAt: created}, nil) != nil {
		t.Error("no deadline and no limit should yield nil")
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{50*time.Hour + 30*time.Minute, "2d 2h"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "3h 4m"},
		{45*time.Minute + 12*time.Second, "45m 12s"},
		{8 * time.Second, "8s"},
		{24 * time.Hour, "1d"},
		{0, "0s"},
		{-time.Minute, "0s"},
	}
	for _, tc := range cases {
		if got := FormatRemaining(tc.d); got != tc.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
