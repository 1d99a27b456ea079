package services

import (
	"fmt"
	"strings"
	"time"

	"questa/models"
)

// defaultTaskWindow is the advertised completion window for tasks that carry
// neither a task-wide deadline nor a per-user time limit.
const defaultTaskWindow = 7 * 24 * time.Hour

// TimerState is the locally cached per-(user, task) timer snapshot: when the
// user started the task and whether their time budget was already observed to
// have elapsed. It survives reloads in Redis and is cleared only on restart.
type TimerState struct {
	StartedAt *time.Time
	Expired   bool
}

// Resolution is the authoritative display state for one (task, user) pair.
type Resolution struct {
	Status         models.TaskStatus `json:"status"`
	Remaining      string            `json:"remaining"`
	Deadline       *time.Time        `json:"deadline,omitempty"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CanRestart     bool              `json:"can_restart"`
	CompletedCount int               `json:"completed_count"`
	TimedOut       bool              `json:"-"`
}

// StatusResolver derives one status from three possibly-stale signals: the
// task's deadline, the cached local timer state, and the remote status
// record. Now is injectable for tests.
type StatusResolver struct {
	Now func() time.Time
}

func NewStatusResolver() *StatusResolver {
	return &StatusResolver{Now: time.Now}
}

// TaskDeadline computes the task-wide cutoff: the absolute Deadline field
// when set, otherwise CreatedAt + TaskDeadlineHours, otherwise none.
func TaskDeadline(task *models.Task) *time.Time {
	if task.Deadline != nil {
		return task.Deadline
	}
	if task.TaskDeadlineHours > 0 {
		d := task.CreatedAt.Add(time.Duration(task.TaskDeadlineHours) * time.Hour)
		return &d
	}
	return nil
}

// EffectiveDeadline is the earlier of the task-wide deadline and the user's
// personal budget (start + user time limit). Nil when neither applies.
func EffectiveDeadline(task *models.Task, startedAt *time.Time) *time.Time {
	deadline := TaskDeadline(task)
	if startedAt != nil && task.UserTimeLimitHours > 0 {
		personal := startedAt.Add(time.Duration(task.UserTimeLimitHours) * time.Hour)
		if deadline == nil || personal.Before(*deadline) {
			deadline = &personal
		}
	}
	return deadline
}

// Resolve applies the priority order: task-wide deadline first (ended wins
// over everything), then the user's elapsed time budget (expired), then
// whatever the remote record reports, defaulting to available when no record
// exists. completed is the user's approved-submission count for the task.
func (r *StatusResolver) Resolve(task *models.Task, rec *models.TaskStatusRecord, local TimerState, completed int) Resolution {
	now := r.now()

	status := models.StatusAvailable
	if rec != nil && rec.Status != "" {
		status = rec.Status
	}

	startedAt := local.StartedAt
	if startedAt == nil && rec != nil {
		startedAt = rec.StartedAt
	}

	res := Resolution{
		StartedAt:      startedAt,
		CompletedCount: completed,
	}

	taskDeadline := TaskDeadline(task)
	terminal := status == models.StatusApproved || status == models.StatusRejected

	switch {
	case task.Status == "Ended" || (taskDeadline != nil && now.After(*taskDeadline)):
		// A task past its deadline is never actionable, whatever the
		// per-user record claims.
		res.Status = models.StatusEnded
		res.Remaining = "Ended"
		res.Deadline = taskDeadline
		return res

	case !terminal && (local.Expired || budgetElapsed(task, startedAt, now)):
		res.Status = models.StatusExpired
		res.Remaining = "Expired"
		res.Deadline = EffectiveDeadline(task, startedAt)
		res.TimedOut = !local.Expired
		res.CanRestart = completed < task.MaxRestarts+1
		return res

	default:
		res.Status = status
	}

	switch status {
	case models.StatusApproved, models.StatusRejected:
		res.CanRestart = completed < task.MaxRestarts+1
	}

	if startedAt != nil && !terminal && status != models.StatusAvailable {
		res.Deadline = EffectiveDeadline(task, startedAt)
		if res.Deadline != nil {
			res.Remaining = FormatRemaining(res.Deadline.Sub(now))
		}
		return res
	}

	// Not started: advertise time until the task-wide deadline, else the
	// static user time limit, else the default window.
	res.Deadline = taskDeadline
	switch {
	case taskDeadline != nil:
		res.Remaining = FormatRemaining(taskDeadline.Sub(now))
	case task.UserTimeLimitHours > 0:
		res.Remaining = FormatRemaining(time.Duration(task.UserTimeLimitHours) * time.Hour)
	default:
		res.Remaining = FormatRemaining(defaultTaskWindow)
	}
	return res
}

// CanStart reports whether the user may begin the task right now.
func (r *StatusResolver) CanStart(task *models.Task, rec *models.TaskStatusRecord, local TimerState, completed int) (Resolution, bool) {
	res := r.Resolve(task, rec, local, completed)
	return res, res.Status == models.StatusAvailable
}

func (r *StatusResolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func budgetElapsed(task *models.Task, startedAt *time.Time, now time.Time) bool {
	if startedAt == nil || task.UserTimeLimitHours <= 0 {
		return false
	}
	return now.After(startedAt.Add(time.Duration(task.UserTimeLimitHours) * time.Hour))
}

// FormatRemaining renders a duration as its coarsest two non-zero units,
// e.g. "2d 3h", "45m 12s", "8s". Elapsed durations render as "0s"; callers
// substitute "Ended"/"Expired" before display.
func FormatRemaining(d time.Duration) string {
	total := int64(d / time.Second)
	if total <= 0 {
		return "0s"
	}
	units := []struct {
		value int64
		label string
	}{
		{total / 86400, "d"},
		{(total % 86400) / 3600, "h"},
		{(total % 3600) / 60, "m"},
		{total % 60, "s"},
	}
	parts := make([]string, 0, 2)
	for _, u := range units {
		if u.value == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d%s", u.value, u.label))
		if len(parts) == 2 {
			break
		}
	}
	return strings.Join(parts, " ")
}
