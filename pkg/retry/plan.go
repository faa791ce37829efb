package retry

import "time"

// Schedule is one planned attempt.
type Schedule struct {
	AttemptIndex int       `json:"attempt_index"`
	DelayMs      int64     `json:"delay_ms"`
	ScheduledAt  time.Time `json:"scheduled_at"`
}

// Plan lays out every attempt of params under policy, starting at now.
// Attempt 0 runs immediately; later attempts are cumulative.
func Plan(params Params, policy Policy, now time.Time) []Schedule {
	if policy.MaxAttempts <= 0 {
		return nil
	}
	schedule := make([]Schedule, policy.MaxAttempts)
	at := now
	for i := 0; i < policy.MaxAttempts; i++ {
		p := params
		p.AttemptIndex = i

		var delay time.Duration
		if i > 0 {
			delay = ComputeBackoff(p, policy)
		}
		at = at.Add(delay)
		schedule[i] = Schedule{AttemptIndex: i, DelayMs: delay.Milliseconds(), ScheduledAt: at}
	}
	return schedule
}
