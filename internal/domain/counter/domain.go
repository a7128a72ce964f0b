package counter

import "time"

const dayLayout = "2006-01-02"

// Day is a calendar date in the service reference timezone, formatted YYYY-MM-DD.
type Day string

func DayOf(t time.Time) Day { return Day(t.Format(dayLayout)) }

func (d Day) String() string { return string(d) }

func (d Day) Valid() bool {
	_, err := time.Parse(dayLayout, string(d))
	return err == nil
}

type Counter struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Day       Day       `json:"day"`
	PushCount int       `json:"push_count"`
	JobDone   bool      `json:"is_job_done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoalMet reports whether the tally reached goal. A nil counter counts as zero pushes.
func (c *Counter) GoalMet(goal int) bool {
	if c == nil {
		return false
	}
	return c.PushCount >= goal
}

func (c *Counter) Done() bool { return c != nil && c.JobDone }

func (c *Counter) Count() int {
	if c == nil {
		return 0
	}
	return c.PushCount
}
