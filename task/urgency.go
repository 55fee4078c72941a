package task

import "fmt"

// Bucket is the categorical proximity of a deadline to today.
type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketDueToday Bucket = "due_today"
	BucketDueSoon  Bucket = "due_soon"
	BucketDueLater Bucket = "due_later"
)

// soonDays is the largest number of days left that still counts as due soon.
const soonDays = 3

// Urgency is the classification of a deadline relative to a given day.
type Urgency struct {
	Bucket    Bucket `json:"bucket"`
	DaysLeft  int    `json:"days_left"`
	Label     string `json:"label"`
	Indicator string `json:"indicator"`
}

// Classify buckets deadline relative to today.
func Classify(deadline, today Date) Urgency {
	days := today.DaysUntil(deadline)
	u := Urgency{DaysLeft: days}
	switch {
	case days < 0:
		u.Bucket, u.Indicator = BucketOverdue, "red"
		u.Label = fmt.Sprintf("Overdue by %s", plural(-days))
	case days == 0:
		u.Bucket, u.Indicator = BucketDueToday, "orange"
		u.Label = "Due today!"
	case days <= soonDays:
		u.Bucket, u.Indicator = BucketDueSoon, "yellow"
		u.Label = fmt.Sprintf("Due in %s", plural(days))
	default:
		u.Bucket, u.Indicator = BucketDueLater, "green"
		u.Label = fmt.Sprintf("Due in %s", plural(days))
	}
	return u
}

func plural(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
