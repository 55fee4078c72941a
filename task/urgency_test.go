package task

import (
	"encoding/json"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	today := NewDate(2025, time.January, 8)
	tests := []struct {
		offset    int
		bucket    Bucket
		label     string
		indicator string
	}{
		{-5, BucketOverdue, "Overdue by 5 days", "red"},
		{-1, BucketOverdue, "Overdue by 1 day", "red"},
		{0, BucketDueToday, "Due today!", "orange"},
		{1, BucketDueSoon, "Due in 1 day", "yellow"},
		{3, BucketDueSoon, "Due in 3 days", "yellow"},
		{4, BucketDueLater, "Due in 4 days", "green"},
		{10, BucketDueLater, "Due in 10 days", "green"},
	}
	for _, tt := range tests {
		u := Classify(today.AddDays(tt.offset), today)
		if u.Bucket != tt.bucket || u.DaysLeft != tt.offset || u.Label != tt.label || u.Indicator != tt.indicator {
			t.Errorf("Classify(today%+d) = %+v, want {%s %d %q %s}", tt.offset, u, tt.bucket, tt.offset, tt.label, tt.indicator)
		}
	}
}

func TestClassify_AcrossMonthAndYear(t *testing.T) {
	u := Classify(NewDate(2025, time.March, 1), NewDate(2025, time.February, 27))
	if u.DaysLeft != 2 || u.Bucket != BucketDueSoon {
		t.Errorf("Feb 27 -> Mar 1 = %+v, want due soon in 2", u)
	}
	u = Classify(NewDate(2024, time.December, 31), NewDate(2025, time.January, 2))
	if u.DaysLeft != -2 || u.Bucket != BucketOverdue {
		t.Errorf("Jan 2 -> Dec 31 = %+v, want overdue by 2", u)
	}
}

func TestClassify_FarDates(t *testing.T) {
	today := NewDate(2025, time.January, 8)
	tests := []struct {
		deadline string
		days     int
		bucket   Bucket
		label    string
	}{
		{"2500-01-08", 173490, BucketDueLater, "Due in 173490 days"},
		{"1700-01-08", -118704, BucketOverdue, "Overdue by 118704 days"},
		{"9999-12-31", 2912800, BucketDueLater, "Due in 2912800 days"},
	}
	for _, tt := range tests {
		d, err := ParseDate(tt.deadline)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tt.deadline, err)
		}
		u := Classify(d, today)
		if u.DaysLeft != tt.days || u.Bucket != tt.bucket || u.Label != tt.label {
			t.Errorf("Classify(%s) = %+v, want {%s %d %q}", tt.deadline, u, tt.bucket, tt.days, tt.label)
		}
	}
}

func TestWriteReportScenario(t *testing.T) {
	store := newTestStore(t)
	today := NewDate(2025, time.January, 8)

	later := sampleTask()
	later.Title = "Plan offsite"
	later.Deadline = NewDate(2025, time.February, 1)
	if _, err := store.Insert(later); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id, err := store.Insert(sampleTask())
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	all, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	view := Query(all, FilterPending, SortDeadline)
	if len(view) != 2 || view[0].ID != id {
		t.Fatalf("pending-by-deadline view = %v, want task %d first", ids(view), id)
	}
	u := Classify(view[0].Deadline, today)
	if u.Bucket != BucketDueSoon || u.DaysLeft != 2 {
		t.Errorf("Classify = %+v, want due soon with 2 days left", u)
	}
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2025, time.January, 10)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `"2025-01-10"` {
		t.Errorf("Marshal = %s", b)
	}
	var got Date
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != d {
		t.Errorf("Unmarshal = %s, want %s", got, d)
	}
	if err := json.Unmarshal([]byte(`"10/01/2025"`), &got); err == nil {
		t.Error("Unmarshal accepted a non ISO date")
	}
}

func TestDateOf_UsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	ts := time.Date(2025, time.January, 8, 23, 30, 0, 0, loc)
	if got := DateOf(ts); got != NewDate(2025, time.January, 8) {
		t.Errorf("DateOf = %s, want 2025-01-08", got)
	}
}
