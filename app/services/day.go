package services

import "time"

// BusinessDayIn formats an instant as the local calendar date used to
// partition tokens and attendance records. Every component that needs
// "today" must derive it here so date boundaries never disagree.
func BusinessDayIn(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
