package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// minimal containers ship without tzdata, IST has no DST
		Location = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// the portal reports dates in IST, so date arithmetic on snapshots
// (start of day, etc.) is done in that zone regardless of where we run.
func Now() time.Time {
	return time.Now().In(Location)
}

// StartOfDay returns midnight of the day `t` falls on, in Location.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}
