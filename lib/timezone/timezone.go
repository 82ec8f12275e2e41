package timezone

import (
	"fmt"
	"time"
)

// Location is the clan's timezone. Reporting day boundaries are defined in
// this timezone, not the server's local one, because servers end up deployed
// in arbitrary regions which causes disturbances when manipulating dates
// based on <time.Time>.Year()/Month()/Day()/Hour()/...
var Location = time.FixedZone("UTC+3", 3*60*60)

// SetOffset replaces the clan timezone with a fixed UTC offset in hours.
// Call once at startup, before anything captures Location.
func SetOffset(hours int) {
	Location = time.FixedZone(fmt.Sprintf("UTC%+d", hours), hours*60*60)
}

func Now() time.Time {
	return time.Now().In(Location)
}

// StartOfReportingDay returns the most recent reporting day boundary at or
// before now. The boundary sits at hour:minute in the clan timezone; an
// instant earlier in the day than the boundary belongs to the previous
// reporting day.
func StartOfReportingDay(now time.Time, hour, minute int) time.Time {
	now = now.In(Location)
	boundary := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, Location)
	if now.Before(boundary) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return boundary
}
