package service

import "time"

// IST is the fixed zone used for max-speed timestamps.
var IST = time.FixedZone("IST", 5*3600+30*60)

const (
	legacyDateLayout = "2-1-2006"   // D-M-YYYY, no zero padding
	isoDateLayout    = "2006-01-02" // calendar-sortable alternative
)

// DayStamp renders t's calendar day in the server's local zone using
// either the historical D-M-YYYY format or ISO when the feature flag
// is on.
func DayStamp(t time.Time, iso bool) string {
	if iso {
		return t.Format(isoDateLayout)
	}
	return t.Format(legacyDateLayout)
}

// ClockIST renders t as a 12-hour wall-clock reading in IST, the
// format stored in max_speed.hit_at.
func ClockIST(t time.Time) string {
	return t.In(IST).Format("03:04 PM")
}
