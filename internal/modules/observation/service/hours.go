package service

import (
	"fmt"
	"time"

	"stationdesk-server/internal/apperr"
)

// SynopticHours are the UTC hour codes at which a station reports.
var SynopticHours = []string{"00", "03", "06", "09", "12", "15", "18", "21"}

func IsSynopticHour(hour string) bool {
	for _, h := range SynopticHours {
		if h == hour {
			return true
		}
	}
	return false
}

// HourToUTC returns the UTC timestamp of hour ("00" to "23") on now's UTC
// calendar date, with minutes and seconds zeroed.
func HourToUTC(hour string, now time.Time) (time.Time, error) {
	if len(hour) != 2 || hour[0] < '0' || hour[0] > '9' || hour[1] < '0' || hour[1] > '9' {
		return time.Time{}, apperr.InvalidInput(fmt.Sprintf("invalid hour %q (expected two digits 00-23)", hour))
	}
	h := int(hour[0]-'0')*10 + int(hour[1]-'0')
	if h > 23 {
		return time.Time{}, apperr.InvalidInput(fmt.Sprintf("invalid hour %q (expected two digits 00-23)", hour))
	}
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), h, 0, 0, 0, time.UTC), nil
}

// UTCToHour is the inverse of HourToUTC.
func UTCToHour(t time.Time) string {
	return fmt.Sprintf("%02d", t.UTC().Hour())
}

// synopticSlot validates hour as a synoptic hour and returns today's and
// yesterday's timestamps for it.
func synopticSlot(hour string, now time.Time) (today, yesterday time.Time, err error) {
	if !IsSynopticHour(hour) {
		return time.Time{}, time.Time{}, apperr.InvalidInput(fmt.Sprintf("invalid hour %q (expected one of 00,03,06,09,12,15,18,21)", hour))
	}
	today, err = HourToUTC(hour, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return today, today.Add(-24 * time.Hour), nil
}
