package types

import "time"

const secondsPerDay = 24 * 60 * 60

// DateValue converts t to the Date representation (days since 1970-01-01 UTC).
func DateValue(t time.Time) uint16 {
	return uint16(t.UTC().Unix() / secondsPerDay)
}

// DateOf converts a Date value back to midnight UTC.
func DateOf(d uint16) time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// DateTimeValue converts t to the DateTime representation (seconds since the epoch).
func DateTimeValue(t time.Time) uint32 {
	return uint32(t.Unix())
}

// TimeOf converts a DateTime value to a UTC time.
func TimeOf(v uint32) time.Time {
	return time.Unix(int64(v), 0).UTC()
}
