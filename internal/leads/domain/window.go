package domain

import "time"

// LocalHour derives the lead's wall-clock hour from its fixed UTC offset.
// Daylight saving is not modelled; the offset is stored per lead.
func LocalHour(now time.Time, utcOffsetHours int) int {
	return ((now.UTC().Hour()+utcOffsetHours)%24 + 24) % 24
}

// CallingWindow is a half-open range of local hours, [StartHour, EndHour).
type CallingWindow struct {
	StartHour int
	EndHour   int
}

// Contains reports whether localHour falls inside the window.
func (w CallingWindow) Contains(localHour int) bool {
	return w.StartHour <= localHour && localHour < w.EndHour
}

// Allows reports whether a lead at utcOffsetHours may be called at now.
func (w CallingWindow) Allows(now time.Time, utcOffsetHours int) bool {
	return w.Contains(LocalHour(now, utcOffsetHours))
}
