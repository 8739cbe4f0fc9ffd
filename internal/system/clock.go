package system

import "time"

// Clock abstracts time for bounded waits
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// RealClock uses the wall clock
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }
