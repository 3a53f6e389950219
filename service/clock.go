package service

import "time"

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// NewSystemClock returns a Clock backed by the wall clock
func NewSystemClock() Clock {
	return systemClock{}
}
