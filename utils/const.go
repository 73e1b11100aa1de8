package utils

import "time"

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)
