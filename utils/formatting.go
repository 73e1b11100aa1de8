package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

func EmbedGUID(guid string) string {
	var sb strings.Builder
	sb.WriteString(" (")
	sb.WriteString(guid)
	sb.WriteString(")")
	return sb.String()
}

// ToDuration splits d into weeks, days, hours, minutes and seconds.
func ToDuration(d time.Duration) *duration.Duration {
	result := &duration.Duration{}
	if d < 0 {
		result.Negative = true
		d = -d
	}

	result.Weeks = float64(d / Week)
	d %= Week
	result.Days = float64(d / Day)
	d %= Day
	result.Hours = float64(d / time.Hour)
	d %= time.Hour
	result.Minutes = float64(d / time.Minute)
	d %= time.Minute
	result.Seconds = float64(d / time.Second)

	return result
}

func HumanizeDuration(d *duration.Duration) string {
	var sb strings.Builder

	if d.Years > 0 {
		sb.WriteString(strconv.Itoa(int(d.Years)))
		sb.WriteString("y")
	}

	if d.Months > 0 {
		sb.WriteString(strconv.Itoa(int(d.Months)))
		sb.WriteString("M")
	}

	if d.Weeks > 0 {
		sb.WriteString(strconv.Itoa(int(d.Weeks)))
		sb.WriteString("w")
	}

	if d.Days > 0 {
		sb.WriteString(strconv.Itoa(int(d.Days)))
		sb.WriteString("d")
	}

	if d.Hours > 0 {
		sb.WriteString(strconv.Itoa(int(d.Hours)))
		sb.WriteString("h")
	}

	if d.Minutes > 0 {
		sb.WriteString(strconv.Itoa(int(d.Minutes)))
		sb.WriteString("m")
	}

	if d.Seconds > 0 {
		sb.WriteString(strconv.Itoa(int(d.Seconds)))
		sb.WriteString("s")
	}

	if sb.Len() == 0 {
		return "0s"
	}

	return sb.String()
}
