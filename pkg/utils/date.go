package utils

import (
	"fmt"
	"log"
	"time"
)

func GetWibTimeLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return loc
}

func TimeNowWIB() time.Time {
	return time.Now().In(GetWibTimeLocation())
}

func TimeToWIB(t time.Time) time.Time {
	return t.In(GetWibTimeLocation())
}

// TruncateToDay normalizes a timestamp to midnight WIB. Daily candles are
// keyed on this value.
func TruncateToDay(t time.Time) time.Time {
	wib := t.In(GetWibTimeLocation())
	return time.Date(wib.Year(), wib.Month(), wib.Day(), 0, 0, 0, 0, wib.Location())
}

func PrettyDate(date time.Time) string {
	return fmt.Sprintf("%02d %s %d - %02d:%02d WIB",
		date.Day(),
		GetIndonesianMonth(date.Month()),
		date.Year(),
		date.Hour(),
		date.Minute(),
	)
}

func GetIndonesianMonth(month time.Month) string {
	months := map[time.Month]string{
		time.January:   "Januari",
		time.February:  "Februari",
		time.March:     "Maret",
		time.April:     "April",
		time.May:       "Mei",
		time.June:      "Juni",
		time.July:      "Juli",
		time.August:    "Agustus",
		time.September: "September",
		time.October:   "Oktober",
		time.November:  "November",
		time.December:  "Desember",
	}
	return months[month]
}
