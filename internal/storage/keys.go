package storage

import (
	"fmt"
	"time"
)

const (
	CategoryOriginal  = "original"
	CategoryProcessed = "processed"
	CategoryPackage   = "package"
)

// MakeKey formats <date>_<HH-MM-SS>_<mmmZ>_<category>_<filename> in UTC,
// e.g. 2024-05-01_10-22-03_000Z_processed_photo.png.
func MakeKey(now time.Time, filename, category string) string {
	now = now.UTC()
	return fmt.Sprintf(
		"%s_%03dZ_%s_%s",
		now.Format("2006-01-02_15-04-05"),
		now.Nanosecond()/int(time.Millisecond),
		category,
		filename,
	)
}
