package models

import "time"

// ImportRun records one archive import.
type ImportRun struct {
	ID        int64
	RunID     string
	Source    string
	Days      int
	Inserted  int
	Skipped   int
	Timestamp time.Time
}

// Total returns the number of records the import saw.
func (r ImportRun) Total() int {
	return r.Inserted + r.Skipped
}
