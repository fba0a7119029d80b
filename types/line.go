package types

import "time"

// Line is one record read from the input file
type Line struct {
	Number int64 // 1-based line number in the file
	Offset int64 // byte offset just past this line
	Source string
	Text   string
}

// Record is what gets published for one line
type Record struct {
	Key     string
	Value   string
	Headers map[string]string
	Time    time.Time
}
