package models

import (
	"fmt"
	"time"
)

// ReportID identifies one statement file in the report directory.
type ReportID struct {
	Name      string
	CreatedAt time.Time
}

func (id ReportID) String() string {
	return fmt.Sprintf("%s@%s", id.Name, id.CreatedAt.UTC().Format(time.RFC3339))
}

// Report is a parsed statement file, rows kept in file order.
type Report struct {
	ID         ReportID
	Operations []ParsedOperation
}
