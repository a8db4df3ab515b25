package extract

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a payload matches none of the known
// response shapes. It is the only error Normalize returns.
var ErrMalformedResponse = errors.New("malformed extraction response")

// ErrColumnlessTable is returned when exporting a table whose rows yield no
// usable column.
var ErrColumnlessTable = errors.New("table has no columns")

// DefaultNoTablesMessage is shown when a response has no tables and no
// message of its own.
const DefaultNoTablesMessage = "No tables found."

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
