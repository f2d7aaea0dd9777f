package market

import (
	"errors"
	"fmt"
)

// DateLayout is the date format used in logs, errors and reports.
const DateLayout = "2006-01-02"

// ErrDataIntegrity is wrapped by every DataIntegrityError.
var ErrDataIntegrity = errors.New("data integrity violation")

// DataIntegrityError reports an input invariant that does not hold. It is
// fatal for the processing of the affected ticker or run.
type DataIntegrityError struct {
	Ticker   string
	Check    string
	Observed string
	Expected string
}

func (e *DataIntegrityError) Error() string {
	if e.Ticker == "" {
		return fmt.Sprintf("%s: %s: observed %s, expected %s", ErrDataIntegrity, e.Check, e.Observed, e.Expected)
	}
	return fmt.Sprintf("%s for %s: %s: observed %s, expected %s", ErrDataIntegrity, e.Ticker, e.Check, e.Observed, e.Expected)
}

func (e *DataIntegrityError) Unwrap() error {
	return ErrDataIntegrity
}
