package extract

import (
	"errors"

	"github.com/rotisserie/eris"
)

// ValidationError rejects user input before any remote call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RemoteError wraps any failure of the extraction service call.
type RemoteError struct {
	Err error
}

func (e *RemoteError) Error() string {
	return "extraction failed: " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRemote reports whether err (or any error in its chain) is a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// Detail renders the full diagnostic chain of err, including stack frames
// recorded by eris, for an on-demand "details" view.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return eris.ToString(re.Err, true)
	}
	return eris.ToString(err, true)
}
