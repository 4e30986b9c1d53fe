package signatureengine

import "fmt"

// ValidationError reports a request that is missing required input. It is
// returned before any document I/O takes place.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError indicates that the base document does not exist.
type NotFoundError struct {
	Msg string
	Err error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// DocumentError indicates that the base document could not be parsed or the
// stamped document could not be serialized.
type DocumentError struct {
	Msg string
	Err error
}

func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// AssetDecodeError indicates that the signature image could not be decoded.
// It never fails a request; it is reported on the affected field outcomes.
type AssetDecodeError struct {
	Err error
}

func (e *AssetDecodeError) Error() string {
	return fmt.Sprintf("signature image: %v", e.Err)
}

func (e *AssetDecodeError) Unwrap() error {
	return e.Err
}
