package decoder

import "fmt"

// DataSourceOpenError is raised when the engine cannot open the video path.
type DataSourceOpenError struct {
	Path string
	Err  error
}

func (e *DataSourceOpenError) Error() string {
	return fmt.Sprintf("could not open data source %q: %v", e.Path, e.Err)
}

func (e *DataSourceOpenError) Unwrap() error {
	return e.Err
}

// DecodeRuntimeError carries the engine specific code pair of an
// asynchronous failure.
type DecodeRuntimeError struct {
	Code    int
	Subcode int
	Err     error
}

func (e *DecodeRuntimeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode error (%d, %d)", e.Code, e.Subcode)
	}
	return fmt.Sprintf("decode error (%d, %d): %v", e.Code, e.Subcode, e.Err)
}

func (e *DecodeRuntimeError) Unwrap() error {
	return e.Err
}
