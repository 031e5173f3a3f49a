package camera

import "fmt"

// RequestError reports a command that was rejected before it was sent:
// an unknown command, an unsupported argument, or a value the camera's
// descriptor tree does not permit.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// ResultError reports a command the camera answered with an error
// status. StatusCode carries the HTTP status so callers can branch on
// specific camera responses (the camera answers 404 for an empty image
// directory, for example).
type ResultError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("error #%d for url '%s': %s", e.StatusCode, e.URL, e.Message)
}
