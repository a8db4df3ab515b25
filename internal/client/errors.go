package client

import "fmt"

// DefaultTransportMessage is shown when the service gave no usable detail.
const DefaultTransportMessage = "Error uploading PDF."

// TransportError is a network or HTTP failure talking to the service.
type TransportError struct {
	StatusCode int    // 0 when no response was received
	Detail     string // server-supplied detail, if any
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("extraction service error %d: %s", e.StatusCode, e.Detail)
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("extraction service error %d: %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("extraction service error %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("extraction service unreachable: %v", e.Err)
	default:
		return "extraction service error"
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage returns the server-supplied detail, or a generic message.
func (e *TransportError) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	return DefaultTransportMessage
}
