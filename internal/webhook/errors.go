package webhook

import "fmt"

// Kind classifies a failed delivery so the transport can pick a status code.
type Kind int

const (
	KindMalformedBody Kind = iota + 1
	KindInvalidPayload
	KindUnauthorized
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindMalformedBody:
		return "malformed_body"
	case KindInvalidPayload:
		return "invalid_payload"
	case KindUnauthorized:
		return "unauthorized"
	case KindStorage:
		return "storage_failure"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by Handler.Process and VerifyRequest. Msg is safe to show
// the webhook sender; Details carries diagnostics for client errors.
type Error struct {
	Kind    Kind
	Msg     string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }
