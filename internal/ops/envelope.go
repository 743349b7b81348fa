package ops

import "github.com/hpungsan/agenda/internal/errors"

// Envelope is the uniform success/error wrapper returned by the HTTP API.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Succeed wraps data in a successful envelope.
func Succeed(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail wraps err in a failed envelope. Internal causes are not exposed.
func Fail(err error) Envelope {
	aErr := errors.As(err)
	env := Envelope{
		Success: false,
		Error:   aErr.Message,
		Code:    string(aErr.Code),
	}
	if aErr.Code != errors.ErrInternal && len(aErr.Details) > 0 {
		env.Details = aErr.Details
	}
	return env
}
