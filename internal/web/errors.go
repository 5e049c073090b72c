package web

import (
	"encoding/json"
	"errors"
)

// Error is the JSON body of every failed API response.
type Error struct {
	Message string   `json:"message"`
	Err     []string `json:"err,omitempty"`
}

func NewError(message string, errs ...error) *Error {
	return &Error{
		Message: message,
		Err: func() []string {
			var msgs []string
			for _, err := range errs {
				if err != nil {
					msgs = append(msgs, err.Error())
				}
			}
			return msgs
		}(),
	}
}

func (e *Error) Error() string {
	//nolint:errchkjson
	data, _ := json.Marshal(e)
	return string(data)
}

func (e *Error) Unwrap() error {
	if e == nil || len(e.Err) == 0 {
		return nil
	}
	errs := make([]error, len(e.Err))
	for i, msg := range e.Err {
		errs[i] = errors.New(msg)
	}
	return errors.Join(errs...)
}
