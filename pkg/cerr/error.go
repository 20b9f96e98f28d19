package cerr

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/odense-rpa/passivering-af-ungesager/pkg/clog"
)

type Error struct {
	Code  Code
	Msg   string // message reported alongside the Code
	Err   error  // underlying error kept for the log
	Stack string // stack trace, captured for error-level codes
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if code.Level() == clog.LevelError {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}

// Record attaches err (and its stack, when captured) to the context's log
// attributes so the surrounding handler emits them with the next record.
func Record(ctx context.Context, err error) {
	if err == nil {
		return
	}
	clog.AddError(ctx, err)
	var cerr *Error
	if errors.As(err, &cerr) && cerr.Stack != "" {
		clog.AddStack(ctx, cerr.Stack)
	}
}
