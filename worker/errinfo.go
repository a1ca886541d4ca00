package worker

import (
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/go-confine/confine/runner"
)

// Kinder lets a payload error carry an explicit kind name across the
// process boundary, so the caller-side registry can reconstruct it
// without sharing the concrete type.
type Kinder interface {
	Kind() string
}

// Describe captures an error raised by the payload as a transportable
// ErrorInfo. The kind is taken from Kinder when implemented, otherwise
// from the error's type name.
func Describe(err error) *runner.ErrorInfo {
	return &runner.ErrorInfo{
		Kind:    kindOf(err),
		Message: err.Error(),
		Trace:   fmt.Sprintf("%+v", err),
	}
}

func panicInfo(p interface{}) *runner.ErrorInfo {
	info := &runner.ErrorInfo{
		Kind:    "panic",
		Message: fmt.Sprint(p),
		Trace:   string(debug.Stack()),
	}
	if err, ok := p.(error); ok {
		info.Kind = kindOf(err)
	}
	return info
}

func kindOf(err error) string {
	if k, ok := err.(Kinder); ok {
		return k.Kind()
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
