package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-confine/confine/runner"
)

func init() {
	Register("double", func(_ context.Context, args []byte) ([]byte, error) {
		return append(args, args...), nil
	})
	Register("fail", func(_ context.Context, _ []byte) ([]byte, error) {
		return nil, errors.New("task failed")
	})
	Register("blow", func(_ context.Context, _ []byte) ([]byte, error) {
		panic("went off")
	})
}

func TestExecuteSuccess(t *testing.T) {
	res := Execute(Request{Task: "double", Args: []byte("ab")})
	assert.Equal(t, runner.StatusSuccess, res.Status)
	assert.Equal(t, []byte("abab"), res.Payload)
}

func TestExecuteTaskError(t *testing.T) {
	res := Execute(Request{Task: "fail"})
	assert.Equal(t, runner.StatusRaisedError, res.Status)
	require.NotNil(t, res.ErrInfo)
	assert.Equal(t, "task failed", res.ErrInfo.Message)
}

func TestExecutePanicIsRaisedError(t *testing.T) {
	res := Execute(Request{Task: "blow"})
	assert.Equal(t, runner.StatusRaisedError, res.Status)
	require.NotNil(t, res.ErrInfo)
	assert.Equal(t, "panic", res.ErrInfo.Kind)
	assert.Contains(t, res.ErrInfo.Message, "went off")
}

func TestExecuteUnknownTask(t *testing.T) {
	res := Execute(Request{Task: "missing"})
	assert.Equal(t, runner.StatusInternalFailure, res.Status)
	assert.Contains(t, res.Error, "missing")
}

func TestRegisterPanics(t *testing.T) {
	assert.Panics(t, func() { Register("nil-task", nil) })
	assert.Panics(t, func() { Register("double", func(context.Context, []byte) ([]byte, error) { return nil, nil }) })
}
