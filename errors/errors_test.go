package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	tests := []struct {
		name     string
		sentinel error
	}{
		{"parse", ErrParse},
		{"config", ErrConfig},
		{"not resolved", ErrNotResolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrapf(tt.sentinel, "entry.d.ts: %s", "context")
			assert.True(t, Is(wrapped, tt.sentinel))
			assert.Contains(t, wrapped.Error(), "entry.d.ts")
			assert.Contains(t, wrapped.Error(), tt.sentinel.Error())
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	err := Wrap(ErrParse, "front-end")

	assert.False(t, Is(err, ErrConfig))
	assert.False(t, Is(err, ErrNotResolved))
}

func TestWrapComposesMessages(t *testing.T) {
	base := New("no binding for name")
	wrapped := Wrap(base, "resolving export clause")

	assert.Contains(t, wrapped.Error(), "resolving export clause")
	assert.Contains(t, wrapped.Error(), "no binding for name")
	assert.True(t, Is(wrapped, base))
}

func TestIsInvariantViolation(t *testing.T) {
	err := AssertionFailedf("entity %q has no emit name", "Widget")

	assert.True(t, IsInvariantViolation(err))
	assert.Contains(t, err.Error(), `"Widget"`)
}

func TestIsInvariantViolationThroughWrapping(t *testing.T) {
	err := AssertionFailedf("member has no span")
	err = Wrap(err, "rendering rollup")

	assert.True(t, IsInvariantViolation(err))
}

func TestIsInvariantViolationRejectsOrdinaryErrors(t *testing.T) {
	assert.False(t, IsInvariantViolation(nil))
	assert.False(t, IsInvariantViolation(New("plain failure")))
	assert.False(t, IsInvariantViolation(Wrap(ErrParse, "front-end")))
}

func TestAssertionErrorWithWrappedErr(t *testing.T) {
	cause := New("collator unavailable")
	err := NewAssertionErrorWithWrappedErrf(cause, "sorting members of %q", "Widget")

	assert.True(t, IsInvariantViolation(err))
	assert.True(t, Is(err, cause))
}

type nodeShapeError struct {
	typ string
}

func (e *nodeShapeError) Error() string {
	return fmt.Sprintf("unsupported node shape %q", e.typ)
}

func TestAsRecoversConcreteType(t *testing.T) {
	original := &nodeShapeError{typ: "ambient_declaration"}
	wrapped := Wrap(original, "building span")

	var target *nodeShapeError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "ambient_declaration", target.typ)
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithStack(nil))
}
