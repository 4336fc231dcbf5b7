package generic

import (
	"fmt"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert := assert_.New(t)

	ok := NewResult(123, nil)
	assert.True(ok.IsOk())
	assert.False(ok.IsErr())
	assert.Equal(123, ok.Unwrap())
	assert.Equal(123, ok.Expect("should have a value"))

	bad := NewResult(0, fmt.Errorf("boom"))
	assert.False(bad.IsOk())
	assert.True(bad.IsErr())
	assert.Panics(func() { bad.Unwrap() })
	assert.Panics(func() { bad.Expect("no value") })
}

func TestUnwrapShortcuts(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal(123, Unwrap(123, nil))
	assert.Panics(func() { Unwrap(0, fmt.Errorf("boom")) })

	assert.NotPanics(func() { Unwrap_(nil) })
	assert.Panics(func() { Unwrap_(fmt.Errorf("boom")) })
}
