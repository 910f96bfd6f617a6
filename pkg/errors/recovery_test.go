package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		panic("test panic message")
	}

	err := testFunc()
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr), "expected PanicError, got %T", err)
	assert.Equal(t, "TestOperation", panicErr.Operation)
	assert.Equal(t, "test panic message", panicErr.PanicValue)
	assert.NotEmpty(t, panicErr.StackTrace)
	assert.Equal(t, "panic in TestOperation: test panic message", panicErr.Error())
	assert.Nil(t, panicErr.Unwrap())
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		return nil
	}

	assert.NoError(t, testFunc())
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("original error")

	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in TestOperation")
	assert.Contains(t, err.Error(), "original error")
	assert.True(t, errors.Is(err, originalErr))
}

// gonum panics on shape violations; Recover must turn them into an error.
func TestRecover_GonumShapePanic(t *testing.T) {
	multiply := func() (err error) {
		defer Recover(&err, "Multiply")
		a := mat.NewDense(2, 3, nil)
		b := mat.NewDense(2, 3, nil)
		var c mat.Dense
		c.Mul(a, b)
		return nil
	}

	err := multiply()
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "Multiply", panicErr.Operation)
	assert.Contains(t, err.Error(), "panic in Multiply")
}

func TestPanicError_UnwrapError(t *testing.T) {
	cause := fmt.Errorf("matrix dimension error")
	panicErr := NewPanicError("Fit", cause)
	assert.True(t, errors.Is(panicErr, cause))
	assert.Contains(t, panicErr.String(), "Stack trace:")
}

func TestSafeExecute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		assert.NoError(t, SafeExecute("op", func() error { return nil }))
	})

	t.Run("function error", func(t *testing.T) {
		originalErr := fmt.Errorf("function error")
		err := SafeExecute("op", func() error { return originalErr })
		assert.Equal(t, originalErr, err)
	})

	t.Run("panic", func(t *testing.T) {
		err := SafeExecute("op", func() error { panic("boom") })
		var panicErr *PanicError
		require.True(t, errors.As(err, &panicErr))
		assert.Equal(t, "boom", panicErr.PanicValue)
	})
}

func BenchmarkRecover_NoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		func() (err error) {
			defer Recover(&err, "BenchmarkOp")
			return nil
		}()
	}
}
