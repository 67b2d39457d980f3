package errs

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	assert.NoError(t, Aggregate(nil))

	one := &ConfigurationError{Kind: "state", Name: "ZZ"}
	assert.Same(t, one, Aggregate([]error{one}))

	sfe := &SourceFormatError{Source: "texas", Path: "x.csv", Err: io.ErrUnexpectedEOF}
	err := Aggregate([]error{one, sfe})

	var agg *AggregateError
	assert.True(t, errors.As(err, &agg))
	assert.Len(t, agg.Errors, 2)
	assert.True(t, IsConfiguration(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "2 source(s) failed")
}

func TestSourceFormatErrorMessage(t *testing.T) {
	err := &SourceFormatError{Source: "michigan", Path: "c.txt", Missing: []string{"amount", "f_name"}}
	assert.Equal(t, "source michigan: bad raw file c.txt: missing columns amount, f_name", err.Error())
}
