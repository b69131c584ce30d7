package query

import (
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/gnotu/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	cause := errors.New("no such file")

	tests := []struct {
		msg   string
		err   error
		code  gn.ErrorCode
		cause bool
	}{
		{"read query", ReadQueryError("query.json", cause), errcode.QueryFileError, true},
		{"invalid query", InvalidQueryError(cause), errcode.QueryValidationError, true},
		{"unknown field", UnknownFieldError("depth"), errcode.QueryUnknownFieldError, false},
		{"sample not found", SampleNotFoundError(999), errcode.QuerySampleNotFoundError, false},
	}

	for _, v := range tests {
		gnErr, ok := v.err.(*gn.Error)
		require.True(t, ok, v.msg)
		assert.Equal(t, v.code, gnErr.Code, v.msg)
		require.Len(t, gnErr.Vars, 1, v.msg)
		if v.cause {
			assert.ErrorIs(t, gnErr.Err, cause, v.msg)
		}
	}
}
