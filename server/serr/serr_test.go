package serr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_Is(t *testing.T) {
	sentinel := errors.New("some sentinel")

	testCases := []struct {
		name   string
		err    Error
		target error
		expect bool
	}{
		{
			name:   "matches a single cause",
			err:    New("could not do thing", sentinel),
			target: sentinel,
			expect: true,
		},
		{
			name:   "matches one of several causes",
			err:    New("could not do thing", ErrDB, sentinel),
			target: sentinel,
			expect: true,
		},
		{
			name:   "does not match an unrelated error",
			err:    New("could not do thing", sentinel),
			target: ErrNotFound,
			expect: false,
		},
		{
			name:   "no causes never matches",
			err:    New("could not do thing"),
			target: sentinel,
			expect: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, errors.Is(tc.err, tc.target))
		})
	}
}

func Test_WrapDB_IsErrDB(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapDB("look up user", cause)

	assert.True(t, errors.Is(err, ErrDB))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "look up user")
	assert.Contains(t, err.Error(), "connection refused")
}

func Test_Error_Error_NoMessage(t *testing.T) {
	err := New("", ErrBadCredentials)
	assert.Equal(t, ErrBadCredentials.Error(), err.Error())
}
