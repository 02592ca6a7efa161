package conversation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRoundTrip(t *testing.T) {
	cases := []Tag{
		{Op: OpRead, Epoch: 0},
		{Op: OpAdd, Epoch: 42},
		{Op: OpComment, Epoch: math.MaxUint32},
		{Op: OpInfo, Epoch: 7},
		{Op: OpEnd, Epoch: 7},
		{Op: OpUpUniversity, Epoch: 1},
		{Op: OpUpDepartment, Epoch: 1},
		{Op: OpUpSupervisor, Epoch: 1},
		{Op: OpPage, Index: 0, Epoch: 9},
		{Op: OpPage, Index: 123456, Epoch: math.MaxUint32},
		{Op: OpBack, Epoch: 9},
		{Op: OpAction, Index: 3, Epoch: 9},
		{Op: OpNoop, Epoch: 9},
	}
	for _, tc := range cases {
		enc := tc.Encode()
		assert.LessOrEqual(t, len(enc), MaxTagLen)
		got, err := DecodeTag(enc)
		require.NoError(t, err, enc)
		assert.Equal(t, tc, got)
	}
}

func TestTagEncoding(t *testing.T) {
	assert.Equal(t, "p12.z", Tag{Op: OpPage, Index: 12, Epoch: 35}.Encode())
	assert.Equal(t, "b.10", Tag{Op: OpBack, Epoch: 36}.Encode())
}

func TestDecodeTagRejects(t *testing.T) {
	bad := []string{
		"",
		"r",
		"r.",
		".5",
		"q.5",           // unknown op
		"r1.5",          // argument on plain op
		"p.5",           // missing index
		"p-1.5",         // negative index
		"p1234567.5",    // index too long
		"r.zzzzzzzzzzz", // epoch overflow
		"Read",
		"Return(2)",
	}
	for _, s := range bad {
		_, err := DecodeTag(s)
		assert.True(t, errors.Is(err, ErrBadTag), "expected ErrBadTag for %q, got %v", s, err)
	}
}
