package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repokit/errors"
)

func TestPageSpec_Validate(t *testing.T) {
	assert.NoError(t, NewPage(1, 10).Validate())
	assert.NoError(t, NewPage(100, 1).Validate())

	// 页码从 1 开始，页大小必须为正
	for _, p := range []*PageSpec{
		NewPage(0, 10),
		NewPage(-1, 10),
		NewPage(1, 0),
		NewPage(1, -5),
		nil,
	} {
		err := p.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	}
}

func TestPageSpec_Offset(t *testing.T) {
	assert.Equal(t, 0, NewPage(1, 10).Offset())
	assert.Equal(t, 10, NewPage(2, 10).Offset())
	assert.Equal(t, 45, NewPage(10, 5).Offset())
}

func TestPageSpec_WithSpec(t *testing.T) {
	filter := New().Eq("status", "active")
	p := NewPage(2, 20).WithSpec(filter)
	assert.Same(t, filter, p.Specification)
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 5, 0},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{13, 5, 3},
		{10, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.size), "total=%d size=%d", tt.total, tt.size)
	}
}
