package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(3, 10, 41)
	assert.Equal(t, 5, p.TotalPages)
	assert.Equal(t, 20, p.Offset())
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())

	first := NewPagination(0, 0, 0)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 10, first.PerPage)
	assert.Equal(t, 0, first.Offset())
	assert.False(t, first.HasNext())
}
