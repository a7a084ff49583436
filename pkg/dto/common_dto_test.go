package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageQueryNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     PageQuery
		want   PageQuery
		offset int
	}{
		{"defaults", PageQuery{}, PageQuery{Page: 1, Limit: DefaultLimit}, 0},
		{"clamped", PageQuery{Page: 2, Limit: 500}, PageQuery{Page: 2, Limit: MaxLimit}, 100},
		{"third page", PageQuery{Page: 3, Limit: 10}, PageQuery{Page: 3, Limit: 10}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.offset, got.Offset())
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(PageQuery{Page: 2, Limit: 10}, 25)

	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(25), meta.TotalItems)
	assert.Equal(t, 10, meta.Limit)

	assert.Equal(t, 0, NewPaginationMeta(PageQuery{Page: 1, Limit: 10}, 0).TotalPages)
}
