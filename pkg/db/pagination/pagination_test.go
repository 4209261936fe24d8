package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffsetAndLimit(t *testing.T) {
	cases := []struct {
		name   string
		in     Pagination
		offset int
		limit  int
	}{
		{name: "first page", in: Pagination{Page: 1, PageSize: 10}, offset: 0, limit: 10},
		{name: "third page", in: Pagination{Page: 3, PageSize: 5}, offset: 10, limit: 5},
		{name: "zero values", in: Pagination{}, offset: 0, limit: DefaultPageSize},
		{name: "oversized", in: Pagination{Page: 2, PageSize: 1000}, offset: MaxPageSize, limit: MaxPageSize},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.offset, tc.in.Offset())
			assert.Equal(t, tc.limit, tc.in.Limit())
		})
	}
}
