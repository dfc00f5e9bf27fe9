// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/dashi/pkg/pagination"
)

/*
TestFromRequest clamps invalid page and limit values to the defaults.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  pagination.Params
	}{
		{query: "", want: pagination.Params{Page: 1, Limit: 20}},
		{query: "?page=3&limit=50", want: pagination.Params{Page: 3, Limit: 50}},
		{query: "?page=-1&limit=500", want: pagination.Params{Page: 1, Limit: 20}},
		{query: "?page=abc&limit=0", want: pagination.Params{Page: 1, Limit: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/items"+tt.query, nil)
			assert.Equal(t, tt.want, pagination.FromRequest(request))
		})
	}
}

/*
TestParams_OffsetAndMeta derives the SQL offset and the page count.
*/
func TestParams_OffsetAndMeta(t *testing.T) {
	assert.Equal(t, 0, pagination.Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, pagination.Params{Page: 3, Limit: 20}.Offset())

	meta := pagination.NewMeta(2, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 0, pagination.NewMeta(1, 0, 5).TotalPages)
}
