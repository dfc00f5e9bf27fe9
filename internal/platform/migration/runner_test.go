// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/dashi/internal/platform/migration"
)

/*
TestDriverURL rewrites postgres URL schemes and leaves anything else alone.
*/
func TestDriverURL(t *testing.T) {
	tests := map[string]string{
		"postgres://dashi:pw@db:5432/dashi?sslmode=disable": "pgx5://dashi:pw@db:5432/dashi?sslmode=disable",
		"postgresql://db/dashi":                             "pgx5://db/dashi",
		"pgx5://db/dashi":                                   "pgx5://db/dashi",
		"host=db dbname=dashi":                              "host=db dbname=dashi",
	}

	for input, want := range tests {
		assert.Equal(t, want, migration.DriverURL(input), input)
	}
}
