// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds the table and column identifiers used to build SQL.
//
// Repositories never spell column names inline; they reference these
// definitions so that a rename is a single-line change.
package schema

import "strings"

// Select joins columns into a select list, qualifying each with alias when non-empty.
func Select(alias string, columns []string) string {
	if alias == "" {
		return strings.Join(columns, ", ")
	}

	qualified := make([]string, len(columns))
	for i, column := range columns {
		qualified[i] = alias + "." + column
	}
	return strings.Join(qualified, ", ")
}
