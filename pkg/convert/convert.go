// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert holds lenient string conversions for query parameters.

Use strconv directly when a malformed value must be told apart from the default.
*/
package convert

import (
	"strconv"
)

// ToIntD converts a string to an int, returning def if the string is empty or malformed.
func ToIntD(str string, def int) int {
	if str == "" {
		return def
	}

	if v, err := strconv.Atoi(str); err == nil {
		return v
	}

	return def
}
