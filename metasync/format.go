// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package metasync

import "fmt"

// formatProgress renders a millisecond offset as m:ss, with no leading
// zero on the minutes: 0:07, 3:45, 12:03. Sub-second precision is
// truncated.
func formatProgress(ms int64) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
