// SPDX-License-Identifier: MIT

package playlist

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadCursor reads the fetch cursor from path. A missing file or
// unparseable content defaults to 0, matching the "initialized to 0 on
// first run or when state is missing" rule.
func ReadCursor(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cursor %s: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}

	cursor, err := strconv.Atoi(text)
	if err != nil || cursor < 0 {
		return 0, nil
	}
	return cursor, nil
}

// WriteCursor atomically replaces path with the decimal cursor value.
func WriteCursor(path string, cursor int) error {
	return writeAtomic(path, []byte(formatCursor(cursor)+"\n"))
}
