// SPDX-License-Identifier: MIT

// Package playlist manages the on-disk playlist and cursor files owned by
// the playback controller: main.txt (currently playing), pending.txt
// (prefetched next), and index.txt (the fetch cursor). Every mutation is
// rename-atomic so a concurrent reader never observes a half-written file.
package playlist

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

// ReadList reads a newline-delimited list of asset URLs from path. Lines are
// normalized: carriage returns, surrounding whitespace, and trailing commas
// are trimmed; empty lines are elided. A missing file returns an empty list,
// not an error.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read playlist %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := normalizeLine(scanner.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read playlist %s: %w", path, err)
	}
	return urls, nil
}

// WriteList atomically replaces path with the newline-delimited urls.
func WriteList(path string, urls []string) error {
	var buf bytes.Buffer
	for _, u := range urls {
		if line := normalizeLine(u); line != "" {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	return writeAtomic(path, buf.Bytes())
}

// Truncate atomically replaces path with an empty file.
func Truncate(path string) error {
	return writeAtomic(path, nil)
}

// Swap atomically promotes pendingPath to mainPath (rename) then truncates
// pendingPath. The rename makes the promoted content visible to readers of
// mainPath as a single atomic step.
func Swap(pendingPath, mainPath string) error {
	if err := os.Rename(pendingPath, mainPath); err != nil {
		return fmt.Errorf("swap playlist %s -> %s: %w", pendingPath, mainPath, err)
	}
	if err := Truncate(pendingPath); err != nil {
		return fmt.Errorf("truncate pending playlist %s after swap: %w", pendingPath, err)
	}
	return nil
}

func normalizeLine(line string) string {
	line = strings.TrimRight(line, "\r")
	line = strings.TrimSpace(line)
	line = strings.TrimRight(line, ",")
	return strings.TrimSpace(line)
}

func writeAtomic(path string, data []byte) error {
	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending file %s: %w", path, err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write pending file %s: %w", path, err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}

// formatCursor renders a non-negative cursor as a decimal string.
func formatCursor(cursor int) string {
	return strconv.Itoa(cursor)
}
