package linestat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// CountLines returns the number of lines in the file at path.
// A file that cannot be opened or read counts as zero lines.
func CountLines(path string) int64 {
	n, err := countFileLines(path)
	if err != nil {
		return 0
	}

	return n
}

func countFileLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := countLines(f)
	if err != nil {
		return 0, fmt.Errorf("reading %q: %w", path, err)
	}

	return n, nil
}

// countLines counts line-terminated records in r. "\n", "\r\n" and a lone "\r"
// each end a line, and a non-empty unterminated tail counts as one more.
// Bytes that are not valid UTF-8 are dropped before counting.
func countLines(r io.Reader) (int64, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		lines   int64
		afterCR bool
		partial bool
	)

	for {
		c, size, err := br.ReadRune()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return 0, err
		}

		switch {
		case c == utf8.RuneError && size == 1:
			// undecodable byte, ignored
		case c == '\n':
			if !afterCR {
				lines++
			}

			afterCR, partial = false, false
		case c == '\r':
			lines++

			afterCR, partial = true, false
		default:
			afterCR, partial = false, true
		}
	}

	if partial {
		lines++
	}

	return lines, nil
}
