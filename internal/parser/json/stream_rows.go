package jsonparser

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

var utf8BOM = []byte("\uFEFF")

// Object is one decoded movie together with its 1-based input line.
type Object struct {
	Line  int
	Value map[string]any
}

// StreamObjects reads r line by line and hands every decoded object to emit.
//
// Contract:
//
//   - Lines are numbered from 1 and counted even when blank, so reported
//     numbers match what an editor shows.
//   - Surrounding whitespace is ignored; blank lines are skipped silently.
//   - A UTF-8 BOM before the first line is ignored.
//   - A line that fails Decode is passed to onParseErr and skipped.
//   - Lines have no length limit.
//   - ctx is checked between lines. A non-nil error from emit stops the
//     stream and is returned as is.
func StreamObjects(
	ctx context.Context,
	r io.Reader,
	emit func(Object) error,
	onParseErr func(line int, err error),
) error {
	br := bufio.NewReaderSize(r, 1<<20)
	line := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("json parser: read line %d: %w", line+1, readErr)
		}
		if len(raw) == 0 && readErr != nil {
			return nil
		}
		line++

		if line == 1 {
			raw = bytes.TrimPrefix(raw, utf8BOM)
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 {
			obj, err := Decode(raw)
			if err != nil {
				if onParseErr != nil {
					onParseErr(line, err)
				}
			} else if err := emit(Object{Line: line, Value: obj}); err != nil {
				return err
			}
		}

		if readErr != nil {
			return nil
		}
	}
}
