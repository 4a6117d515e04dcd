// Package stdio runs the line-delimited request/response protocol over a byte
// stream: one JSON request object per line in, one JSON response object per
// line out, synchronously, one request at a time.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/book-expert/logger"

	"github.com/book-expert/voicepro-service/internal/dispatch"
)

// Line buffer sizing. Requests can carry whole project texts, so lines well
// beyond the bufio default must be accepted.
const (
	initialLineBuffer = 64 * 1024
	maxLineBytes      = 16 * 1024 * 1024
)

// Loop reads requests from a reader and writes responses to a writer until
// EOF or context cancellation.
type Loop struct {
	dispatcher *dispatch.Dispatcher
	reader     io.Reader
	writer     io.Writer
	log        *logger.Logger
}

// New creates a protocol loop over the given stream endpoints.
func New(dispatcher *dispatch.Dispatcher, reader io.Reader, writer io.Writer, log *logger.Logger) *Loop {
	return &Loop{
		dispatcher: dispatcher,
		reader:     reader,
		writer:     writer,
		log:        log,
	}
}

// Run processes requests until the input is exhausted or ctx is cancelled.
// A malformed line is logged and skipped without a response; the loop
// continues with the next line. Each request fully completes, including all
// file I/O, before the next line is read.
func (l *Loop) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(l.reader)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineBytes)

	writer := bufio.NewWriter(l.writer)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req dispatch.Request

		unmarshalErr := json.Unmarshal(line, &req)
		if unmarshalErr != nil {
			l.log.Error("Malformed request line: %v", unmarshalErr)

			continue
		}

		resp := l.dispatcher.Dispatch(ctx, &req)

		writeErr := writeResponse(writer, resp)
		if writeErr != nil {
			return writeErr
		}
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		return fmt.Errorf("failed to read request stream: %w", scanErr)
	}

	return nil
}

func writeResponse(writer *bufio.Writer, resp *dispatch.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	_, writeErr := writer.Write(data)
	if writeErr != nil {
		return fmt.Errorf("failed to write response: %w", writeErr)
	}

	newlineErr := writer.WriteByte('\n')
	if newlineErr != nil {
		return fmt.Errorf("failed to write response terminator: %w", newlineErr)
	}

	flushErr := writer.Flush()
	if flushErr != nil {
		return fmt.Errorf("failed to flush response: %w", flushErr)
	}

	return nil
}
