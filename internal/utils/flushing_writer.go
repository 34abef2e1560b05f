package utils

import (
	"io"
	"sync"
)

// FlushingWriter forwards each Write to the destination as one complete unit:
// short writes are retried until the whole buffer is delivered, and buffered
// destinations are flushed before Write returns. Concurrent writers never
// interleave within a single Write.
type FlushingWriter struct {
	destination io.Writer
	mutex       sync.Mutex
}

type flusher interface {
	Flush() error
}

// NewFlushingWriter wraps destination. Wrapping a FlushingWriter returns it unchanged.
func NewFlushingWriter(destination io.Writer) io.Writer {
	if destination == nil {
		return nil
	}
	if existing, wrapped := destination.(*FlushingWriter); wrapped {
		return existing
	}
	return &FlushingWriter{destination: destination}
}

// Write delivers data completely or reports why it could not.
func (writer *FlushingWriter) Write(data []byte) (int, error) {
	if writer == nil || writer.destination == nil {
		return 0, nil
	}

	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	delivered := 0
	for delivered < len(data) {
		written, writeError := writer.destination.Write(data[delivered:])
		delivered += written
		if writeError != nil {
			return delivered, writeError
		}
		if written == 0 {
			return delivered, io.ErrShortWrite
		}
	}

	if bufferedDestination, buffered := writer.destination.(flusher); buffered {
		if flushError := bufferedDestination.Flush(); flushError != nil {
			return delivered, flushError
		}
	}

	return delivered, nil
}
