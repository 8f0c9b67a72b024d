package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	writerQueueSize    = 1000
	writerFlushPeriod  = 2 * time.Second
	writerBufferBytes  = 32 * 1024
	logFilePermissions = 0600
)

// AsyncWriter decouples log emission from disk I/O. Writes are queued and
// flushed by a background goroutine; when the queue is full the line is
// dropped rather than blocking the request path.
type AsyncWriter struct {
	writer  *bufio.Writer
	file    *os.File
	mu      sync.Mutex
	lineCh  chan []byte
	closeCh chan struct{}
}

func NewAsyncWriter(logFile string) (*AsyncWriter, error) {
	file, err := os.OpenFile(filepath.Clean(logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
	if err != nil {
		return nil, err
	}

	aw := &AsyncWriter{
		writer:  bufio.NewWriterSize(file, writerBufferBytes),
		file:    file,
		lineCh:  make(chan []byte, writerQueueSize),
		closeCh: make(chan struct{}),
	}
	go aw.drain()
	return aw, nil
}

func (aw *AsyncWriter) Write(p []byte) (int, error) {
	select {
	case aw.lineCh <- append([]byte{}, p...):
		return len(p), nil
	default:
		return 0, nil
	}
}

func (aw *AsyncWriter) drain() {
	ticker := time.NewTicker(writerFlushPeriod)
	defer ticker.Stop()
	for {
		select {
		case line := <-aw.lineCh:
			aw.mu.Lock()
			if _, err := aw.writer.Write(line); err != nil {
				fmt.Println("error writing log line to file", err)
			}
			aw.mu.Unlock()

		case <-ticker.C:
			aw.mu.Lock()
			_ = aw.writer.Flush()
			aw.mu.Unlock()

		case <-aw.closeCh:
			aw.mu.Lock()
			_ = aw.writer.Flush()
			aw.mu.Unlock()
			return
		}
	}
}

func (aw *AsyncWriter) Close() {
	close(aw.closeCh)
	_ = aw.file.Close()
}
