package logging

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	fileBufferSize = 64 * 1024
	flushInterval  = 5 * time.Second
)

// FileWriter is a buffered, size-rotated log file. Writes are flushed every few
// seconds and on Close. When the file grows past maxSizeMB it is renamed to
// path.1, older backups shift up, and anything past maxBackups is removed.
type FileWriter struct {
	path       string
	maxBytes   int64
	maxBackups int

	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	timer  *time.Timer
	closed bool
}

// NewFileWriter opens (or creates) the log file in append mode
func NewFileWriter(path string, maxSizeMB, maxBackups int) (*FileWriter, error) {
	fw := &FileWriter{
		path:       path,
		maxBytes:   int64(maxSizeMB) * 1024 * 1024,
		maxBackups: maxBackups,
	}
	if err := fw.open(); err != nil {
		return nil, err
	}
	fw.timer = time.AfterFunc(flushInterval, fw.tick)
	return fw, nil
}

func (fw *FileWriter) open() error {
	f, err := os.OpenFile(fw.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", fw.path, err)
	}
	fw.file = f
	fw.buf = bufio.NewWriterSize(f, fileBufferSize)
	return nil
}

func (fw *FileWriter) tick() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return
	}
	if err := fw.flushLocked(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] log flush failed: %v\n", err)
	}
	fw.timer.Reset(flushInterval)
}

// Write implements io.Writer
func (fw *FileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return 0, fmt.Errorf("file writer is closed")
	}
	return fw.buf.Write(p)
}

// Flush writes buffered entries to disk and rotates if needed
func (fw *FileWriter) Flush() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return fmt.Errorf("file writer is closed")
	}
	return fw.flushLocked()
}

func (fw *FileWriter) flushLocked() error {
	if err := fw.buf.Flush(); err != nil {
		return err
	}
	info, err := fw.file.Stat()
	if err != nil {
		return err
	}
	if fw.maxBytes > 0 && info.Size() >= fw.maxBytes {
		return fw.rotateLocked()
	}
	return nil
}

func (fw *FileWriter) rotateLocked() error {
	if err := fw.file.Close(); err != nil {
		return fmt.Errorf("failed to close log before rotation: %w", err)
	}
	rotateErr := rotateFiles(fw.path, fw.maxBackups)
	if err := fw.open(); err != nil {
		return err
	}
	return rotateErr
}

// rotateFiles shifts path.N -> path.N+1, dropping anything beyond maxBackups,
// then moves path to path.1. With maxBackups == 0 the current file is removed.
func rotateFiles(path string, maxBackups int) error {
	if maxBackups <= 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove log file: %w", err)
		}
		return nil
	}

	oldest := fmt.Sprintf("%s.%d", path, maxBackups)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete oldest backup: %w", err)
	}
	for i := maxBackups - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", path, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, fmt.Sprintf("%s.%d", path, i+1)); err != nil {
			return fmt.Errorf("failed to shift backup %s: %w", from, err)
		}
	}
	if err := os.Rename(path, path+".1"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate %s: %w", path, err)
	}
	return nil
}

// Close stops the flush timer, flushes and closes the file
func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return nil
	}
	fw.closed = true
	fw.timer.Stop()
	if err := fw.buf.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] log flush on close failed: %v\n", err)
	}
	return fw.file.Close()
}
