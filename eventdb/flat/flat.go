/*
Package flat keeps append-only gzipped NDJSON files.

Every writer session appends one gzip member, so an archive written across
several runs is a multistream gzip file that readers see as one stream.
Writers hold an exclusive flock and readers a shared one while open.
*/
package flat

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

const (
	filePerm = 0660
	dirPerm  = 0770
)

// Appender writes one gzip member to the end of a file.
type Appender struct {
	f      *os.File
	gzw    *gzip.Writer
	locked bool
}

// OpenAppender creates path and its parent directories as needed.
// The file lock is taken on first write.
func OpenAppender(path string, level int) (*Appender, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, filePerm)
	if err != nil {
		return nil, err
	}
	gzw, err := gzip.NewWriterLevel(f, level)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Appender{f: f, gzw: gzw}, nil
}

func (a *Appender) Write(p []byte) (int, error) {
	if !a.locked {
		if err := syscall.Flock(int(a.f.Fd()), syscall.LOCK_EX); err != nil {
			return 0, fmt.Errorf("lock %s: %w", a.f.Name(), err)
		}
		a.locked = true
	}
	return a.gzw.Write(p)
}

// Flush writes buffered data through to the file without ending the member.
func (a *Appender) Flush() error {
	return a.gzw.Flush()
}

// Close ends the gzip member, syncs, and releases the lock.
func (a *Appender) Close() error {
	if err := a.gzw.Close(); err != nil {
		a.f.Close()
		return err
	}
	if err := a.f.Sync(); err != nil {
		a.f.Close()
		return err
	}
	// Closing the descriptor releases the flock.
	return a.f.Close()
}

func (a *Appender) Path() string {
	return a.f.Name()
}

// Reader decompresses a flat file, all members in order.
type Reader struct {
	f   *os.File
	gzr *gzip.Reader
}

func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_SH); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	gzr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{f: f, gzr: gzr}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.gzr.Read(p)
}

func (r *Reader) Close() error {
	err := r.gzr.Close()
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}
