package neoreel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrMalformed is matched by errors describing a buffer whose size is not a
// whole number of frames.
var ErrMalformed = errors.New("malformed thumbnail buffer")

// SizeError reports a buffer file that is not a multiple of FrameSize bytes.
type SizeError struct {
	Path string
	Size int64
}

func (e *SizeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %d bytes is not a multiple of %d", ErrMalformed, e.Size, FrameSize)
	}
	return fmt.Sprintf("%s: %v: %d bytes is not a multiple of %d", e.Path, ErrMalformed, e.Size, FrameSize)
}

func (e *SizeError) Is(target error) bool { return target == ErrMalformed }

// FrameCount derives the number of frames stored in a buffer of the given
// size. The count is never stored in the file, so a size that does not
// divide evenly means the file is not a thumbnail buffer.
func FrameCount(size int64) (int, error) {
	if size < 0 || size%FrameSize != 0 {
		return 0, &SizeError{Size: size}
	}
	return int(size / FrameSize), nil
}

// BufferPath is where the buffer called name lives inside dir.
func BufferPath(dir, name string) string {
	return filepath.Join(dir, name+".raw")
}

// PartialSuffix marks a buffer that is still being written. Close renames
// it into place, so a reel interrupted at any point never shows up under
// its final name.
const PartialSuffix = ".tmp"

// BufferWriter appends frames to a memory-mapped buffer file.
type BufferWriter struct {
	path string
	part string
	file *os.File
	data []byte
	n    int
}

// CreateBuffer starts a buffer that Close publishes at path and reserves
// room for capacity frames. Frames go to path+PartialSuffix until then.
// The reservation grows if more frames are appended; Close trims the file
// down to the frames actually written.
func CreateBuffer(path string, capacity int) (*BufferWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create buffer directory: %w", err)
	}
	part := path + PartialSuffix
	file, err := os.OpenFile(part, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}
	w := &BufferWriter{path: path, part: part, file: file}
	if capacity < 1 {
		capacity = 1
	}
	if err := w.remap(capacity); err != nil {
		w.Abort()
		return nil, err
	}
	return w, nil
}

// Path the buffer is published at by Close.
func (w *BufferWriter) Path() string { return w.path }

// Len is the number of frames appended so far.
func (w *BufferWriter) Len() int { return w.n }

// Cap is the number of frames the current reservation can hold.
func (w *BufferWriter) Cap() int { return len(w.data) / FrameSize }

// Append writes f into the next free slot.
func (w *BufferWriter) Append(f *Frame) error {
	if w.data == nil {
		return errors.New("neoreel: append to closed buffer")
	}
	if w.n == w.Cap() {
		if err := w.remap(2 * w.Cap()); err != nil {
			return err
		}
	}
	copy(w.data[w.n*FrameSize:], f[:])
	w.n++
	return nil
}

func (w *BufferWriter) remap(capacity int) error {
	if err := w.unmap(); err != nil {
		return err
	}
	size := capacity * FrameSize
	if err := w.file.Truncate(int64(size)); err != nil {
		return fmt.Errorf("reserve %d frames: %w", capacity, err)
	}
	data, err := unix.Mmap(int(w.file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("map buffer: %w", err)
	}
	w.data = data
	return nil
}

func (w *BufferWriter) unmap() error {
	if w.data == nil {
		return nil
	}
	if err := unix.Msync(w.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("sync buffer: %w", err)
	}
	if err := unix.Munmap(w.data); err != nil {
		return fmt.Errorf("unmap buffer: %w", err)
	}
	w.data = nil
	return nil
}

// Close flushes the mapping, truncates the file to Len() frames and moves
// it to Path().
func (w *BufferWriter) Close() error {
	if w.file == nil {
		return nil
	}
	if err := w.unmap(); err != nil {
		w.file.Close()
		w.file = nil
		return err
	}
	err := w.file.Truncate(int64(w.n) * FrameSize)
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	if err == nil {
		err = os.Rename(w.part, w.path)
	}
	if err != nil {
		return fmt.Errorf("close buffer: %w", err)
	}
	return nil
}

// Abort discards the buffer and removes the partial file. A buffer that
// was already closed is left alone.
func (w *BufferWriter) Abort() error {
	if w.data != nil {
		unix.Munmap(w.data)
		w.data = nil
	}
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
	if err := os.Remove(w.part); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// BufferReader gives read-only access to a validated buffer file.
type BufferReader struct {
	path string
	data []byte
	n    int
}

// OpenBuffer validates and maps the buffer file at path. A file whose size
// is not a whole number of frames is rejected with a *SizeError.
func OpenBuffer(path string) (*BufferReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open buffer: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat buffer: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open buffer: %s is a directory", path)
	}
	n, err := FrameCount(info.Size())
	if err != nil {
		err.(*SizeError).Path = path
		return nil, err
	}

	r := &BufferReader{path: path, n: n}
	if n == 0 {
		return r, nil
	}
	// The mapping stays valid after the descriptor is closed.
	r.data, err = unix.Mmap(int(file.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("map buffer: %w", err)
	}
	return r, nil
}

// Path of the file being read.
func (r *BufferReader) Path() string { return r.path }

// Len is the number of frames in the buffer.
func (r *BufferReader) Len() int { return r.n }

// Frame returns a copy of the i-th frame.
func (r *BufferReader) Frame(i int) *Frame {
	var f Frame
	copy(f[:], r.data[i*FrameSize:(i+1)*FrameSize])
	return &f
}

// Close releases the mapping.
func (r *BufferReader) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}
