// Package adapter is the byte buffer that sits between a byte source and the
// NAL demultiplexer. Bytes are pushed in arbitrary chunks and consumed from
// the head once a unit boundary is known.
package adapter

import (
	"fmt"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/nareix/joy4/utils/bits/pio"
)

// compactThreshold is how many consumed bytes are tolerated at the front of
// the buffer before the live region is moved back to index zero.
const compactThreshold = 64 * 1024

type Adapter struct {
	buf  []byte
	head int
}

var _ entities.Input = (*Adapter)(nil)

func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Push(data []byte) {
	if len(data) == 0 {
		return
	}
	if a.head > compactThreshold && a.head > len(a.buf)/2 {
		n := copy(a.buf, a.buf[a.head:])
		a.buf = a.buf[:n]
		a.head = 0
	}
	a.buf = append(a.buf, data...)
}

func (a *Adapter) Available() int {
	return len(a.buf) - a.head
}

func (a *Adapter) Copy(offset, size int) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > a.Available() {
		return nil, fmt.Errorf("copy [%d, %d) of %d: %w", offset, offset+size, a.Available(), entities.ErrInputOutOfRange)
	}
	out := make([]byte, size)
	copy(out, a.buf[a.head+offset:])
	return out, nil
}

func (a *Adapter) MaskedScanUint32(mask, pattern uint32, offset, size int) int {
	if offset < 0 || size < 4 || offset+size > a.Available() {
		return -1
	}
	data := a.buf[a.head+offset : a.head+offset+size]
	for i := 0; i+4 <= len(data); i++ {
		if pio.U32BE(data[i:])&mask == pattern {
			return offset + i
		}
	}
	return -1
}

// Flush drops n bytes from the head.
func (a *Adapter) Flush(n int) {
	if n > a.Available() {
		n = a.Available()
	}
	if n <= 0 {
		return
	}
	a.head += n
	if a.head == len(a.buf) {
		a.buf = a.buf[:0]
		a.head = 0
	}
}

// Take removes n bytes from the head and returns them in a new slice.
func (a *Adapter) Take(n int) ([]byte, error) {
	out, err := a.Copy(0, n)
	if err != nil {
		return nil, err
	}
	a.Flush(n)
	return out, nil
}

func (a *Adapter) Clear() {
	a.buf = nil
	a.head = 0
}
