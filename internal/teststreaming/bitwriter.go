package teststreaming

import "math/bits"

// BitWriter writes H.264 syntax elements MSB first.
type BitWriter struct {
	buf  []byte
	nbit int
}

func (w *BitWriter) U(n int, v uint) *BitWriter {
	for i := n - 1; i >= 0; i-- {
		if w.nbit%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>uint(i)&1 == 1 {
			w.buf[len(w.buf)-1] |= 0x80 >> uint(w.nbit%8)
		}
		w.nbit++
	}
	return w
}

func (w *BitWriter) Flag(b bool) *BitWriter {
	if b {
		return w.U(1, 1)
	}
	return w.U(1, 0)
}

func (w *BitWriter) UE(v uint) *BitWriter {
	n := bits.Len(v + 1)
	w.U(n-1, 0)
	return w.U(n, v+1)
}

func (w *BitWriter) SE(v int) *BitWriter {
	if v > 0 {
		return w.UE(uint(2*v - 1))
	}
	return w.UE(uint(-2 * v))
}

// Aligned pads the written bits with zeros, without a stop bit.
func (w *BitWriter) Aligned() []byte {
	for w.nbit%8 != 0 {
		w.U(1, 0)
	}
	return w.buf
}

// RBSP closes the payload with its stop bit and inserts the emulation
// prevention bytes.
func (w *BitWriter) RBSP() []byte {
	w.U(1, 1)
	return Escape(w.Aligned())
}

// Escape inserts an emulation prevention byte after every pair of zeros
// followed by a byte <= 3.
func Escape(data []byte) []byte {
	out := make([]byte, 0, len(data)+4)
	zeros := 0
	for _, b := range data {
		if zeros >= 2 && b <= 3 {
			out = append(out, 0x03)
			zeros = 0
		}
		out = append(out, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}
