package proton

import "fmt"

// BitStream is an MSB-first bit cursor over a byte buffer.
//
// A stream is used in one direction: writers append fields with WriteBits and
// materialize them with Bytes, readers consume fields with ReadBits and Peek.
// Partial output bytes are held in the spill until eight bits accumulate or
// the stream is flushed. Readers pull at most one byte ahead of the cursor
// into the lookahead.
type BitStream struct {
	buf []byte

	spill  byte
	nspill uint

	next  int // index of the next byte to pull
	look  byte
	nlook uint
}

// NewBitWriter returns an empty stream for writing.
func NewBitWriter() *BitStream {
	return &BitStream{buf: make([]byte, 0, 64)}
}

// NewBitReader returns a stream positioned at the first bit of b.
// The stream does not copy b.
func NewBitReader(b []byte) *BitStream {
	return &BitStream{buf: b}
}

// Reset empties the stream and keeps its storage.
func (s *BitStream) Reset() {
	s.buf = s.buf[:0]
	s.spill, s.nspill = 0, 0
	s.next, s.look, s.nlook = 0, 0, 0
}

// WriteBits appends the low width bits of v, most significant first.
// It panics if width exceeds 64.
func (s *BitStream) WriteBits(v uint64, width uint) {
	if width > 64 {
		panic(fmt.Sprintf("proton: bit width %d out of range", width))
	}
	for width > 0 {
		k := 8 - s.nspill
		if k > width {
			k = width
		}
		chunk := byte((v >> (width - k)) & (1<<k - 1))
		s.spill = s.spill<<k | chunk
		s.nspill += k
		width -= k
		if s.nspill == 8 {
			s.buf = append(s.buf, s.spill)
			s.spill, s.nspill = 0, 0
		}
	}
}

// WriteBytes appends each byte of b as an 8-bit field.
func (s *BitStream) WriteBytes(b []byte) {
	if s.nspill == 0 {
		s.buf = append(s.buf, b...)
		return
	}
	for _, c := range b {
		s.WriteBits(uint64(c), 8)
	}
}

// Flush zero-pads a pending partial byte and appends it.
func (s *BitStream) Flush() {
	if s.nspill == 0 {
		return
	}
	s.buf = append(s.buf, s.spill<<(8-s.nspill))
	s.spill, s.nspill = 0, 0
}

// Bytes flushes pending writes and returns a copy of the buffer.
func (s *BitStream) Bytes() []byte {
	s.Flush()
	return append([]byte(nil), s.buf...)
}

// Len returns the number of bits written so far, including the spill.
func (s *BitStream) Len() int {
	return len(s.buf)*8 + int(s.nspill)
}

// Tell returns the absolute bit position of the read cursor.
func (s *BitStream) Tell() int {
	return s.next*8 - int(s.nlook)
}

// Remaining returns the number of unread bits.
func (s *BitStream) Remaining() int {
	return (len(s.buf)-s.next)*8 + int(s.nlook)
}

// Seek flushes pending writes, drops the lookahead and moves the read cursor
// to the absolute bit position pos.
func (s *BitStream) Seek(pos int) error {
	s.Flush()
	if pos < 0 || pos > len(s.buf)*8 {
		return fmt.Errorf("%w: seek to bit %d of %d", ErrExhausted, pos, len(s.buf)*8)
	}
	s.next = pos / 8
	s.look, s.nlook = 0, 0
	if skip := uint(pos % 8); skip != 0 {
		s.look = s.buf[s.next] << skip
		s.nlook = 8 - skip
		s.next++
	}
	return nil
}

// ReadBits consumes the next width bits. If fewer remain, nothing is consumed
// and ErrExhausted is returned.
func (s *BitStream) ReadBits(width uint) (uint64, error) {
	if width > 64 {
		return 0, fmt.Errorf("proton: bit width %d out of range", width)
	}
	if int(width) > s.Remaining() {
		return 0, fmt.Errorf("%w: need %d bits, have %d", ErrExhausted, width, s.Remaining())
	}
	var out uint64
	for width > 0 {
		if s.nlook == 0 {
			s.look = s.buf[s.next]
			s.nlook = 8
			s.next++
		}
		k := s.nlook
		if k > width {
			k = width
		}
		out = out<<k | uint64(s.look>>(8-k))
		s.look <<= k
		s.nlook -= k
		width -= k
	}
	return out, nil
}

// Peek returns the next width bits without moving the cursor.
func (s *BitStream) Peek(width uint) (uint64, error) {
	pos := s.Tell()
	v, err := s.ReadBits(width)
	if err != nil {
		return 0, err
	}
	if err := s.Seek(pos); err != nil {
		return 0, err
	}
	return v, nil
}

// ReadBytes consumes n 8-bit fields.
func (s *BitStream) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n*8 > s.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes, have %d bits", ErrExhausted, n, s.Remaining())
	}
	if s.nlook == 0 {
		out := append([]byte(nil), s.buf[s.next:s.next+n]...)
		s.next += n
		return out, nil
	}
	out := make([]byte, n)
	for i := range out {
		v, err := s.ReadBits(8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}
