package proton

import "github.com/delaneyj/toolbelt"

// writerPool recycles encode streams. A stream is owned by one Encode call
// between get and put; Bytes copies the output out before it is returned.
var writerPool = toolbelt.New(func() *BitStream { return NewBitWriter() })

const maxPooledWriter = 64 << 10

func getWriter() *BitStream {
	s := writerPool.Get()
	s.Reset()
	return s
}

func putWriter(s *BitStream) {
	if s == nil || cap(s.buf) > maxPooledWriter {
		return
	}
	s.Reset()
	writerPool.Put(s)
}
