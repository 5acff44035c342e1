package matconv

import "fmt"

// stagingBuffer is the one linear device buffer a Converter uses to move
// bytes between host memory and device images. It only grows: a request
// that fits the current capacity reuses the buffer as is.
type stagingBuffer struct {
	rt  Runtime
	buf Memory
}

// ensure makes the capacity at least StagingBytes(d). On allocation
// failure the previous buffer is kept.
func (s *stagingBuffer) ensure(d Dims) error {
	return s.reserve(StagingBytes(d))
}

func (s *stagingBuffer) reserve(need uint64) error {
	if s.buf != nil && s.buf.Size() >= need {
		return nil
	}
	buf, err := s.rt.CreateBuffer(need)
	if err != nil {
		return fmt.Errorf("%w: staging buffer of %d bytes: %w", ErrAllocationFailure, need, err)
	}
	if buf == nil {
		return fmt.Errorf("%w: staging buffer of %d bytes", ErrAllocationFailure, need)
	}
	old := s.capacity()
	if s.buf != nil {
		s.buf.Release()
	}
	s.buf = buf
	Logger().Debug("matconv: staging buffer grown", "from", old, "to", buf.Size())
	return nil
}

func (s *stagingBuffer) capacity() uint64 {
	if s.buf == nil {
		return 0
	}
	return s.buf.Size()
}

func (s *stagingBuffer) release() {
	if s.buf != nil {
		s.buf.Release()
		s.buf = nil
	}
}
