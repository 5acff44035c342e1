package matconv

import "fmt"

// copyMatToStaging writes the host bytes of m into the staging buffer.
func copyMatToStaging(m *Mat, s *stagingBuffer, q Queue) error {
	return transfer(m, s, q, MapWrite)
}

// copyStagingToMat reads the staging buffer into the host bytes of m.
func copyStagingToMat(m *Mat, s *stagingBuffer, q Queue) error {
	return transfer(m, s, q, MapRead)
}

func transfer(m *Mat, s *stagingBuffer, q Queue, mode MapMode) error {
	need := HostBytes(m.Type(), m.Dims())
	if have := s.capacity(); uint64(need) > have { //nolint:gosec // non-negative
		return fmt.Errorf("%w: %s %v needs %d bytes, staging holds %d",
			ErrInsufficientCapacity, m.Type(), m.Dims(), need, have)
	}

	mapped, err := q.Map(s.buf, mode)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMapFailure, mode, err)
	}
	if len(mapped) < need {
		// Still unmap so the buffer is usable again.
		_ = q.Unmap(s.buf, mapped)
		return fmt.Errorf("%w: %s mapping has %d bytes, need %d", ErrMapFailure, mode, len(mapped), need)
	}

	if mode == MapWrite {
		copy(mapped[:need], m.Data()[:need])
	} else {
		copy(m.Data()[:need], mapped[:need])
	}

	if err := q.Unmap(s.buf, mapped); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnmapFailure, mode, err)
	}
	return nil
}
