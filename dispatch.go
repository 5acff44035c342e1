package matconv

import "fmt"

// run launches u over g on q. When blocking is set it also waits for the
// queue to drain.
func run(u *ExecuteUnit, g DispatchGeometry, q Queue, blocking bool) error {
	Logger().Debug("matconv: dispatch",
		"kernel", u.Kernel.Name(),
		"global", g.Global,
		"local", g.Local,
		"blocking", blocking)

	if err := q.Enqueue(u.Kernel, g.Global, g.Local); err != nil {
		return fmt.Errorf("%w: enqueue %s: %w", ErrDispatchFailure, u.Kernel.Name(), err)
	}
	if blocking {
		if err := q.Finish(); err != nil {
			return fmt.Errorf("%w: finish %s: %w", ErrDispatchFailure, u.Kernel.Name(), err)
		}
	}
	return nil
}
