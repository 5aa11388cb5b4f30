package retry

type fn func() error
type shouldRetry func(err error, attempt int) bool

// WrapWithBudget wraps the given function and retries it while shouldRetry
// allows, spending at most budget extra attempts. The first attempt is
// free; attempt numbers passed to shouldRetry start at 1.
func WrapWithBudget(f fn, shouldRetry shouldRetry, budget int) fn {
	return func() error {
		attempt := 0

		for {
			err := f()
			if err == nil {
				return nil
			}

			attempt++
			if attempt > budget {
				return err
			}
			if !shouldRetry(err, attempt) {
				return err
			}
		}
	}
}
