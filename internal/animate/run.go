package animate

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"libdb.so/ws281x"
)

// Run draws p onto the first channel of c and shows every frame, waiting
// interval between frames. It returns nil once the pattern is done, or the
// context error once ctx is canceled. Cancellation is checked between
// frames.
func Run(ctx context.Context, c *ws281x.Client, p Pattern, interval time.Duration) error {
	ch, err := c.Channel(0)
	if err != nil {
		return err
	}

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := p.Frame(ch, step)
		if err != nil {
			return errors.Wrapf(err, "failed to draw frame %d", step)
		}

		if err := c.Show(); err != nil {
			return err
		}

		if done {
			return nil
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}
}
