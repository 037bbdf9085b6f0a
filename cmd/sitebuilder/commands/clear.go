package commands

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ClearCmd implements the 'clear' command.
type ClearCmd struct {
	All bool `help:"Also remove the .git folder inside the staging directory"`
}

func (c *ClearCmd) Run(_ *Global, root *CLI) error {
	a, err := loadApp(root)
	if err != nil {
		return err
	}
	defer a.Close()
	return c.run(context.Background(), a, os.Stdout)
}

func (c *ClearCmd) run(ctx context.Context, a *app, out io.Writer) error {
	lock, err := a.staging.Lock()
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if c.All {
		err = a.staging.ClearAll(ctx)
	} else {
		err = a.staging.Clear(ctx)
	}
	if err != nil {
		return err
	}
	if !a.staging.Safe() {
		_, _ = fmt.Fprintf(out, "Refused to clear %s: directory name must contain \"buffer\"\n", a.staging.Dir())
		return nil
	}
	_, _ = fmt.Fprintf(out, "Cleared %s\n", a.staging.Dir())
	return nil
}
