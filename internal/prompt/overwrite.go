package prompt

import (
	"context"
	"fmt"
	"sync"
)

// Overwrite choices, in the order they are offered.
const (
	ChoiceOverwrite = iota
	ChoiceSkip
	ChoiceOverwriteAll
	ChoiceSkipAll
	ChoiceAbort
)

var overwriteOptions = []string{
	"Overwrite",
	"Skip",
	"Overwrite all",
	"Skip all",
	"Abort",
}

// OverwriteConfirmer asks before replacing existing files. "all" answers are
// remembered for the rest of the run. It satisfies output.Confirmer.
type OverwriteConfirmer struct {
	driver Driver

	mu     sync.Mutex
	always *bool
}

// NewOverwriteConfirmer wraps driver.
func NewOverwriteConfirmer(driver Driver) *OverwriteConfirmer {
	return &OverwriteConfirmer{driver: driver}
}

// ConfirmOverwrite asks whether path may be replaced. Choosing abort returns
// ErrAborted.
func (c *OverwriteConfirmer) ConfirmOverwrite(ctx context.Context, path string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.always != nil {
		return *c.always, nil
	}

	choice, err := c.driver.Select(ctx, SelectConfig{
		Message:      fmt.Sprintf("%s already exists.", path),
		Options:      overwriteOptions,
		DefaultIndex: ChoiceSkip,
	})
	if err != nil {
		return false, err
	}

	switch choice {
	case ChoiceOverwrite:
		return true, nil
	case ChoiceOverwriteAll:
		yes := true
		c.always = &yes
		return true, nil
	case ChoiceSkipAll:
		no := false
		c.always = &no
		return false, nil
	case ChoiceAbort:
		return false, ErrAborted
	default:
		return false, nil
	}
}
