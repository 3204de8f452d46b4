package ec

import (
	"fmt"
	"time"
)

// fadeStepPause is the delay between 1% fade steps. The controller is
// slow; pushing steps faster than this makes it drop writes.
const fadeStepPause = 3 * time.Millisecond

// FadeTo ramps the backlight from its current level to target in 1%
// steps so transitions are smooth instead of abrupt. The pause argument
// exists for tests; pass 0 to use the default.
func FadeTo(ch Channel, target int, pause time.Duration) error {
	if pause == 0 {
		pause = fadeStepPause
	}
	target = clampPercent(target)

	cur, err := ch.Brightness()
	if err != nil {
		return fmt.Errorf("fade: %w", err)
	}

	for cur != target {
		if cur > target {
			cur--
		} else {
			cur++
		}
		if err := ch.SetBrightness(cur); err != nil {
			return fmt.Errorf("fade: %w", err)
		}
		time.Sleep(pause)
	}
	return nil
}
