package ec

import "log/slog"

// noop implements Channel as a no-op for development machines without
// a reachable embedded controller.
type noop struct {
	logger     *slog.Logger
	brightness int
	indicator  bool
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{logger: logger}
}

func (n *noop) SetBrightness(percent int) error {
	n.brightness = clampPercent(percent)
	n.logger.Debug("embedded controller not available (no-op)", "brightness", n.brightness)
	return nil
}

func (n *noop) Brightness() (int, error) {
	return n.brightness, nil
}

func (n *noop) SetIndicator(on bool) error {
	n.indicator = on
	n.logger.Debug("embedded controller not available (no-op)", "indicator", on)
	return nil
}

func (n *noop) Close() error {
	return nil
}
