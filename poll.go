package displaywatch

import (
	"log/slog"
	"time"

	"github.com/1broseidon/displaywatch/internal/poll"
)

// pollingHook reports HintReconfigured on a fixed interval. It serves
// platforms, or sessions, without a native change notification.
type pollingHook struct {
	poller *poll.Poller
}

// NewPollingHook returns a Hook that asks for a rescan every interval. A
// non-positive interval selects a two second default.
func NewPollingHook(interval time.Duration, logger *slog.Logger) Hook {
	return &pollingHook{
		poller: poll.New(poll.Config{Interval: interval, Logger: logger}),
	}
}

func (h *pollingHook) Install(onHint func(Hint)) (HookHandle, error) {
	if err := h.poller.Start(func() {
		onHint(Hint{Kind: HintReconfigured})
	}); err != nil {
		return nil, err
	}
	return h.poller, nil
}

func (h *pollingHook) Uninstall(HookHandle) error {
	h.poller.Stop()
	return nil
}
