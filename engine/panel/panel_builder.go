package panel

import (
	"github.com/Carmen-Shannon/oxy-vanguard/engine/dispatch"

	"go.uber.org/zap"
)

// PanelBuilderOption is a functional option for configuring a Panel via NewPanel.
type PanelBuilderOption func(*panel)

// WithDispatcher is an option builder that sets where invoked triggers run.
// The default runs triggers inline, which is only appropriate without a frame loop.
//
// Parameters:
//   - d: the dispatcher drained by the frame loop
//
// Returns:
//   - PanelBuilderOption: a function that applies the dispatcher option to a panel
func WithDispatcher(d dispatch.Dispatcher) PanelBuilderOption {
	return func(p *panel) {
		if d != nil {
			p.dispatcher = d
		}
	}
}

// WithLogger is an option builder that sets the panel's logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - PanelBuilderOption: a function that applies the logger option to a panel
func WithLogger(logger *zap.Logger) PanelBuilderOption {
	return func(p *panel) {
		if logger != nil {
			p.logger = logger.Named("panel")
		}
	}
}
