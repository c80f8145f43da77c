// File: internal/service/components.go
package service

import (
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/agent"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/noise"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/observe"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/sim"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/telemetry"
	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/world"
	"go.uber.org/zap"
)

// Components holds everything one agent instance needs, and centralizes the
// release of the resources it owns.
type Components struct {
	RunID  string
	Seed   uint64
	Grid   *world.Grid
	Noise  *noise.Model
	Engine *observe.Engine
	Clock  *sim.Clock
	Agent  *agent.Agent
	Belief *telemetry.Belief

	logger  *zap.Logger
	closers []func()
}

// Shutdown releases owned sinks in reverse order of creation. It is safe to
// call more than once.
func (c *Components) Shutdown() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
	if c.logger != nil {
		c.logger.Debug("Components shut down.", zap.String("run_id", c.RunID))
	}
}

func (c *Components) onShutdown(fn func()) {
	c.closers = append(c.closers, fn)
}
