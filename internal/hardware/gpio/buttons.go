package gpio

import (
	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// ButtonStates is one debounced snapshot of every operator button,
// true meaning pressed.
type ButtonStates struct {
	ForceStop  bool
	ForceRun   bool
	ResetStats bool
	Refill     bool
	Display    bool
}

// EdgeDecoder turns successive button snapshots into edge-triggered
// commands. Most buttons fire on the press edge only; force-run follows
// both edges so the pump runs exactly while the button is held.
type EdgeDecoder struct {
	prev ButtonStates
}

// Decode compares the snapshot against the previous one and returns the
// commands for any edges observed.
func (d *EdgeDecoder) Decode(cur ButtonStates) []domain.Command {
	var commands []domain.Command

	if cur.ForceStop && !d.prev.ForceStop {
		commands = append(commands, domain.Command{Type: domain.CommandForceStop})
	}

	if cur.ForceRun != d.prev.ForceRun {
		commands = append(commands, domain.Command{Type: domain.CommandForceRun, On: cur.ForceRun})
	}

	if cur.ResetStats && !d.prev.ResetStats {
		commands = append(commands, domain.Command{Type: domain.CommandResetStatistics})
	}

	if cur.Refill && !d.prev.Refill {
		commands = append(commands, domain.Command{Type: domain.CommandResetContainerTotal})
	}

	if cur.Display && !d.prev.Display {
		commands = append(commands, domain.Command{Type: domain.CommandChangeDisplayMode})
	}

	d.prev = cur

	return commands
}
