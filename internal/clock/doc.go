// Package clock implements the controller's time service: a continuous
// epoch timestamp derived from a monotonic tick counter plus a boot-time
// absolute reading, with periodic additive correction against the external
// clock and calendar-day extraction for the statistics rollover.
package clock
