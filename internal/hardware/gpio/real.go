//go:build linux

package gpio

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"

	"github.com/verdantlabs/plantguard/internal/config"
	domain "github.com/verdantlabs/plantguard/internal/domain/irrigation"
)

// Real drives the actual controller hardware: digital lines through the
// Linux GPIO character device, the moisture divider through a sysfs IIO
// voltage file and the soil probe through a 1-wire slave file.
// It implements Sensors, Outputs and Buttons over one chip handle.
type Real struct {
	chip *gpiocdev.Chip

	waterLevel *gpiocdev.Line
	motion     *gpiocdev.Line

	pump   *gpiocdev.Line
	heater *gpiocdev.Line

	forceStop  *gpiocdev.Line
	forceRun   *gpiocdev.Line
	resetStats *gpiocdev.Line
	refill     *gpiocdev.Line
	display    *gpiocdev.Line

	decoder EdgeDecoder

	moisturePath    string
	temperaturePath string
}

// adcFullScale is the raw reading at 100 % moisture on the 10-bit divider.
const adcFullScale = 1023

// NewReal opens the configured chip and requests every line. Buttons and
// the float switch are requested with pull-ups and read active-low; a
// heater pin of zero leaves the heater output unwired.
func NewReal(cfg *config.GPIOConfig) (*Real, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}

	r := &Real{
		chip:            chip,
		moisturePath:    cfg.MoistureADCPath,
		temperaturePath: cfg.TemperaturePath,
	}

	if err := r.request(cfg); err != nil {
		r.Close()

		return nil, err
	}

	return r, nil
}

func (r *Real) request(cfg *config.GPIOConfig) error {
	var err error

	if r.waterLevel, err = r.chip.RequestLine(cfg.WaterLevelPin, gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		return fmt.Errorf("request water level pin %d: %w", cfg.WaterLevelPin, err)
	}

	if r.motion, err = r.chip.RequestLine(cfg.MotionPin, gpiocdev.AsInput); err != nil {
		return fmt.Errorf("request motion pin %d: %w", cfg.MotionPin, err)
	}

	if r.pump, err = r.chip.RequestLine(cfg.PumpPin, gpiocdev.AsOutput(0)); err != nil {
		return fmt.Errorf("request pump pin %d: %w", cfg.PumpPin, err)
	}

	if cfg.HeaterPin != 0 {
		if r.heater, err = r.chip.RequestLine(cfg.HeaterPin, gpiocdev.AsOutput(0)); err != nil {
			return fmt.Errorf("request heater pin %d: %w", cfg.HeaterPin, err)
		}
	}

	buttons := []struct {
		name string
		pin  int
		line **gpiocdev.Line
	}{
		{"force stop", cfg.ForceStopPin, &r.forceStop},
		{"force run", cfg.ForceRunPin, &r.forceRun},
		{"reset stats", cfg.ResetStatsPin, &r.resetStats},
		{"refill", cfg.RefillPin, &r.refill},
		{"display", cfg.DisplayPin, &r.display},
	}

	for _, b := range buttons {
		if b.pin == 0 {
			continue
		}

		if *b.line, err = r.chip.RequestLine(b.pin, gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			return fmt.Errorf("request %s pin %d: %w", b.name, b.pin, err)
		}
	}

	return nil
}

// Read returns the current sensor sample. The moisture divider substitutes
// a conservative 100 % on read failure; the temperature probe surfaces its
// failure through TemperatureOK so the core can substitute safely.
func (r *Real) Read() (domain.SensorSample, error) {
	var sample domain.SensorSample

	wet, err := r.waterLevel.Value()
	if err != nil {
		return sample, fmt.Errorf("read water level: %w", err)
	}

	// The float switch pulls the line high while submerged.
	sample.WaterLevel = wet != 0

	motion, err := r.motion.Value()
	if err != nil {
		return sample, fmt.Errorf("read motion: %w", err)
	}

	sample.MotionDetected = motion != 0
	sample.MoisturePercent = r.readMoisture()
	sample.TemperatureC, sample.TemperatureOK = r.readTemperature()

	return sample, nil
}

func (r *Real) readMoisture() uint8 {
	if r.moisturePath == "" {
		return 100
	}

	contents, err := os.ReadFile(r.moisturePath)
	if err != nil {
		return 100
	}

	raw, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || raw < 0 {
		return 100
	}

	percent := raw * 100 / adcFullScale
	if percent > 100 {
		percent = 100
	}

	return uint8(percent)
}

func (r *Real) readTemperature() (float64, bool) {
	if r.temperaturePath == "" {
		return 0, false
	}

	contents, err := os.ReadFile(r.temperaturePath)
	if err != nil {
		return 0, false
	}

	// 1-wire slave format ends in "t=<millidegrees>".
	text := string(contents)

	idx := strings.LastIndex(text, "t=")
	if idx < 0 {
		return 0, false
	}

	milli, err := strconv.Atoi(strings.TrimSpace(text[idx+2:]))
	if err != nil {
		return 0, false
	}

	return float64(milli) / 1000, true
}

// SetPump asserts or de-asserts the pump relay.
func (r *Real) SetPump(on bool) error {
	if err := r.pump.SetValue(boolToValue(on)); err != nil {
		return fmt.Errorf("set pump output: %w", err)
	}

	return nil
}

// SetHeater asserts or de-asserts the heater relay.
// A no-op when the heater output is unwired.
func (r *Real) SetHeater(on bool) error {
	if r.heater == nil {
		return nil
	}

	if err := r.heater.SetValue(boolToValue(on)); err != nil {
		return fmt.Errorf("set heater output: %w", err)
	}

	return nil
}

// Poll reads the operator buttons and decodes edge-triggered commands.
// Buttons are wired active-low against the pull-ups.
func (r *Real) Poll() ([]domain.Command, error) {
	states := ButtonStates{
		ForceStop:  r.pressed(r.forceStop),
		ForceRun:   r.pressed(r.forceRun),
		ResetStats: r.pressed(r.resetStats),
		Refill:     r.pressed(r.refill),
		Display:    r.pressed(r.display),
	}

	return r.decoder.Decode(states), nil
}

func (r *Real) pressed(line *gpiocdev.Line) bool {
	if line == nil {
		return false
	}

	v, err := line.Value()
	if err != nil {
		return false
	}

	return v == 0
}

// Close de-asserts the outputs and releases every line and the chip.
func (r *Real) Close() error {
	var errs []error

	if r.pump != nil {
		errs = append(errs, r.pump.SetValue(0), r.pump.Close())
	}

	if r.heater != nil {
		errs = append(errs, r.heater.SetValue(0), r.heater.Close())
	}

	for _, line := range []*gpiocdev.Line{
		r.waterLevel, r.motion, r.forceStop, r.forceRun, r.resetStats, r.refill, r.display,
	} {
		if line != nil {
			errs = append(errs, line.Close())
		}
	}

	if r.chip != nil {
		errs = append(errs, r.chip.Close())
	}

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("close gpio: %w", err)
		}
	}

	return nil
}

func boolToValue(on bool) int {
	if on {
		return 1
	}

	return 0
}
