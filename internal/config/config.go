package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every deployment-specific parameter of the controller.
// Thresholds and windows vary per plant and per hardware revision, so none
// of them are compiled in.
type Config struct {
	// StateFile is the path of the checkpointed record image.
	StateFile string `yaml:"state_file"`
	// CycleInterval is the control-cycle period.
	CycleInterval time.Duration `yaml:"cycle_interval"`
	// ResyncInterval is how often the epoch clock is corrected against
	// the external absolute clock.
	ResyncInterval time.Duration `yaml:"resync_interval"`
	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Pump configures the watering actuator.
	Pump PumpConfig `yaml:"pump"`
	// Heater configures the soil-frost-protection actuator.
	Heater HeaterConfig `yaml:"heater"`
	// Cooldowns configures the inhibition windows.
	Cooldowns CooldownConfig `yaml:"cooldowns"`
	// Container describes the water reservoir.
	Container ContainerConfig `yaml:"container"`
	// MQTT configures telemetry and remote commands; empty broker disables it.
	MQTT MQTTConfig `yaml:"mqtt"`
	// GPIO maps sensors, actuators and buttons to hardware lines.
	GPIO GPIOConfig `yaml:"gpio"`
}

// PumpConfig describes the pump's rate and duty cycle. The on-duration is
// derived: the portion converted to milliseconds at the configured rate.
type PumpConfig struct {
	// RateMLPer100s is the pump speed in millilitres per 100 seconds.
	RateMLPer100s uint32 `yaml:"rate_ml_per_100s"`
	// PortionML is the amount of water pumped per activation.
	PortionML uint32 `yaml:"portion_ml"`
	// Period is one full pump duty cycle: on-duration plus idle-duration.
	Period time.Duration `yaml:"period"`
	// MoistureThresholdPercent triggers watering when soil moisture reads
	// strictly below it.
	MoistureThresholdPercent uint8 `yaml:"moisture_threshold_percent"`
}

// HeaterConfig describes the frost-protection heater.
type HeaterConfig struct {
	// Enabled turns the heater state machine on; pump-only deployments
	// leave it off.
	Enabled bool `yaml:"enabled"`
	// OnDuration is how long the heater runs per activation.
	OnDuration time.Duration `yaml:"on_duration"`
	// IdleDuration is the minimum rest between activations.
	IdleDuration time.Duration `yaml:"idle_duration"`
	// SetPointC triggers heating when soil temperature is strictly below it.
	SetPointC float64 `yaml:"set_point_c"`
}

// CooldownConfig holds the inhibition windows and blocking predicates.
type CooldownConfig struct {
	// WetWindow inhibits the pump after the float switch reported wet.
	WetWindow time.Duration `yaml:"wet_window"`
	// ForceStopWindow inhibits after an operator force-stop.
	ForceStopWindow time.Duration `yaml:"force_stop_window"`
	// MotionWindow inhibits while someone was recently near the plant.
	MotionWindow time.Duration `yaml:"motion_window"`
	// SeasonStartMonth and SeasonEndMonth bound the watering season,
	// inclusive. Both zero disables the seasonal block.
	SeasonStartMonth uint8 `yaml:"season_start_month"`
	SeasonEndMonth   uint8 `yaml:"season_end_month"`
	// MinPumpTempC blocks watering when soil temperature is below it,
	// so frozen soil is never watered.
	MinPumpTempC float64 `yaml:"min_pump_temp_c"`
}

// ContainerConfig describes the water reservoir feeding the pump.
type ContainerConfig struct {
	// SizeML is the container volume.
	SizeML uint32 `yaml:"size_ml"`
	// LowWaterML raises the low-water alarm when the remaining volume
	// drops below it.
	LowWaterML uint32 `yaml:"low_water_ml"`
}

// MQTTConfig configures the telemetry broker connection.
type MQTTConfig struct {
	// Broker is the MQTT broker URL, e.g. "tcp://localhost:1883".
	Broker string `yaml:"broker"`
	// ClientID identifies this controller to the broker.
	ClientID string `yaml:"client_id"`
	// StatusInterval is how often a full status snapshot is published.
	StatusInterval time.Duration `yaml:"status_interval"`
}

// GPIOConfig maps logical lines to hardware offsets on one chip.
type GPIOConfig struct {
	// Chip is the GPIO character device name.
	Chip string `yaml:"chip"`
	// WaterLevelPin reads the float switch.
	WaterLevelPin int `yaml:"water_level_pin"`
	// MotionPin reads the motion sensor.
	MotionPin int `yaml:"motion_pin"`
	// PumpPin and HeaterPin drive the actuator relays.
	PumpPin   int `yaml:"pump_pin"`
	HeaterPin int `yaml:"heater_pin"`
	// ForceStopPin, ForceRunPin, ResetStatsPin, RefillPin and DisplayPin
	// read the operator buttons, active-low.
	ForceStopPin  int `yaml:"force_stop_pin"`
	ForceRunPin   int `yaml:"force_run_pin"`
	ResetStatsPin int `yaml:"reset_stats_pin"`
	RefillPin     int `yaml:"refill_pin"`
	DisplayPin    int `yaml:"display_pin"`
	// MoistureADCPath is the sysfs IIO voltage file for the moisture divider.
	MoistureADCPath string `yaml:"moisture_adc_path"`
	// TemperaturePath is the 1-wire slave file for the soil probe.
	TemperaturePath string `yaml:"temperature_path"`
}

const (
	// DefaultConfigFilename is the default filename for controller settings.
	DefaultConfigFilename = "plantguard-settings.yaml"

	// DefaultStateFilename is the default filename for the record image.
	DefaultStateFilename = "plantguard-state.bin"

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600

	// DefaultCycleInterval is the default control-cycle period.
	DefaultCycleInterval = time.Second

	// DefaultResyncInterval is the default clock-correction interval.
	DefaultResyncInterval = time.Hour

	// defaultMoistureThreshold is the fallback watering trigger threshold.
	defaultMoistureThreshold = 60
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPumpRateRequired is returned when the pump rate is zero.
	errPumpRateRequired = errors.New("pump rate must be positive")
	// errPumpPortionRequired is returned when the pump portion is zero.
	errPumpPortionRequired = errors.New("pump portion must be positive")
	// errPumpPeriodTooShort is returned when one portion cannot fit in a period.
	errPumpPeriodTooShort = errors.New("pump period must exceed the portion on-duration")
	// errSeasonMonthsInvalid is returned for out-of-range season months.
	errSeasonMonthsInvalid = errors.New("season months must be 1-12, or both 0")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults.
//
//nolint:cyclop // Sequential field checks read better unsplit.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	if cfg.CycleInterval <= 0 {
		cfg.CycleInterval = DefaultCycleInterval
	}

	if cfg.ResyncInterval <= 0 {
		cfg.ResyncInterval = DefaultResyncInterval
	}

	if cfg.Pump.RateMLPer100s == 0 {
		return errPumpRateRequired
	}

	if cfg.Pump.PortionML == 0 {
		return errPumpPortionRequired
	}

	if cfg.Pump.MoistureThresholdPercent == 0 || cfg.Pump.MoistureThresholdPercent > 100 {
		cfg.Pump.MoistureThresholdPercent = defaultMoistureThreshold
	}

	if cfg.Pump.Period <= PumpOnDuration(&cfg.Pump) {
		return errPumpPeriodTooShort
	}

	if cfg.Heater.Enabled && cfg.Heater.OnDuration <= 0 {
		cfg.Heater.OnDuration = 10 * time.Minute
	}

	if cfg.Heater.Enabled && cfg.Heater.IdleDuration <= 0 {
		cfg.Heater.IdleDuration = 20 * time.Minute
	}

	if cfg.Cooldowns.WetWindow <= 0 {
		cfg.Cooldowns.WetWindow = time.Hour
	}

	if cfg.Cooldowns.ForceStopWindow <= 0 {
		cfg.Cooldowns.ForceStopWindow = time.Hour
	}

	if cfg.Cooldowns.MotionWindow <= 0 {
		cfg.Cooldowns.MotionWindow = 15 * time.Minute
	}

	if err := validateSeason(&cfg.Cooldowns); err != nil {
		return err
	}

	if cfg.Container.SizeML == 0 {
		cfg.Container.SizeML = 28_000
	}

	if cfg.Container.LowWaterML == 0 {
		cfg.Container.LowWaterML = 3_000
	}

	if cfg.MQTT.Broker != "" && cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "plantguard"
	}

	if cfg.MQTT.Broker != "" && cfg.MQTT.StatusInterval <= 0 {
		cfg.MQTT.StatusInterval = time.Minute
	}

	if cfg.GPIO.Chip == "" {
		cfg.GPIO.Chip = "gpiochip0"
	}

	return nil
}

// PumpOnDuration converts the configured portion to an on-duration at the
// configured rate, with truncating integer division.
func PumpOnDuration(p *PumpConfig) time.Duration {
	if p.RateMLPer100s == 0 {
		return 0
	}

	ms := uint64(p.PortionML) * 100_000 / uint64(p.RateMLPer100s)

	return time.Duration(ms) * time.Millisecond
}

func validateSeason(c *CooldownConfig) error {
	if c.SeasonStartMonth == 0 && c.SeasonEndMonth == 0 {
		return nil
	}

	if c.SeasonStartMonth < 1 || c.SeasonStartMonth > 12 ||
		c.SeasonEndMonth < 1 || c.SeasonEndMonth > 12 {
		return errSeasonMonthsInvalid
	}

	return nil
}
