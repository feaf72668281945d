// Package config defines the controller's deployment settings and provides
// helpers to load, validate and save them in YAML format.
//
// The Config type carries every per-deployment threshold: pump rate and
// portion, heater set point, cooldown windows, container volume, hardware
// line mapping and the telemetry broker.
package config
