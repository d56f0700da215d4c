// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/GermanBionicSystems/dht/dht22"
)

// MQTTConfig holds the broker settings used by the mqtt output.
type MQTTConfig struct {
	Server   string `json:"server"`
	Username string `json:"username"`
	Password string `json:"password"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
	// DiscoveryPrefix enables Home Assistant discovery when not empty,
	// usually "homeassistant".
	DiscoveryPrefix string `json:"discovery_prefix,omitempty"`
}

// Config is the complete configuration of the command.
type Config struct {
	Pin        string     `json:"pin"`
	IntervalMs int        `json:"interval_ms"`
	Outputs    []string   `json:"outputs"`
	Width      int        `json:"width"`
	PNGPath    string     `json:"png_path"`
	Simulate   bool       `json:"simulate"`
	MQTT       MQTTConfig `json:"mqtt"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Pin:        "GPIO4",
		IntervalMs: 5000,
		Outputs:    []string{"console"},
		Width:      20,
		PNGPath:    "dht22.png",
		MQTT: MQTTConfig{
			Server:   "tcp://localhost:1883",
			ClientID: "dht22",
			Topic:    "dht22/state",
		},
	}
}

// Load builds the configuration from the defaults, an optional JSON file
// and the command line. Flags override values present in the JSON file.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	cfgPath := fs.String("config", "", "Path to JSON config file")
	pin := fs.String("pin", "", "GPIO pin the sensor data line is wired to")
	interval := fs.Duration("interval", 0, "Polling interval, at least 2s")
	outputs := fs.String("outputs", "", "Comma-separated outputs (console,png,mqtt)")
	width := fs.Int("width", 0, "Width of each console gauge")
	pngPath := fs.String("png", "", "Path of the PNG written by the png output")
	simulate := fs.Bool("simulate", false, "Use a simulated sensor instead of a GPIO pin")
	mqttServer := fs.String("mqtt-server", "", "MQTT server (tcp://host:port)")
	mqttUser := fs.String("mqtt-user", "", "MQTT username")
	mqttPass := fs.String("mqtt-pass", "", "MQTT password")
	mqttClientID := fs.String("mqtt-client-id", "", "MQTT client id")
	mqttTopic := fs.String("mqtt-topic", "", "MQTT state topic")
	mqttDiscovery := fs.String("mqtt-discovery", "", "Home Assistant discovery prefix")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if *cfgPath != "" {
		b, err := os.ReadFile(*cfgPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", *cfgPath, err)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pin":
			cfg.Pin = *pin
		case "interval":
			cfg.IntervalMs = int(*interval / time.Millisecond)
		case "outputs":
			cfg.Outputs = splitList(*outputs)
		case "width":
			cfg.Width = *width
		case "png":
			cfg.PNGPath = *pngPath
		case "simulate":
			cfg.Simulate = *simulate
		case "mqtt-server":
			cfg.MQTT.Server = *mqttServer
		case "mqtt-user":
			cfg.MQTT.Username = *mqttUser
		case "mqtt-pass":
			cfg.MQTT.Password = *mqttPass
		case "mqtt-client-id":
			cfg.MQTT.ClientID = *mqttClientID
		case "mqtt-topic":
			cfg.MQTT.Topic = *mqttTopic
		case "mqtt-discovery":
			cfg.MQTT.DiscoveryPrefix = *mqttDiscovery
		}
	})
	return cfg, cfg.Validate()
}

// Validate reports the first inconsistency found in c.
func (c Config) Validate() error {
	if c.Pin == "" && !c.Simulate {
		return errors.New("config: pin is required")
	}
	if time.Duration(c.IntervalMs)*time.Millisecond < dht22.MinInterval {
		return fmt.Errorf("config: interval %dms is below the %s minimum", c.IntervalMs, dht22.MinInterval)
	}
	if len(c.Outputs) == 0 {
		return errors.New("config: at least one output is required")
	}
	for _, o := range c.Outputs {
		switch o {
		case "console":
			if c.Width <= 0 {
				return errors.New("config: width must be positive")
			}
		case "png":
			if c.PNGPath == "" {
				return errors.New("config: png output requires a path")
			}
		case "mqtt":
			if c.MQTT.Server == "" || c.MQTT.Topic == "" {
				return errors.New("config: mqtt output requires a server and a topic")
			}
		default:
			return fmt.Errorf("config: unknown output %q", o)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
