// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GermanBionicSystems/dht/dht22"
	"github.com/GermanBionicSystems/dht/panel"
	"periph.io/x/conn/v3/physic"
)

var valid = dht22.Reading{Temperature: 26, Humidity: 40, Status: dht22.StatusValid}

func TestEnv(t *testing.T) {
	e := env(dht22.Reading{Temperature: -10.1, Humidity: 55.5})
	if want := physic.ZeroCelsius - 10_100*physic.MilliKelvin; e.Temperature != want {
		t.Errorf("temperature %s, want %s", e.Temperature, want)
	}
	if want := 55*physic.PercentRH + 5*physic.MilliRH; e.Humidity != want {
		t.Errorf("humidity %s, want %s", e.Humidity, want)
	}
}

func TestEncodeState(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	b, err := encodeState(valid, at)
	if err != nil {
		t.Fatal(err)
	}
	var got statePayload
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	want := statePayload{Temperature: 26, Humidity: 40, Status: "valid", Timestamp: "2024-03-01T12:30:00Z"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDiscoveryPayloads(t *testing.T) {
	cfg := DefaultConfig().MQTT
	if p, err := discoveryPayloads(cfg); err != nil || p != nil {
		t.Fatalf("discovery should be off by default, got %v %v", p, err)
	}
	cfg.DiscoveryPrefix = "homeassistant"
	p, err := discoveryPayloads(cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, ok := p["homeassistant/sensor/dht22_temperature/config"]
	if !ok || len(p) != 2 {
		t.Fatalf("unexpected topics %v", p)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["state_topic"] != cfg.Topic || doc["device_class"] != "temperature" || doc["unique_id"] != "dht22_temperature" {
		t.Fatalf("unexpected payload %v", doc)
	}
	if _, ok := p["homeassistant/sensor/dht22_humidity/config"]; !ok {
		t.Fatal("humidity discovery missing")
	}
}

func TestPNGOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	o := &pngOutput{path: path, opts: panel.DefaultOpts}
	if err := o.publish(dht22.Reading{Status: dht22.StatusTimeout}, time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("failed readings should not be rendered")
	}
	if err := o.publish(valid, time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}

func TestOpenOutputsUnknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Outputs = []string{"png", "lcd"}
	if _, err := openOutputs(cfg); err == nil {
		t.Fatal("unknown output accepted")
	}
}
