// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/GermanBionicSystems/dht/dht22"
	"github.com/GermanBionicSystems/dht/panel"
	"github.com/GermanBionicSystems/dht/screen1d"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/physic"
)

// output receives every reading taken by the polling loop.
type output interface {
	publish(r dht22.Reading, at time.Time) error
	close() error
}

func openOutputs(cfg Config) ([]output, error) {
	var outs []output
	for _, name := range cfg.Outputs {
		var o output
		var err error
		switch name {
		case "console":
			o = &consoleOutput{d: screen1d.New(&screen1d.Opts{X: cfg.Width})}
		case "png":
			o = &pngOutput{path: cfg.PNGPath, opts: panel.DefaultOpts}
		case "mqtt":
			o, err = newMQTTOutput(cfg.MQTT)
		default:
			err = fmt.Errorf("unknown output %q", name)
		}
		if err != nil {
			closeOutputs(outs)
			return nil, err
		}
		outs = append(outs, o)
	}
	return outs, nil
}

func closeOutputs(outs []output) {
	for _, o := range outs {
		_ = o.close()
	}
}

// env converts a reading to physic units, rounded to the sensor resolution.
func env(r dht22.Reading) physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + (physic.Celsius/10)*physic.Temperature(math.Round(r.Temperature*10)),
		Humidity:    physic.MilliRH * physic.RelativeHumidity(math.Round(r.Humidity*10)),
	}
}

type consoleOutput struct {
	d *screen1d.Dev
}

func (c *consoleOutput) publish(r dht22.Reading, _ time.Time) error {
	if r.Status != dht22.StatusValid {
		return nil
	}
	return c.d.Display(env(r))
}

func (c *consoleOutput) close() error {
	return c.d.Halt()
}

type pngOutput struct {
	path string
	opts panel.Opts
}

func (p *pngOutput) publish(r dht22.Reading, at time.Time) error {
	if r.Status != dht22.StatusValid {
		return nil
	}
	opts := p.opts
	opts.Title = at.Format("15:04:05")
	return panel.SavePNG(p.path, env(r), &opts)
}

func (p *pngOutput) close() error {
	return nil
}

// statePayload is the JSON document published on the state topic.
type statePayload struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
}

func encodeState(r dht22.Reading, at time.Time) ([]byte, error) {
	return json.Marshal(statePayload{
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Status:      r.Status.String(),
		Timestamp:   at.UTC().Format(time.RFC3339),
	})
}

// discoveryPayloads returns the retained Home Assistant discovery documents
// keyed by topic. It returns nil when discovery is disabled.
func discoveryPayloads(cfg MQTTConfig) (map[string][]byte, error) {
	if cfg.DiscoveryPrefix == "" {
		return nil, nil
	}
	out := map[string][]byte{}
	for _, s := range []struct {
		key, name, unit, class, tmpl string
	}{
		{"temperature", "Temperature", "°C", "temperature", "{{ value_json.temperature }}"},
		{"humidity", "Humidity", "%", "humidity", "{{ value_json.humidity }}"},
	} {
		uid := strings.ReplaceAll(cfg.ClientID, "/", "_") + "_" + s.key
		b, err := json.Marshal(map[string]interface{}{
			"name":                  s.name,
			"state_topic":           cfg.Topic,
			"unit_of_measurement":   s.unit,
			"device_class":          s.class,
			"state_class":           "measurement",
			"value_template":        s.tmpl,
			"json_attributes_topic": cfg.Topic,
			"unique_id":             uid,
		})
		if err != nil {
			return nil, err
		}
		out[fmt.Sprintf("%s/sensor/%s/config", cfg.DiscoveryPrefix, uid)] = b
	}
	return out, nil
}

type mqttOutput struct {
	client mqtt.Client
	topic  string
}

func newMQTTOutput(cfg MQTTConfig) (*mqttOutput, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	m := &mqttOutput{client: client, topic: cfg.Topic}

	discovery, err := discoveryPayloads(cfg)
	if err != nil {
		m.client.Disconnect(250)
		return nil, err
	}
	for topic, b := range discovery {
		if err := m.send(topic, b, true); err != nil {
			m.client.Disconnect(250)
			return nil, fmt.Errorf("mqtt discovery: %w", err)
		}
	}
	return m, nil
}

func (m *mqttOutput) publish(r dht22.Reading, at time.Time) error {
	b, err := encodeState(r, at)
	if err != nil {
		return err
	}
	return m.send(m.topic, b, false)
}

func (m *mqttOutput) send(topic string, b []byte, retained bool) error {
	token := m.client.Publish(topic, 0, retained, b)
	token.Wait()
	return token.Error()
}

func (m *mqttOutput) close() error {
	m.client.Disconnect(250)
	return nil
}
