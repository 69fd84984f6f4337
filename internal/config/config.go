package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server runtime configuration loaded from wuphf.yaml.
// Zero values fall back to Defaults() field by field so a partial file
// only overrides what it names.
type Config struct {
	Addr    string `yaml:"addr"`
	DataDir string `yaml:"data_dir"`

	// Simulated latencies. The demo stagger is the enforced pause between
	// successive channel pushes in demo mode.
	ChannelDelayMs int `yaml:"channel_delay_ms"`
	PrinterDelayMs int `yaml:"printer_delay_ms"`
	DemoStaggerMs  int `yaml:"demo_stagger_ms"`

	RecentLimit     int `yaml:"recent_limit"`
	MaxContentChars int `yaml:"max_content_chars"`
	ClientQueue     int `yaml:"client_queue"`
}

func Defaults() Config {
	return Config{
		Addr:            ":8080",
		DataDir:         "./data",
		ChannelDelayMs:  500,
		PrinterDelayMs:  2000,
		DemoStaggerMs:   500,
		RecentLimit:     50,
		MaxContentChars: 280,
		ClientQueue:     64,
	}
}

func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return c, fmt.Errorf("wuphf.yaml: %w", err)
	}
	c.merge(file)
	return c, nil
}

func (c *Config) merge(o Config) {
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.ChannelDelayMs > 0 {
		c.ChannelDelayMs = o.ChannelDelayMs
	}
	if o.PrinterDelayMs > 0 {
		c.PrinterDelayMs = o.PrinterDelayMs
	}
	if o.DemoStaggerMs > 0 {
		c.DemoStaggerMs = o.DemoStaggerMs
	}
	if o.RecentLimit > 0 {
		c.RecentLimit = o.RecentLimit
	}
	if o.MaxContentChars > 0 {
		c.MaxContentChars = o.MaxContentChars
	}
	if o.ClientQueue > 0 {
		c.ClientQueue = o.ClientQueue
	}
}

func (c Config) ChannelDelay() time.Duration { return time.Duration(c.ChannelDelayMs) * time.Millisecond }
func (c Config) PrinterDelay() time.Duration { return time.Duration(c.PrinterDelayMs) * time.Millisecond }
func (c Config) DemoStagger() time.Duration  { return time.Duration(c.DemoStaggerMs) * time.Millisecond }
