package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	data := []byte(`
device:
  spi: /dev/spidev0.0
  cs: GPIO8
  hz: 8000000
  board: false
layout:
  headerAddr: 0x3E000
  payloadAddr: 0x2000
gecko:
  port: /dev/ttyUSB1
log:
  level: debug
  development: false
geometry:
  blockCycles: 100
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Device.SPI != "/dev/spidev0.0" || cfg.Device.CS != "GPIO8" {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Device.Hz != 8000000 {
		t.Errorf("Hz = %d, want 8000000", cfg.Device.Hz)
	}
	if cfg.Device.Board {
		t.Error("Board = true, want false")
	}
	if l := cfg.RawLayout(); l.HeaderAddr != 0x3E000 || l.PayloadAddr != 0x2000 {
		t.Errorf("RawLayout() = %+v", l)
	}
	if cfg.Gecko.Port != "/dev/ttyUSB1" {
		t.Errorf("Gecko.Port = %q", cfg.Gecko.Port)
	}
	if cfg.Gecko.Baud != 115200 {
		t.Errorf("Gecko.Baud = %d, want default 115200", cfg.Gecko.Baud)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Development {
		t.Errorf("Log = %+v", cfg.Log)
	}

	g := cfg.BlockGeometry()
	if g.BlockCycles != 100 {
		t.Errorf("BlockCycles = %d, want 100", g.BlockCycles)
	}
	if g.CacheSize != 2048 {
		t.Errorf("CacheSize = %d, want default 2048", g.CacheSize)
	}
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	def := Default()
	if cfg.Layout != def.Layout || cfg.Device != def.Device || cfg.Log != def.Log {
		t.Errorf("Parse({}) = %+v, want defaults %+v", cfg, def)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"syntax", "device: [", "parse config"},
		{"layout order", "layout: {headerAddr: 0x1000, payloadAddr: 0x2000}", "must follow"},
		{"layout overlaps fs", "layout: {headerAddr: 0x3FFFE}", "runs into"},
		{"log level", "log: {level: trace}", "log level"},
		{"image capacity", "device: {image: flash.bin, imageCapacity: 30}", "capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kunai.yaml")
	if err := os.WriteFile(path, []byte("device:\n  image: flash.bin\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.Image != "flash.bin" {
		t.Errorf("Image = %q", cfg.Device.Image)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}
