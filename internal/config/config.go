package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string         `json:"log_level" yaml:"log_level"`
	Link     LinkConfig     `json:"link" yaml:"link"`
	Classify ClassifyConfig `json:"classify" yaml:"classify"`
	Dispatch DispatchConfig `json:"dispatch" yaml:"dispatch"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Queue    QueueConfig    `json:"queue" yaml:"queue"`
	API      APIConfig      `json:"api" yaml:"api"`
	Alerts   AlertsConfig   `json:"alerts" yaml:"alerts"`
}

type LinkConfig struct {
	ChannelBuffer int          `json:"channel_buffer" yaml:"channel_buffer"`
	BufferCap     int          `json:"buffer_cap" yaml:"buffer_cap"`
	TCP           TCPConfig    `json:"tcp" yaml:"tcp"`
	Kafka         KafkaConfig  `json:"kafka" yaml:"kafka"`
	REST          RESTConfig   `json:"rest" yaml:"rest"`
	Device        DeviceConfig `json:"device" yaml:"device"`
}

type TCPConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
	GroupID string   `json:"group_id" yaml:"group_id"`
}

type RESTConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

// DeviceConfig identifies the firmware device class stamped on every
// detection produced from the link.
type DeviceConfig struct {
	Source string `json:"source" yaml:"source"`
}

type ClassifyConfig struct {
	Sounds map[string]SoundOverride `json:"sounds" yaml:"sounds"`
}

// SoundOverride adds or replaces one classification table entry.
type SoundOverride struct {
	Label    string `json:"label" yaml:"label"`
	Priority string `json:"priority" yaml:"priority"`
	Icon     string `json:"icon" yaml:"icon"`
}

type DispatchConfig struct {
	ThrottleWindow time.Duration `json:"throttle_window" yaml:"throttle_window"`
	DisplayWindow  time.Duration `json:"display_window" yaml:"display_window"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

type QueueConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	Path         string        `json:"path" yaml:"path"`
	SyncInterval time.Duration `json:"sync_interval" yaml:"sync_interval"`
	ProbeAddr    string        `json:"probe_addr" yaml:"probe_addr"`
	ProbeTimeout time.Duration `json:"probe_timeout" yaml:"probe_timeout"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type AlertsConfig struct {
	StoreLimit int `json:"store_limit" yaml:"store_limit"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Link: LinkConfig{
			ChannelBuffer: 1024,
			BufferCap:     2000,
			TCP:           TCPConfig{Enabled: true, Addr: ":7480"},
			Kafka:         KafkaConfig{Enabled: false},
			REST:          RESTConfig{Enabled: true, Addr: ":8080"},
			Device:        DeviceConfig{Source: "esp32"},
		},
		Classify: ClassifyConfig{},
		Dispatch: DispatchConfig{
			ThrottleWindow: 3 * time.Second,
			DisplayWindow:  5 * time.Second,
		},
		Storage: StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:earbridge.db?_pragma=busy_timeout(5000)"},
		Queue: QueueConfig{
			Enabled:      false,
			Path:         "earbridge-queue.json",
			SyncInterval: 30 * time.Second,
			ProbeAddr:    "1.1.1.1:443",
			ProbeTimeout: 3 * time.Second,
		},
		API:    APIConfig{Enabled: true, Addr: ":8081"},
		Alerts: AlertsConfig{StoreLimit: 200},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Link.ChannelBuffer <= 0 {
		cfg.Link.ChannelBuffer = 1024
	}
	if cfg.Link.BufferCap <= 0 {
		cfg.Link.BufferCap = 2000
	}
	if cfg.Link.Device.Source == "" {
		cfg.Link.Device.Source = "esp32"
	}
	if cfg.Dispatch.ThrottleWindow <= 0 {
		cfg.Dispatch.ThrottleWindow = 3 * time.Second
	}
	if cfg.Dispatch.DisplayWindow <= 0 {
		cfg.Dispatch.DisplayWindow = 5 * time.Second
	}
	if cfg.Queue.SyncInterval <= 0 {
		cfg.Queue.SyncInterval = 30 * time.Second
	}
	if cfg.Queue.ProbeTimeout <= 0 {
		cfg.Queue.ProbeTimeout = 3 * time.Second
	}
	if cfg.Alerts.StoreLimit <= 0 {
		cfg.Alerts.StoreLimit = 200
	}
}

func Validate(cfg *Config) error {
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	if cfg.Link.TCP.Enabled && cfg.Link.TCP.Addr == "" {
		return errors.New("link.tcp.addr required when link.tcp.enabled is true")
	}
	if cfg.Link.REST.Enabled && cfg.Link.REST.Addr == "" {
		return errors.New("link.rest.addr required when link.rest.enabled is true")
	}
	if cfg.Link.Kafka.Enabled {
		if len(cfg.Link.Kafka.Brokers) == 0 || cfg.Link.Kafka.Topic == "" || cfg.Link.Kafka.GroupID == "" {
			return errors.New("link.kafka requires brokers, topic, group_id")
		}
	}
	if cfg.Storage.Enabled {
		switch strings.ToLower(cfg.Storage.Driver) {
		case "sqlite", "postgres", "postgresql":
		default:
			return fmt.Errorf("unsupported storage driver: %q", cfg.Storage.Driver)
		}
	}
	if cfg.Queue.Enabled && cfg.Queue.Path == "" {
		return errors.New("queue.path required when queue.enabled is true")
	}
	for key, ov := range cfg.Classify.Sounds {
		if ov.Label == "" {
			return fmt.Errorf("classify.sounds[%s] requires a label", key)
		}
		switch ov.Priority {
		case "rojo", "amarillo", "verde":
		default:
			return fmt.Errorf("classify.sounds[%s] has invalid priority %q", key, ov.Priority)
		}
	}
	return nil
}

type Manager struct {
	path    string
	cfg     atomic.Value
	modTime time.Time
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cfg.Store(cfg)
	info, err := os.Stat(path)
	if err == nil {
		m.modTime = info.ModTime()
	}
	return m, nil
}

// NewStatic wraps a config that has no backing file. Reload and Watch are
// no-ops on it.
func NewStatic(cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	m := &Manager{}
	m.cfg.Store(cfg)
	return m
}

func (m *Manager) Get() *Config {
	if v := m.cfg.Load(); v != nil {
		return v.(*Config)
	}
	return DefaultConfig()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	if m.path == "" {
		return m.Get(), nil
	}
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.cfg.Store(cfg)
	if info, err := os.Stat(m.path); err == nil {
		m.modTime = info.ModTime()
	}
	return cfg, nil
}

func (m *Manager) Update(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if m.path != "" {
		if err := Save(m.path, cfg); err != nil {
			return err
		}
	}
	m.cfg.Store(cfg)
	if info, err := os.Stat(m.path); err == nil {
		m.modTime = info.ModTime()
	}
	return nil
}

func (m *Manager) NeedsReload() (bool, error) {
	if m.path == "" {
		return false, nil
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	return info.ModTime().After(m.modTime), nil
}

func (m *Manager) Watch(interval time.Duration, onReload func(*Config), onError func(error), stop <-chan struct{}) {
	if m.path == "" {
		return
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			needs, err := m.NeedsReload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if !needs {
				continue
			}
			cfg, err := m.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case <-stop:
			return
		}
	}
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
