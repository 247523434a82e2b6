package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"juststart/internal/model"
)

const (
	appName          = "juststart"
	settingsFileName = "settings.yaml"

	DefaultWorkLocation = "work"
	DefaultHomeLocation = "home"
)

// Settings is the user-editable settings file.
type Settings struct {
	Pomodoro  model.PomodoroConfig `yaml:",inline"`
	Locations Locations            `yaml:"locations"`
}

type Locations struct {
	Work string `yaml:"work"`
	Home string `yaml:"home"`
}

func DefaultSettings() Settings {
	return Settings{
		Pomodoro: model.DefaultPomodoroConfig(),
		Locations: Locations{
			Work: DefaultWorkLocation,
			Home: DefaultHomeLocation,
		},
	}
}

// LoadSettings reads the settings file. A missing file yields the defaults;
// non-positive values keep their defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData Settings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applySettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes settings to path, creating parent directories.
func SaveSettings(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func applySettings(settings *Settings, fileData Settings) {
	if fileData.Pomodoro.PomodoroLength > 0 {
		settings.Pomodoro.PomodoroLength = fileData.Pomodoro.PomodoroLength
	}
	if fileData.Pomodoro.ShortRest > 0 {
		settings.Pomodoro.ShortRest = fileData.Pomodoro.ShortRest
	}
	if fileData.Pomodoro.LongRest > 0 {
		settings.Pomodoro.LongRest = fileData.Pomodoro.LongRest
	}
	if fileData.Pomodoro.CyclesBeforeLongRest > 0 {
		settings.Pomodoro.CyclesBeforeLongRest = fileData.Pomodoro.CyclesBeforeLongRest
	}
	if fileData.Locations.Work != "" {
		settings.Locations.Work = fileData.Locations.Work
	}
	if fileData.Locations.Home != "" {
		settings.Locations.Home = fileData.Locations.Home
	}
}

func defaultSettingsPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return settingsFileName
	}
	return filepath.Join(configDir, appName, settingsFileName)
}

// Provider serves the live settings to the timer. Reload swaps them in place.
type Provider struct {
	mu       sync.RWMutex
	path     string
	settings Settings
}

func NewProvider(path string) (*Provider, error) {
	settings, err := LoadSettings(path)
	if err != nil {
		return nil, err
	}
	return &Provider{path: path, settings: settings}, nil
}

// NewStaticProvider serves fixed settings and never reloads.
func NewStaticProvider(settings Settings) *Provider {
	return &Provider{settings: settings}
}

func (p *Provider) Path() string {
	return p.path
}

func (p *Provider) Reload() error {
	if p.path == "" {
		return nil
	}
	settings, err := LoadSettings(p.path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.settings = settings
	p.mu.Unlock()
	return nil
}

func (p *Provider) Settings() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

func (p *Provider) PomodoroConfig() model.PomodoroConfig {
	return p.Settings().Pomodoro
}

func (p *Provider) LocationName(atWork bool) string {
	locations := p.Settings().Locations
	if atWork {
		return locations.Work
	}
	return locations.Home
}
