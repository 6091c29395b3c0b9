// Package config loads the inventory settings from an INI file, with the
// file location overridable through the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const (
	iniPathEnv       = "XEN_INVENTORY_INI_PATH"
	defaultININame   = "xen-inventory.ini"
	defaultCachePath = "/tmp/ansible-xen-inventory-cache.tmp"
	sectionName      = "GENERIC"
)

type Config struct {
	CachePath string
	CacheTTL  time.Duration
	Hostname  string
	Username  string
	Password  string
	LogLevel  string
}

// Load reads the INI file at $XEN_INVENTORY_INI_PATH, falling back to
// xen-inventory.ini next to the executable.
func Load() (Config, error) {
	return LoadFile(iniPath())
}

// LoadFile parses path into a Config. A missing file is fine; a missing
// cache_ttl is not, the TTL has no default on purpose.
func LoadFile(path string) (Config, error) {
	file, err := ini.LooseLoad(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	section := file.Section(sectionName)

	cfg := Config{
		CachePath: section.Key("cache_path").MustString(defaultCachePath),
		Hostname:  section.Key("xen_host").String(),
		Username:  section.Key("xen_user").String(),
		Password:  section.Key("xen_pass").String(),
		LogLevel:  strings.ToLower(section.Key("log_level").MustString("info")),
	}

	if !section.HasKey("cache_ttl") {
		return Config{}, fmt.Errorf("%s: cache_ttl is required", path)
	}
	ttl, err := section.Key("cache_ttl").Int()
	if err != nil {
		return Config{}, fmt.Errorf("%s: cache_ttl: %w", path, err)
	}
	cfg.CacheTTL = time.Duration(ttl) * time.Second

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.CacheTTL < 0 {
		return errors.New("cache_ttl must not be negative")
	}
	if c.CachePath == "" {
		return errors.New("cache_path must not be empty")
	}
	return nil
}

func iniPath() string {
	if v := strings.TrimSpace(os.Getenv(iniPathEnv)); v != "" {
		return expand(v)
	}
	exe, err := os.Executable()
	if err != nil {
		return defaultININame
	}
	return filepath.Join(filepath.Dir(exe), defaultININame)
}

// expand resolves environment references and a leading ~ in a user
// supplied path.
func expand(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
