// Package config provides the key/value configuration store read by the EM
// driver and the mixture coordinator. Values come from YAML files or are set
// programmatically; every getter takes the default to use when a key is
// absent or has the wrong type.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Keys understood by rem and mixture.
const (
	EstimateModeKey   = "rem_estimate_mode"
	EpsilonKey        = "rem_epsilon"
	RatioThresholdKey = "rem_ratio_threshold"
	CalcVarianceKey   = "rem_calc_variance"
	MaxIterationKey   = "rem_max_iteration"

	MixtureComponentsKey = "mixture_components"
	MixtureVariantKey    = "mixture_variant"
	MixtureWeightedKey   = "mixture_weighted"
	MixtureSeedKey       = "mixture_seed"
	MixtureMaxRetriesKey = "mixture_max_retries"
)

// Store is a typed configuration source.
type Store interface {
	GetBool(key string, def bool) bool
	GetInt(key string, def int) int
	GetReal(key string, def float64) float64
	GetString(key string, def string) string
}

// Map is an in-memory Store safe for concurrent use.
type Map struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewMap creates a Map seeded with values.
func NewMap(values map[string]interface{}) *Map {
	m := &Map{values: make(map[string]interface{}, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Set stores value under key.
func (m *Map) Set(key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *Map) get(key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) GetBool(key string, def bool) bool {
	v, ok := m.get(key)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return def
}

func (m *Map) GetInt(key string, def int) int {
	v, ok := m.get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return def
}

func (m *Map) GetReal(key string, def float64) float64 {
	v, ok := m.get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return parsed
		}
	}
	return def
}

func (m *Map) GetString(key string, def string) string {
	v, ok := m.get(key)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// Load reads a flat YAML mapping from path. A missing file yields an empty
// store so every getter falls back to its default.
func Load(path string) (*Map, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewMap(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a flat YAML mapping.
func Parse(data []byte) (*Map, error) {
	values := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return NewMap(values), nil
}

// Save writes the store as YAML, creating parent directories.
func Save(m *Map, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	m.mu.RLock()
	data, err := yaml.Marshal(m.values)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
