package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"
)

const orgFileSuffix = ".yaml"

// ErrOrganizationNotFound is returned by Manager.Load for unknown organizations.
var ErrOrganizationNotFound = errors.New("organization not found")

// Manager stores organization configurations as YAML files in one directory.
type Manager struct {
	dir    string
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewManager creates a manager rooted at dir, creating it if needed.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir %s: %w", dir, err)
	}
	return &Manager{
		dir:    dir,
		logger: logger.With(slog.String("component", "config_manager")),
	}, nil
}

// Path returns the configuration file path of an organization.
func (m *Manager) Path(orgID string) string {
	return filepath.Join(m.dir, orgID+orgFileSuffix)
}

// Load reads and validates an organization's configuration.
func (m *Manager) Load(orgID string) (*Organization, error) {
	if !ValidOrganizationID(orgID) {
		return nil, fmt.Errorf("invalid organization id %q: %w", orgID, ErrOrganizationNotFound)
	}

	m.mu.RLock()
	data, err := os.ReadFile(m.Path(orgID))
	m.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", orgID, ErrOrganizationNotFound)
		}
		return nil, fmt.Errorf("failed to read config for %s: %w", orgID, err)
	}

	var org Organization
	if err := yaml.Unmarshal(data, &org); err != nil {
		return nil, fmt.Errorf("failed to parse config for %s: %w", orgID, err)
	}
	if org.ID == "" {
		org.ID = orgID
	}
	if org.ID != orgID {
		return nil, fmt.Errorf("config file for %s declares organization %q", orgID, org.ID)
	}
	if err := org.Validate(); err != nil {
		return nil, err
	}

	m.logger.Debug("organization config loaded", slog.String("organization", orgID))
	return &org, nil
}

// LoadOrDefault loads an organization, falling back to the manufacturing
// template when no configuration file exists.
func (m *Manager) LoadOrDefault(orgID string) (*Organization, error) {
	org, err := m.Load(orgID)
	if errors.Is(err, ErrOrganizationNotFound) && ValidOrganizationID(orgID) {
		m.logger.Warn("configuration file not found, using defaults", slog.String("organization", orgID))
		return DefaultOrganization(orgID, IndustryManufacturing), nil
	}
	return org, err
}

// Save validates and writes an organization's configuration.
func (m *Manager) Save(org *Organization) error {
	if err := org.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(org)
	if err != nil {
		return fmt.Errorf("failed to marshal config for %s: %w", org.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.Path(org.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write config for %s: %w", org.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config for %s: %w", org.ID, err)
	}

	m.logger.Info("organization config saved",
		slog.String("organization", org.ID),
		slog.String("path", path))
	return nil
}

// List returns the IDs of all stored organizations, sorted.
func (m *Manager) List() ([]string, error) {
	m.mu.RLock()
	entries, err := os.ReadDir(m.dir)
	m.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to list config dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), orgFileSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), orgFileSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}

// CreateDefault writes a new configuration for orgID from an industry template.
func (m *Manager) CreateDefault(orgID, industry string) (*Organization, error) {
	org := DefaultOrganization(orgID, industry)
	if err := m.Save(org); err != nil {
		return nil, err
	}
	return org, nil
}
