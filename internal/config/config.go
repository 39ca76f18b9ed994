package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionConfig holds working-copy database connection defaults. Every
// field can be overridden by CLI flags or environment variables.
type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	SSLCert        string `yaml:"sslcert,omitempty"`
	SSLKey         string `yaml:"sslkey,omitempty"`
	SSLRootCert    string `yaml:"sslrootcert,omitempty"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// WorkingCopyConfig selects the working-copy backend for the repository.
type WorkingCopyConfig struct {
	// Backend is one of "postgres", "mysql" or "gpkg".
	Backend string `yaml:"backend"`

	// Path is the GeoPackage file path. Only used when Backend is "gpkg".
	Path string `yaml:"path,omitempty"`
}

// ImportConfig holds defaults for tile imports.
type ImportConfig struct {
	Workers            int  `yaml:"workers,omitempty"`
	ConvertToCOPC      bool `yaml:"convert_to_copc,omitempty"`
	AllowHeterogeneous bool `yaml:"allow_heterogeneous,omitempty"`
}

type ProjectConfig struct {
	Connection  ConnectionConfig  `yaml:"connection"`
	WorkingCopy WorkingCopyConfig `yaml:"working_copy"`
	Import      ImportConfig      `yaml:"import"`
	Params      map[string]string `yaml:"params"`
}

const ConfigFileName = "tilevault.yaml"

func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := filepath.Join(sourcePath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
