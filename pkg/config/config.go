// Package config loads and validates sealbox settings from a TOML config
// file via viper, and generates a filled-in template on first run
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	appCfgDirName          = ".sealbox"
	standardConfigFileName = "config.toml"
)

type CfgSettings struct {
	Endpoint        string
	AccessKeyId     string
	SecretAccessKey string
	Bucket          string
	MasterPassword  string
	VaultDbPath     string
	VerboseLogging  bool
}

// Load reads settings from $HOME/.sealbox/config.toml, falling back to
// ./config.toml. A missing config file comes back as os.ErrNotExist so
// callers can offer to generate a template; any other error means the file
// exists but could not be parsed.
func Load() (*CfgSettings, error) {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("error: Load: cannot get user home dir: %v", err)
		return nil, err
	}
	return LoadFromDirs([]string{filepath.Join(userHomeDir, appCfgDirName), "."})
}

// LoadFromDirs is Load with an explicit config search path
func LoadFromDirs(dirs []string) (*CfgSettings, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigName("config")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("no config file in search path: %w", os.ErrNotExist)
		}
		// Config file was found but there was an error parsing it
		log.Printf("error: LoadFromDirs: reading config file: %v", err)
		return nil, err
	}

	cfg := &CfgSettings{
		Endpoint:        v.GetString("objectstore.endpoint"),
		AccessKeyId:     v.GetString("objectstore.access_key_id"),
		SecretAccessKey: v.GetString("objectstore.access_secret"),
		Bucket:          v.GetString("objectstore.bucket"),
		MasterPassword:  v.GetString("vault.master_password"),
		VaultDbPath:     v.GetString("vault.db_path"),
		VerboseLogging:  v.GetBool("vault.verbose_logging"),
	}
	return cfg, nil
}

// Checks that configuration variables have sensible values (e.g., non-blank)
func ValidateCfgSettings(cfg *CfgSettings) error {
	if cfg.MasterPassword == "" {
		return fmt.Errorf("master password invalid (value='%s')", cfg.MasterPassword)
	}
	if cfg.VaultDbPath == "" {
		return fmt.Errorf("vault db path invalid (value='%s')", cfg.VaultDbPath)
	}

	// The objectstore section is optional as a whole (a vault can be purely
	// local), but if an endpoint is given the credentials must be complete
	if cfg.Endpoint != "" {
		if cfg.AccessKeyId == "" {
			return fmt.Errorf("access key id invalid (value='%s')", cfg.AccessKeyId)
		}
		if cfg.SecretAccessKey == "" {
			return fmt.Errorf("secret key invalid (value='%s')", cfg.SecretAccessKey)
		}
		if cfg.Bucket == "" {
			return fmt.Errorf("bucket name invalid (value='%s')", cfg.Bucket)
		}
	}

	return nil
}
