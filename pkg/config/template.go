package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsctl/sealbox/pkg/cryptography"
)

// GenerateConfigTemplate returns the text of a ready-to-edit config file.
// The master password line is pre-filled with a fresh Diceware passphrase;
// there is no salt line because every sealed container carries its own.
func GenerateConfigTemplate() string {
	template := `[vault]
# The 10-word Diceware passphrase below has been randomly generated for you.
# It has ~128 bits of entropy and thus is very resistant to brute force
# cracking through at least the middle of this century.
#
# Note that your passphrase resides in this file but never leaves this machine.
master_password = "`

	template += cryptography.GenerateRandomPassphrase(10)

	template += `"

# Where the local vault database file lives.
db_path = "` + filepath.Join("$HOME", appCfgDirName, "vault.db") + `"

# Uncomment for more detailed logging.
#verbose_logging = true

[objectstore]
# Optional: fill in this section with the real host:port of an S3-compatible
# object store, your credentials for it, and a bucket you have ALREADY
# created, to keep sealed blobs on a remote server.
#endpoint = "127.0.0.1:9000"
#access_key_id = "<your object store user id>"
#access_secret = "<your object store password>"
#bucket = "<name of an empty bucket you have created on object store>"
`
	return template
}

func WriteTemplateConfigToPath(configFilePath string) error {
	template := GenerateConfigTemplate()
	if err := os.WriteFile(configFilePath, []byte(template), 0600); err != nil {
		log.Println("error: WriteTemplateConfigToPath: unable to write template file: ", err)
		return err
	}
	return nil
}

// MakeTemplateConfigFile creates $HOME/.sealbox/config.toml from the
// template and returns its path. Fails if a config file is already there.
func MakeTemplateConfigFile() (string, error) {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("error: MakeTemplateConfigFile: cannot get user home dir: %v", err)
		return "", err
	}

	appCfgDir := filepath.Join(userHomeDir, appCfgDirName)
	if err := os.MkdirAll(appCfgDir, 0700); err != nil {
		log.Printf("error: MakeTemplateConfigFile: mkdir failed: %v", err)
		return "", err
	}

	configFilePath := filepath.Join(appCfgDir, standardConfigFileName)
	if _, err := os.Stat(configFilePath); err == nil {
		return "", fmt.Errorf("config file already exists at '%s'", configFilePath)
	}

	if err := WriteTemplateConfigToPath(configFilePath); err != nil {
		return "", err
	}
	return configFilePath, nil
}
