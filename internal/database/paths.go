package database

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	AppDirName       = ".econavix"
	SQLiteDBFileName = "econavix.db"
	JSONFileName     = "econavix.json"
	ConfigFileName   = "config.yaml"
)

// GetAppDir returns ~/.econavix, creating it if needed
func GetAppDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	appDir := filepath.Join(homeDir, AppDirName)
	if err := os.MkdirAll(appDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create app directory: %w", err)
	}

	return appDir, nil
}

// DBPath returns the SQLite database path inside dataDir, or inside ~/.econavix when dataDir is empty
func DBPath(dataDir string) (string, error) {
	if dataDir == "" {
		appDir, err := GetAppDir()
		if err != nil {
			return "", err
		}
		dataDir = appDir
	}
	return filepath.Join(dataDir, SQLiteDBFileName), nil
}

// JSONPath returns the JSON data file path inside dataDir, or inside ~/.econavix when dataDir is empty
func JSONPath(dataDir string) (string, error) {
	if dataDir == "" {
		appDir, err := GetAppDir()
		if err != nil {
			return "", err
		}
		dataDir = appDir
	}
	return filepath.Join(dataDir, JSONFileName), nil
}

// GetConfigFilePath returns ~/.econavix/config.yaml
func GetConfigFilePath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, ConfigFileName), nil
}
