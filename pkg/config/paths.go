// Package config provides configuration management for stockwatch
package config

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the application name
	AppName = "stockwatch"

	// AppDirName is the directory name for app data
	AppDirName = ".stockwatch"

	// EnvPrefix prefixes environment overrides, e.g. STOCKWATCH_FEED_BASE_URL
	EnvPrefix = "STOCKWATCH"
)

// GetAppDir returns the application data directory (~/.stockwatch)
func GetAppDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, AppDirName), nil
}

// GetConfigPath returns the config file path
func GetConfigPath() (string, error) {
	return appFile("config.yaml")
}

// GetWatchlistPath returns the saved watchlist path
func GetWatchlistPath() (string, error) {
	return appFile("stocks.json")
}

// GetLogPath returns the log file path
func GetLogPath() (string, error) {
	return appFile(AppName + ".log")
}

func appFile(name string) (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, name), nil
}
