package env

import (
	"os"
	"path/filepath"
)

var Daemon bool = false

// Version is stamped by the build via -ldflags "-X ...env.Version=v1.2.3"
var Version string = "dev"

// (default: %USERPROFILE%/.lodestone on Windows, $HOME/.lodestone on Linux)
var LodestoneDir string = GetLodestoneDir()

/**
 * Get lodestone directory path
 * @returns {string} Returns lodestone directory path
 */
func GetLodestoneDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".lodestone")
}

/**
 * Get the directory all instances live under
 * @returns {string} Returns instances directory path
 */
func GetInstancesDir() string {
	return filepath.Join(LodestoneDir, "instances")
}
