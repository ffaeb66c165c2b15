package config

import (
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/LodestoneMC-org/backend/internal/env"
)

/**
 * Server configuration parameters
 * @property {string} address - Server listening address (e.g. ":16662")
 * @property {string} mode - Application mode (debug/release/test)
 */
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path
 */
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

/**
 * Metrics configuration
 * @property {string} pushgateway - Pushgateway address for metrics
 */
type MetricsConfig struct {
	Pushgateway string `mapstructure:"pushgateway"`
}

/**
 * Game instance defaults
 * @property {string} root - Directory all instances live under
 * @property {string} version_manifest - URL used to resolve the "latest" server version
 * @property {uint} port_min - Lower bound of the auto-allocated port range
 * @property {uint} port_max - Upper bound of the auto-allocated port range
 * @property {uint} backup_period - Default backup period in seconds for new instances
 */
type InstancesConfig struct {
	Root            string `mapstructure:"root"`
	VersionManifest string `mapstructure:"version_manifest"`
	PortMin         uint32 `mapstructure:"port_min"`
	PortMax         uint32 `mapstructure:"port_max"`
	BackupPeriod    uint32 `mapstructure:"backup_period"`
}

type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Instances InstancesConfig `mapstructure:"instances"`
}

/**
 * Load application configuration from YAML file
 */
func LoadConfig() (*AppConfig, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(env.LodestoneDir)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var Config AppConfig

/**
 * Reload configuration from disk and replace the global Config
 * @returns {error} Error if the file exists but cannot be parsed
 */
func ReloadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		// 配置文件缺失时保留默认值，解析失败才算错误
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		cfg = &AppConfig{}
	}
	Config = *collectConfig(cfg)
	return nil
}

func collectConfig(cfg *AppConfig) *AppConfig {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":16662"
	}
	if cfg.Instances.Root == "" {
		cfg.Instances.Root = filepath.Join(env.LodestoneDir, "instances")
	}
	if cfg.Instances.VersionManifest == "" {
		cfg.Instances.VersionManifest = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"
	}
	if cfg.Instances.PortMin == 0 {
		cfg.Instances.PortMin = 25565
	}
	if cfg.Instances.PortMax == 0 {
		cfg.Instances.PortMax = 25665
	}
	if cfg.Instances.BackupPeriod == 0 {
		cfg.Instances.BackupPeriod = 3600
	}
	return cfg
}

func init() {
	cfg, err := LoadConfig()
	if err == nil {
		Config = *cfg
	}
	collectConfig(&Config)
}
