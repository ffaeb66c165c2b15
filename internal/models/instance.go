package models

import "time"

type InstanceState string

const (
	// 实例已停止，可以再次启动
	StateStopped InstanceState = "Stopped"
	// 启动中，进程已拉起但还没就绪
	StateStarting InstanceState = "Starting"
	// 正常运行
	StateRunning InstanceState = "Running"
	// 停止中，已发出停止指令等待进程退出
	StateStopping InstanceState = "Stopping"
	// 出错停止，需要人工介入
	StateError InstanceState = "Error"
)

/**
 * Persisted per-instance configuration (.lodestone_config)
 * @property {string} name - Display name
 * @property {string} version - Game server version
 * @property {uint} port - Port the game server listens on
 * @property {uint} min_ram - -Xms heap bound in MiB, 0 leaves it to the JVM
 * @property {uint} max_ram - -Xmx heap bound in MiB, 0 leaves it to the JVM
 * @property {string} cmd_args - Full launch command overriding the default java invocation
 * @property {bool} auto_start - Start the instance when the daemon boots
 * @property {bool} restart_on_crash - Restart automatically after a crash
 * @property {uint} backup_period - Seconds between automatic backups, null disables them
 * @property {bool} has_started - Whether the instance ever ran (first-run detection)
 */
type RestoreConfig struct {
	Name           string  `json:"name"`
	Version        string  `json:"version"`
	Description    string  `json:"description"`
	Port           uint32  `json:"port"`
	MinRAM         uint32  `json:"min_ram,omitempty"`
	MaxRAM         uint32  `json:"max_ram,omitempty"`
	StartCommand   string  `json:"cmd_args,omitempty"`
	AutoStart      bool    `json:"auto_start"`
	RestartOnCrash bool    `json:"restart_on_crash"`
	BackupPeriod   *uint32 `json:"backup_period"`
	HasStarted     bool    `json:"has_started"`
}

/**
 * Parameters for creating a brand new instance
 */
type SetupConfig struct {
	Name         string  `json:"name"`
	Version      string  `json:"version"`
	VersionURL   string  `json:"version_url,omitempty"`
	Description  string  `json:"description"`
	Port         uint32  `json:"port"`
	MinRAM       uint32  `json:"min_ram"`
	MaxRAM       uint32  `json:"max_ram"`
	AutoStart    bool    `json:"auto_start"`
	RestartCrash bool    `json:"restart_on_crash"`
	BackupPeriod *uint32 `json:"backup_period"`
	StartCommand string  `json:"cmd_args,omitempty"`
}

/**
 * Wire representation of one instance for list/get endpoints
 */
type InstanceDetail struct {
	UUID           string        `json:"uuid"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Version        string        `json:"version"`
	Port           uint32        `json:"port"`
	State          InstanceState `json:"state"`
	PlayerCount    uint32        `json:"player_count"`
	AutoStart      bool          `json:"auto_start"`
	RestartOnCrash bool          `json:"restart_on_crash"`
	BackupPeriod   *uint32       `json:"backup_period"`
	CreationTime   time.Time     `json:"creation_time"`
	Path           string        `json:"path"`
}
