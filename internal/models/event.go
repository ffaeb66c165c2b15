package models

import "time"

type EventLevel string

const (
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

type EventType string

const (
	// 实例状态跳变（Stopped/Starting/Running/Stopping/Error）
	EventStateTransition EventType = "state_transition"
	// 长任务进度，value 取值0.0~1.0
	EventProgression EventType = "progression"
	// 实例标准输出的一行
	EventConsoleOutput EventType = "console_output"
	// 备份完成或失败
	EventBackup EventType = "backup"
	// 宏任务生命周期
	EventMacro EventType = "macro"
)

/**
 * One event on the daemon-wide event stream
 * @property {string} instance_uuid - Originating instance, empty for daemon events
 * @property {float} progression - Meaningful only when type is "progression"
 */
type Event struct {
	ID           string        `json:"id"`
	Type         EventType     `json:"type"`
	Level        EventLevel    `json:"level"`
	InstanceUUID string        `json:"instance_uuid,omitempty"`
	InstanceName string        `json:"instance_name,omitempty"`
	State        InstanceState `json:"state,omitempty"`
	Progression  float64       `json:"progression,omitempty"`
	Message      string        `json:"message"`
	Timestamp    time.Time     `json:"timestamp"`
}
