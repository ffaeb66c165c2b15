package models

import "time"

type MacroPID uint64

type TaskState string

const (
	TaskRunning  TaskState = "running"
	TaskFinished TaskState = "finished"
	TaskKilled   TaskState = "killed"
	TaskError    TaskState = "error"
)

/**
 * One tracked macro execution
 */
type TaskEntry struct {
	PID          MacroPID  `json:"pid"`
	Name         string    `json:"name"`
	InstanceUUID string    `json:"instance_uuid"`
	State        TaskState `json:"state"`
	StartTime    time.Time `json:"start_time"`
	FinishTime   time.Time `json:"finish_time,omitempty"`
	ExitError    string    `json:"exit_error,omitempty"`
}
