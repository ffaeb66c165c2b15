package services

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iancoleman/orderedmap"

	"github.com/LodestoneMC-org/backend/internal/logger"
	"github.com/LodestoneMC-org/backend/internal/lserr"
	"github.com/LodestoneMC-org/backend/internal/models"
)

/**
 * MacroExecutor 宏任务执行器
 * @description
 * - 每个任务分配一个单调递增的MacroPID
 * - pid到任务表按提交顺序排列，供列表接口按序返回
 * - 同名宏记录最后一次运行时间
 */
type MacroExecutor struct {
	nextPID       uint64
	pidToTask     *orderedmap.OrderedMap
	nameToLastRun map[string]time.Time
	events        *EventService
	mutex         sync.Mutex
}

func NewMacroExecutor(events *EventService) *MacroExecutor {
	return &MacroExecutor{
		pidToTask:     orderedmap.New(),
		nameToLastRun: make(map[string]time.Time),
		events:        events,
	}
}

/**
 * Submit 提交一个宏任务并立即返回
 * @param {string} name - 宏名称
 * @param {string} instanceUUID - 所属实例
 * @param {func} task - 任务体，在独立协程中执行
 * @returns {models.MacroPID} 分配的任务号
 */
func (me *MacroExecutor) Submit(name, instanceUUID string, task func() error) models.MacroPID {
	pid := models.MacroPID(atomic.AddUint64(&me.nextPID, 1))
	entry := models.TaskEntry{
		PID:          pid,
		Name:         name,
		InstanceUUID: instanceUUID,
		State:        models.TaskRunning,
		StartTime:    time.Now(),
	}

	me.mutex.Lock()
	me.pidToTask.Set(pidKey(pid), entry)
	me.nameToLastRun[name] = entry.StartTime
	me.mutex.Unlock()

	if me.events != nil {
		me.events.Emit(models.Event{
			Type:         models.EventMacro,
			Level:        models.LevelInfo,
			InstanceUUID: instanceUUID,
			Message:      fmt.Sprintf("macro '%s' started (PID: %d)", name, pid),
		})
	}

	go me.runTask(pid, name, instanceUUID, task)
	return pid
}

func (me *MacroExecutor) runTask(pid models.MacroPID, name, instanceUUID string, task func() error) {
	err := task()

	me.mutex.Lock()
	if raw, ok := me.pidToTask.Get(pidKey(pid)); ok {
		entry := raw.(models.TaskEntry)
		entry.FinishTime = time.Now()
		if entry.State == models.TaskKilled {
			// 被杀死的任务保持killed状态
		} else if err != nil {
			entry.State = models.TaskError
			entry.ExitError = err.Error()
		} else {
			entry.State = models.TaskFinished
		}
		me.pidToTask.Set(pidKey(pid), entry)
	}
	me.mutex.Unlock()

	if err != nil {
		logger.Errorf("Macro '%s' (PID: %d) failed: %v", name, pid, err)
	} else {
		logger.Infof("Macro '%s' (PID: %d) finished", name, pid)
	}

	if me.events != nil {
		level := models.LevelInfo
		message := fmt.Sprintf("macro '%s' finished (PID: %d)", name, pid)
		if err != nil {
			level = models.LevelError
			message = fmt.Sprintf("macro '%s' failed (PID: %d): %v", name, pid, err)
		}
		me.events.Emit(models.Event{
			Type:         models.EventMacro,
			Level:        level,
			InstanceUUID: instanceUUID,
			Message:      message,
		})
	}
}

// GetTask 按PID查询任务
func (me *MacroExecutor) GetTask(pid models.MacroPID) (models.TaskEntry, error) {
	me.mutex.Lock()
	defer me.mutex.Unlock()

	raw, ok := me.pidToTask.Get(pidKey(pid))
	if !ok {
		return models.TaskEntry{}, lserr.NotFound("macro task %d does not exist", pid)
	}
	return raw.(models.TaskEntry), nil
}

// GetTasks 按提交顺序返回全部任务
func (me *MacroExecutor) GetTasks() []models.TaskEntry {
	me.mutex.Lock()
	defer me.mutex.Unlock()

	var entries []models.TaskEntry
	for _, key := range me.pidToTask.Keys() {
		raw, _ := me.pidToTask.Get(key)
		entries = append(entries, raw.(models.TaskEntry))
	}
	return entries
}

// LastRun 返回同名宏最近一次开始运行的时间
func (me *MacroExecutor) LastRun(name string) (time.Time, bool) {
	me.mutex.Lock()
	defer me.mutex.Unlock()

	at, ok := me.nameToLastRun[name]
	return at, ok
}

// MarkKilled 标记一个任务为killed，任务体退出后保持该状态
func (me *MacroExecutor) MarkKilled(pid models.MacroPID) error {
	me.mutex.Lock()
	defer me.mutex.Unlock()

	raw, ok := me.pidToTask.Get(pidKey(pid))
	if !ok {
		return lserr.NotFound("macro task %d does not exist", pid)
	}
	entry := raw.(models.TaskEntry)
	if entry.State != models.TaskRunning {
		return lserr.BadRequest("macro task %d is not running", pid)
	}
	entry.State = models.TaskKilled
	me.pidToTask.Set(pidKey(pid), entry)
	return nil
}

func pidKey(pid models.MacroPID) string {
	return fmt.Sprintf("%d", pid)
}
