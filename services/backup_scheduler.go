package services

import (
	"context"
	"time"

	"github.com/LodestoneMC-org/backend/internal/logger"
	"github.com/LodestoneMC-org/backend/internal/models"
)

type backupInstructionKind int

const (
	backupSetPeriod backupInstructionKind = iota
	backupNow
	backupPause
	backupResume
)

type backupInstruction struct {
	kind   backupInstructionKind
	period *uint32
}

/**
 * BackupScheduler 单实例的定时备份调度器
 * @description
 * - 指令channel与1秒节拍二选一驱动
 * - 只有实例处于Running时计数器才走表，counter>=period触发一次备份并清零
 * - Pause期间丢弃节拍与指令，但保留最后一条SetPeriod，Resume时生效
 */
type BackupScheduler struct {
	instanceUUID string
	instanceName string

	period  *uint32
	counter uint32

	instructions chan backupInstruction
	interval     time.Duration

	stateFn  func() models.InstanceState
	backupFn func() error
	events   *EventService
}

/**
 * NewBackupScheduler 创建备份调度器
 * @param {func} stateFn - 查询实例当前状态
 * @param {func} backupFn - 执行一次备份
 */
func NewBackupScheduler(instanceUUID, instanceName string, period *uint32,
	stateFn func() models.InstanceState, backupFn func() error, events *EventService) *BackupScheduler {
	return &BackupScheduler{
		instanceUUID: instanceUUID,
		instanceName: instanceName,
		period:       period,
		instructions: make(chan backupInstruction, 16),
		interval:     time.Second,
		stateFn:      stateFn,
		backupFn:     backupFn,
		events:       events,
	}
}

// SetPeriod 修改备份周期，nil表示关闭自动备份
func (bs *BackupScheduler) SetPeriod(period *uint32) {
	bs.instructions <- backupInstruction{kind: backupSetPeriod, period: period}
}

// BackupNow 立即触发一次备份
func (bs *BackupScheduler) BackupNow() {
	bs.instructions <- backupInstruction{kind: backupNow}
}

// Pause 暂停自动备份
func (bs *BackupScheduler) Pause() {
	bs.instructions <- backupInstruction{kind: backupPause}
}

// Resume 恢复自动备份
func (bs *BackupScheduler) Resume() {
	bs.instructions <- backupInstruction{kind: backupResume}
}

/**
 * Run 调度主循环，阻塞直到ctx取消
 */
func (bs *BackupScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(bs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("Backup task of instance '%s' exiting", bs.instanceName)
			return
		case instruction, ok := <-bs.instructions:
			if !ok {
				logger.Infof("Instruction channel of instance '%s' closed, backup task exiting", bs.instanceName)
				return
			}
			switch instruction.kind {
			case backupSetPeriod:
				bs.period = instruction.period
			case backupNow:
				bs.doBackup()
			case backupPause:
				if !bs.runPaused(ctx) {
					return
				}
			case backupResume:
				// 未处于暂停状态时Resume是空操作
			}
		case <-ticker.C:
			if bs.period == nil {
				continue
			}
			if bs.stateFn() != models.StateRunning {
				continue
			}
			bs.counter++
			if bs.counter >= *bs.period {
				bs.counter = 0
				bs.doBackup()
			}
		}
	}
}

/**
 * runPaused 暂停子循环，消费并丢弃指令直到Resume
 * @returns {bool} false表示ctx已取消，调度器应当退出
 * @description
 * - 暂停期间的BackupNow直接丢弃
 * - 最后一条SetPeriod被暂存，Resume时生效
 */
func (bs *BackupScheduler) runPaused(ctx context.Context) bool {
	var pendingPeriod *backupInstruction
	for {
		select {
		case <-ctx.Done():
			return false
		case instruction, ok := <-bs.instructions:
			if !ok {
				return false
			}
			switch instruction.kind {
			case backupSetPeriod:
				saved := instruction
				pendingPeriod = &saved
			case backupResume:
				if pendingPeriod != nil {
					bs.period = pendingPeriod.period
				}
				return true
			default:
				// 暂停期间丢弃其余指令
			}
		}
	}
}

func (bs *BackupScheduler) doBackup() {
	logger.Debugf("Backing up instance '%s'", bs.instanceName)
	if err := bs.backupFn(); err != nil {
		logger.Errorf("Failed to backup instance '%s': %v", bs.instanceName, err)
		RecordBackupFailure(bs.instanceName)
		if bs.events != nil {
			bs.events.EmitBackup(bs.instanceUUID, bs.instanceName, models.LevelError, err.Error())
		}
		return
	}
	RecordBackup(bs.instanceName)
	if bs.events != nil {
		bs.events.EmitBackup(bs.instanceUUID, bs.instanceName, models.LevelInfo, "backup finished")
	}
}
