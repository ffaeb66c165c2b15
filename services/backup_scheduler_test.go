package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LodestoneMC-org/backend/internal/models"
)

func uint32ptr(v uint32) *uint32 { return &v }

// newTestScheduler 返回一个节拍被压缩到毫秒级的调度器，避免测试里等真实秒数
func newTestScheduler(period *uint32, state *atomic.Value, backups *atomic.Int64) *BackupScheduler {
	bs := NewBackupScheduler("test-uuid", "test", period,
		func() models.InstanceState {
			return state.Load().(models.InstanceState)
		},
		func() error {
			backups.Add(1)
			return nil
		}, nil)
	bs.interval = 5 * time.Millisecond
	return bs
}

func TestPeriodicBackupFiresAndCounterResets(t *testing.T) {
	var state atomic.Value
	state.Store(models.StateRunning)
	var backups atomic.Int64

	bs := newTestScheduler(uint32ptr(3), &state, &backups)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bs.Run(ctx)

	// 周期3个节拍，跑100ms应该触发多次，说明计数器每次触发后被清零
	time.Sleep(100 * time.Millisecond)
	if got := backups.Load(); got < 2 {
		t.Fatalf("expected at least 2 periodic backups, got %d", got)
	}
}

func TestNoBackupUnlessRunning(t *testing.T) {
	var state atomic.Value
	state.Store(models.StateStopped)
	var backups atomic.Int64

	bs := newTestScheduler(uint32ptr(1), &state, &backups)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bs.Run(ctx)

	time.Sleep(60 * time.Millisecond)
	if got := backups.Load(); got != 0 {
		t.Fatalf("expected no backups while stopped, got %d", got)
	}

	// 切到Running后计数器开始走表
	state.Store(models.StateRunning)
	time.Sleep(60 * time.Millisecond)
	if got := backups.Load(); got == 0 {
		t.Fatal("expected backups after instance became running")
	}
}

func TestNilPeriodDisablesAutomaticBackups(t *testing.T) {
	var state atomic.Value
	state.Store(models.StateRunning)
	var backups atomic.Int64

	bs := newTestScheduler(nil, &state, &backups)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bs.Run(ctx)

	time.Sleep(60 * time.Millisecond)
	if got := backups.Load(); got != 0 {
		t.Fatalf("expected no backups with nil period, got %d", got)
	}

	bs.SetPeriod(uint32ptr(2))
	time.Sleep(60 * time.Millisecond)
	if got := backups.Load(); got == 0 {
		t.Fatal("expected backups after period was set")
	}
}

func TestBackupNowRunsOutOfBand(t *testing.T) {
	var state atomic.Value
	state.Store(models.StateStopped)
	var backups atomic.Int64

	// 周期极长，周期性触发不会干扰断言
	bs := newTestScheduler(uint32ptr(100000), &state, &backups)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bs.Run(ctx)

	// 即便实例没在运行，手动备份也立即执行
	bs.BackupNow()
	time.Sleep(30 * time.Millisecond)
	if got := backups.Load(); got != 1 {
		t.Fatalf("expected exactly 1 manual backup, got %d", got)
	}
}

func TestPauseDropsInstructionsButKeepsLastPeriod(t *testing.T) {
	var state atomic.Value
	state.Store(models.StateRunning)
	var backups atomic.Int64

	bs := newTestScheduler(nil, &state, &backups)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bs.Run(ctx)

	bs.Pause()
	// 暂停期间的手动备份被丢弃，周期修改被暂存
	bs.BackupNow()
	bs.SetPeriod(uint32ptr(1000))
	bs.SetPeriod(uint32ptr(1))
	time.Sleep(60 * time.Millisecond)
	if got := backups.Load(); got != 0 {
		t.Fatalf("expected no backups while paused, got %d", got)
	}

	bs.Resume()
	// 恢复后最后一次SetPeriod(1)生效，周期备份马上开始
	time.Sleep(60 * time.Millisecond)
	if got := backups.Load(); got == 0 {
		t.Fatal("expected periodic backups after resume with buffered period")
	}
}

func TestClosedInstructionChannelStopsScheduler(t *testing.T) {
	var state atomic.Value
	state.Store(models.StateRunning)
	var backups atomic.Int64

	bs := newTestScheduler(uint32ptr(1), &state, &backups)
	done := make(chan struct{})
	go func() {
		bs.Run(context.Background())
		close(done)
	}()

	close(bs.instructions)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler should exit when its instruction channel is closed")
	}
}
