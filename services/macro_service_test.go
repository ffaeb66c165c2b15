package services

import (
	"errors"
	"testing"
	"time"

	"github.com/LodestoneMC-org/backend/internal/lserr"
	"github.com/LodestoneMC-org/backend/internal/models"
)

func waitTaskState(t *testing.T, me *MacroExecutor, pid models.MacroPID, want models.TaskState) models.TaskEntry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entry, err := me.GetTask(pid)
		if err != nil {
			t.Fatalf("GetTask(%d) failed: %v", pid, err)
		}
		if entry.State == want {
			return entry
		}
		time.Sleep(5 * time.Millisecond)
	}
	entry, _ := me.GetTask(pid)
	t.Fatalf("task %d never reached state %s, still %s", pid, want, entry.State)
	return models.TaskEntry{}
}

func TestSubmitAssignsMonotonicPIDs(t *testing.T) {
	me := NewMacroExecutor(nil)

	pid1 := me.Submit("warmup", "uuid-1", func() error { return nil })
	pid2 := me.Submit("warmup", "uuid-1", func() error { return nil })
	if pid2 <= pid1 {
		t.Errorf("expected monotonic pids, got %d then %d", pid1, pid2)
	}

	waitTaskState(t, me, pid1, models.TaskFinished)
	waitTaskState(t, me, pid2, models.TaskFinished)
}

func TestFailedTaskRecordsExitError(t *testing.T) {
	me := NewMacroExecutor(nil)

	pid := me.Submit("broken", "uuid-1", func() error {
		return errors.New("exit status 1")
	})

	entry := waitTaskState(t, me, pid, models.TaskError)
	if entry.ExitError != "exit status 1" {
		t.Errorf("expected exit error recorded, got %q", entry.ExitError)
	}
}

func TestKilledStateIsPreserved(t *testing.T) {
	me := NewMacroExecutor(nil)

	release := make(chan struct{})
	pid := me.Submit("longrun", "uuid-1", func() error {
		<-release
		return errors.New("killed")
	})

	if err := me.MarkKilled(pid); err != nil {
		t.Fatalf("MarkKilled failed: %v", err)
	}
	close(release)

	entry := waitTaskState(t, me, pid, models.TaskKilled)
	if entry.State != models.TaskKilled {
		t.Errorf("killed state was overwritten with %s", entry.State)
	}
}

func TestGetTasksKeepsSubmissionOrder(t *testing.T) {
	me := NewMacroExecutor(nil)

	var pids []models.MacroPID
	for _, name := range []string{"first", "second", "third"} {
		pids = append(pids, me.Submit(name, "uuid-1", func() error { return nil }))
	}
	for _, pid := range pids {
		waitTaskState(t, me, pid, models.TaskFinished)
	}

	tasks := me.GetTasks()
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	for i, want := range []string{"first", "second", "third"} {
		if tasks[i].Name != want {
			t.Errorf("task %d: expected %s, got %s", i, want, tasks[i].Name)
		}
	}
}

func TestGetTaskUnknownPID(t *testing.T) {
	me := NewMacroExecutor(nil)

	_, err := me.GetTask(999)
	if err == nil {
		t.Fatal("expected error for unknown pid")
	}
	if !lserr.IsKind(err, lserr.KindNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestLastRunIsTracked(t *testing.T) {
	me := NewMacroExecutor(nil)

	if _, ok := me.LastRun("warmup"); ok {
		t.Error("LastRun should report false before any run")
	}
	pid := me.Submit("warmup", "uuid-1", func() error { return nil })
	waitTaskState(t, me, pid, models.TaskFinished)

	when, ok := me.LastRun("warmup")
	if !ok || when.IsZero() {
		t.Error("LastRun should report the submission time")
	}
}
