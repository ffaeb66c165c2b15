package services

import (
	"testing"
	"time"

	"github.com/LodestoneMC-org/backend/internal/models"
)

func newTestEventService() *EventService {
	return &EventService{
		subscribers: make(map[string]chan models.Event),
	}
}

func TestEmitReachesAllSubscribers(t *testing.T) {
	es := newTestEventService()

	id1, ch1 := es.Subscribe()
	id2, ch2 := es.Subscribe()
	defer es.Unsubscribe(id1)
	defer es.Unsubscribe(id2)

	es.EmitStateTransition("uuid-1", "survival", models.StateRunning)

	for _, ch := range []<-chan models.Event{ch1, ch2} {
		select {
		case event := <-ch:
			if event.Type != models.EventStateTransition {
				t.Errorf("expected state_transition event, got %s", event.Type)
			}
			if event.State != models.StateRunning {
				t.Errorf("expected state Running, got %s", event.State)
			}
			if event.ID == "" || event.Timestamp.IsZero() {
				t.Error("event id and timestamp should be filled in")
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestSlowSubscriberNeverBlocksEmit(t *testing.T) {
	es := newTestEventService()

	id, ch := es.Subscribe()
	defer es.Unsubscribe(id)

	// 填满订阅者缓冲后继续发送，Emit必须立即返回
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			es.EmitConsole("uuid-1", "survival", "line")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a slow subscriber")
	}

	// 缓冲里最多只有channel容量那么多事件，其余被丢弃
	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received == 0 || received > 64 {
		t.Errorf("expected between 1 and 64 buffered events, got %d", received)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	es := newTestEventService()

	id, ch := es.Subscribe()
	es.Unsubscribe(id)

	if _, open := <-ch; open {
		t.Error("channel should be closed after unsubscribe")
	}

	// 退订后的广播不会panic
	es.EmitBackup("uuid-1", "survival", models.LevelInfo, "backup finished")
}
