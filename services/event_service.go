package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LodestoneMC-org/backend/internal/logger"
	"github.com/LodestoneMC-org/backend/internal/models"
)

/**
 * EventService 守护进程级的事件广播器
 * @description
 * - 订阅者各持有一条带缓冲的channel
 * - 发送为尽力而为：订阅者channel满了就丢弃，绝不阻塞发布方
 */
type EventService struct {
	subscribers map[string]chan models.Event
	mutex       sync.RWMutex
}

var eventService *EventService
var eventOnce sync.Once

func GetEventService() *EventService {
	eventOnce.Do(func() {
		eventService = &EventService{
			subscribers: make(map[string]chan models.Event),
		}
	})
	return eventService
}

/**
 * Subscribe 注册一个事件订阅者
 * @returns {string} 订阅者标识，用于退订
 * @returns {chan} 只读事件channel
 */
func (es *EventService) Subscribe() (string, <-chan models.Event) {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	id := uuid.NewString()
	ch := make(chan models.Event, 64)
	es.subscribers[id] = ch
	return id, ch
}

func (es *EventService) Unsubscribe(id string) {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	if ch, ok := es.subscribers[id]; ok {
		close(ch)
		delete(es.subscribers, id)
	}
}

/**
 * Emit 广播一个事件到所有订阅者
 * @param {models.Event} event - 事件体，ID与时间戳为空时自动补齐
 */
func (es *EventService) Emit(event models.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	es.mutex.RLock()
	defer es.mutex.RUnlock()

	for id, ch := range es.subscribers {
		select {
		case ch <- event:
		default:
			// 订阅者消费太慢，丢弃事件
			logger.Debugf("Subscriber %s is too slow, event %s dropped", id, event.ID)
		}
	}
}

// EmitStateTransition 广播实例状态跳变
func (es *EventService) EmitStateTransition(instanceUUID, instanceName string, state models.InstanceState) {
	es.Emit(models.Event{
		Type:         models.EventStateTransition,
		Level:        models.LevelInfo,
		InstanceUUID: instanceUUID,
		InstanceName: instanceName,
		State:        state,
		Message:      string(state),
	})
}

// EmitCrash 广播error级的Error状态跳变，随后的Stopped跳变由setState发出
func (es *EventService) EmitCrash(instanceUUID, instanceName, message string) {
	es.Emit(models.Event{
		Type:         models.EventStateTransition,
		Level:        models.LevelError,
		InstanceUUID: instanceUUID,
		InstanceName: instanceName,
		State:        models.StateError,
		Message:      message,
	})
}

// EmitProgression 广播长任务进度，value取值0.0~1.0
func (es *EventService) EmitProgression(instanceUUID, instanceName string, value float64, message string) {
	es.Emit(models.Event{
		Type:         models.EventProgression,
		Level:        models.LevelInfo,
		InstanceUUID: instanceUUID,
		InstanceName: instanceName,
		Progression:  value,
		Message:      message,
	})
}

// EmitConsole 广播实例控制台的一行输出
func (es *EventService) EmitConsole(instanceUUID, instanceName, line string) {
	es.Emit(models.Event{
		Type:         models.EventConsoleOutput,
		Level:        models.LevelInfo,
		InstanceUUID: instanceUUID,
		InstanceName: instanceName,
		Message:      line,
	})
}

// EmitBackup 广播备份结果
func (es *EventService) EmitBackup(instanceUUID, instanceName string, level models.EventLevel, message string) {
	es.Emit(models.Event{
		Type:         models.EventBackup,
		Level:        level,
		InstanceUUID: instanceUUID,
		InstanceName: instanceName,
		Message:      message,
	})
}
