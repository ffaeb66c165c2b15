package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/LodestoneMC-org/backend/internal/logger"
	"github.com/LodestoneMC-org/backend/internal/lserr"
	"github.com/LodestoneMC-org/backend/internal/manifest"
	"github.com/LodestoneMC-org/backend/internal/models"
	"github.com/LodestoneMC-org/backend/internal/proc"
	"github.com/LodestoneMC-org/backend/internal/utils"
)

const (
	ConfigFileName     = ".lodestone_config"
	PropertiesFileName = "server.properties"
	PropertiesSection  = "server_properties"
)

/**
 * InstanceSupervisor 单个游戏服务器实例的监管者
 * @description
 * - 唯一持有子进程句柄和全部可变运行时字段
 * - 状态/配置/manifest/进程各用一把锁，互不相干的关注点不共享锁
 * - 崩溃检测靠每秒轮询进程存活，而不是Wait
 */
type InstanceSupervisor struct {
	uuid         string
	creationTime time.Time

	root           string
	configPath     string
	propertiesPath string
	macrosDir      string
	worldsDir      string

	stateMu     sync.Mutex
	state       models.InstanceState
	playerCount uint32

	configMu sync.Mutex
	config   models.RestoreConfig

	manifestMu sync.Mutex
	manifest   *manifest.ConfigurableManifest

	procMu  sync.Mutex
	process *proc.ChildProcess

	scheduler *BackupScheduler
	cancel    context.CancelFunc

	// 进程存活轮询间隔，测试里会调小
	monitorInterval time.Duration

	events *EventService
	macros *MacroExecutor
}

/**
 * RestoreInstance 从磁盘恢复一个实例
 * @param {string} instanceUUID - 实例标识，同时是目录名
 * @param {string} root - 实例根目录
 * @returns {InstanceSupervisor} 就绪但处于Stopped状态的实例
 * @description
 * - 配置JSON缺失或损坏是致命错误，实例不会上线
 * - properties文件丢失时按持久化的端口重新生成
 * - 启动本实例的备份调度协程
 */
func RestoreInstance(instanceUUID, root string, events *EventService, macros *MacroExecutor) (*InstanceSupervisor, error) {
	configPath := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, lserr.Internal(err, "read config of instance '%s' failed", instanceUUID)
	}
	var cfg models.RestoreConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, lserr.Internal(err, "config of instance '%s' is corrupted", instanceUUID)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, lserr.Internal(err, "stat instance dir '%s' failed", root)
	}

	sup := &InstanceSupervisor{
		uuid:            instanceUUID,
		creationTime:    info.ModTime(),
		root:            root,
		configPath:      configPath,
		propertiesPath:  filepath.Join(root, PropertiesFileName),
		macrosDir:       filepath.Join(root, "macros"),
		worldsDir:       filepath.Join(root, "worlds"),
		state:           models.StateStopped,
		config:          cfg,
		events:          events,
		macros:          macros,
		monitorInterval: time.Second,
	}

	// 重建可能被删除的文件和目录
	if err := os.MkdirAll(sup.macrosDir, 0755); err != nil {
		return nil, lserr.Internal(err, "create macros dir of instance '%s' failed", instanceUUID)
	}
	if err := os.MkdirAll(sup.worldsDir, 0755); err != nil {
		return nil, lserr.Internal(err, "create worlds dir of instance '%s' failed", instanceUUID)
	}
	if _, err := os.Stat(sup.propertiesPath); os.IsNotExist(err) {
		line := []utils.PropertyPair{{Key: "server-port", Value: fmt.Sprintf("%d", cfg.Port)}}
		if err := utils.WriteProperties(sup.propertiesPath, line); err != nil {
			return nil, lserr.Internal(err, "regenerate properties of instance '%s' failed", instanceUUID)
		}
	}

	if err := sup.loadManifest(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sup.cancel = cancel
	sup.scheduler = NewBackupScheduler(sup.uuid, cfg.Name, cfg.BackupPeriod, sup.State, sup.performBackup, events)
	go sup.scheduler.Run(ctx)

	logger.Infof("Instance '%s' (%s) restored", cfg.Name, instanceUUID)
	return sup, nil
}

/**
 * loadManifest 把磁盘上的properties文件解析进ConfigurableManifest
 */
func (sup *InstanceSupervisor) loadManifest() error {
	pairs, err := utils.ReadProperties(sup.propertiesPath)
	if err != nil {
		return lserr.Internal(err, "parse properties of instance '%s' failed", sup.uuid)
	}

	m := manifest.NewConfigurableManifest(true, true, false, false)
	section := manifest.NewSection(PropertiesSection, "Server Properties", "settings stored in "+PropertiesFileName)
	for _, pair := range pairs {
		value := parsePropertyValue(pair.Value)
		setting := manifest.NewOptionalSetting(pair.Key, pair.Key, "", &value, value.InferType(), nil, false, true)
		section.InsertSetting(setting)
	}
	if err := m.AddSection(section); err != nil {
		return err
	}

	sup.manifestMu.Lock()
	sup.manifest = m
	sup.manifestMu.Unlock()
	return nil
}

// parsePropertyValue 从properties的文本值猜测最合适的类型
func parsePropertyValue(raw string) manifest.ConfigurableValue {
	if raw == "true" || raw == "false" {
		return manifest.NewBooleanValue(raw == "true")
	}
	if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
		return manifest.NewUnsignedValue(uint32(v))
	}
	if v, err := strconv.ParseInt(raw, 10, 32); err == nil {
		return manifest.NewIntegerValue(int32(v))
	}
	if v, err := strconv.ParseFloat(raw, 32); err == nil {
		return manifest.NewFloatValue(float32(v))
	}
	return manifest.NewStringValue(raw)
}

func (sup *InstanceSupervisor) UUID() string            { return sup.uuid }
func (sup *InstanceSupervisor) Root() string            { return sup.root }
func (sup *InstanceSupervisor) CreationTime() time.Time { return sup.creationTime }

func (sup *InstanceSupervisor) State() models.InstanceState {
	sup.stateMu.Lock()
	defer sup.stateMu.Unlock()
	return sup.state
}

func (sup *InstanceSupervisor) PlayerCount() uint32 {
	sup.stateMu.Lock()
	defer sup.stateMu.Unlock()
	return sup.playerCount
}

// setState 切换状态并广播跳变事件，事件发送绝不阻塞状态机
func (sup *InstanceSupervisor) setState(state models.InstanceState) {
	sup.stateMu.Lock()
	sup.state = state
	sup.stateMu.Unlock()

	logger.Infof("Instance '%s' -> %s", sup.Name(), state)
	sup.events.EmitStateTransition(sup.uuid, sup.Name(), state)
}

/**
 * Start 启动实例
 * @returns {error} 返回错误信息
 * @description
 * - 只允许从Stopped出发
 * - 进程拉起后先进入Starting，等控制台输出就绪标记才算Running
 * - 另起监控协程每秒轮询存活，发现意外退出按崩溃处理
 */
func (sup *InstanceSupervisor) Start() error {
	sup.stateMu.Lock()
	if sup.state != models.StateStopped {
		state := sup.state
		sup.stateMu.Unlock()
		return lserr.BadRequest("cannot start instance '%s' in state %s", sup.Name(), state)
	}
	sup.state = models.StateStarting
	sup.playerCount = 0
	sup.stateMu.Unlock()
	sup.events.EmitStateTransition(sup.uuid, sup.Name(), models.StateStarting)

	cfg := sup.Config()
	command, args := sup.launchCommand(cfg)
	child := proc.NewChildProcess("instance "+cfg.Name, command, args, sup.root)
	child.SetOutputCallback(sup.handleConsoleLine)

	if err := child.Start(); err != nil {
		sup.setState(models.StateStopped)
		return lserr.Internal(err, "start instance '%s' failed", cfg.Name)
	}

	sup.procMu.Lock()
	sup.process = child
	sup.procMu.Unlock()

	sup.configMu.Lock()
	if !sup.config.HasStarted {
		sup.config.HasStarted = true
		sup.saveConfigLocked()
	}
	sup.configMu.Unlock()

	go sup.monitorProcess(child)
	go func() {
		// 顺手清理超过30天的旧控制台日志
		if n, err := GetConsoleLogService().Prune(sup.root, 30*24*time.Hour); err != nil {
			logger.Warnf("Failed to prune console logs of '%s': %v", cfg.Name, err)
		} else if n > 0 {
			logger.Infof("Pruned %d stale console logs of '%s'", n, cfg.Name)
		}
	}()
	return nil
}

/**
 * launchCommand 组装启动命令行
 * @description
 * - cmd_args显式给出时照单全收
 * - 否则按java -jar惯例拼装，min_ram/max_ram折算成-Xms/-Xmx
 */
func (sup *InstanceSupervisor) launchCommand(cfg models.RestoreConfig) (string, []string) {
	if fields := strings.Fields(cfg.StartCommand); len(fields) > 0 {
		return fields[0], fields[1:]
	}
	var args []string
	if cfg.MinRAM > 0 {
		args = append(args, fmt.Sprintf("-Xms%dM", cfg.MinRAM))
	}
	if cfg.MaxRAM > 0 {
		args = append(args, fmt.Sprintf("-Xmx%dM", cfg.MaxRAM))
	}
	args = append(args, "-jar", "server.jar", "nogui")
	return "java", args
}

/**
 * handleConsoleLine 子进程每行输出的处理
 * @description
 * - 每行都作为console事件广播
 * - 就绪标记把Starting推进到Running
 * - 进出玩家的日志维护在线人数
 */
func (sup *InstanceSupervisor) handleConsoleLine(line string) {
	sup.events.EmitConsole(sup.uuid, sup.Name(), line)
	if err := GetConsoleLogService().Append(sup.root, line); err != nil {
		logger.Warnf("Append console log of instance '%s' failed: %v", sup.Name(), err)
	}

	sup.stateMu.Lock()
	state := sup.state
	if state == models.StateStarting && strings.Contains(line, "Done (") {
		sup.state = models.StateRunning
		sup.stateMu.Unlock()
		sup.events.EmitStateTransition(sup.uuid, sup.Name(), models.StateRunning)
		return
	}
	if state == models.StateRunning {
		if strings.Contains(line, "joined the game") {
			sup.playerCount++
		} else if strings.Contains(line, "left the game") && sup.playerCount > 0 {
			sup.playerCount--
		}
	}
	sup.stateMu.Unlock()
}

/**
 * monitorProcess 进程监控协程
 * @description
 * - 每秒轮询子进程存活
 * - Stopping状态下退出是正常停止，其余状态下退出视为崩溃
 * - 崩溃先广播error级的Error跳变，再进入Stopped
 * - 崩溃且restart_on_crash时自动再次Start
 */
func (sup *InstanceSupervisor) monitorProcess(child *proc.ChildProcess) {
	ticker := time.NewTicker(sup.monitorInterval)
	defer ticker.Stop()

	for range ticker.C {
		if child.Alive() {
			continue
		}

		sup.stateMu.Lock()
		crashed := sup.state == models.StateStarting || sup.state == models.StateRunning
		sup.stateMu.Unlock()

		sup.procMu.Lock()
		child.Release()
		sup.process = nil
		sup.procMu.Unlock()

		if crashed {
			logger.Warnf("Instance '%s' exited unexpectedly", sup.Name())
			sup.events.EmitCrash(sup.uuid, sup.Name(), "process exited unexpectedly")
		}
		sup.setState(models.StateStopped)

		if crashed && sup.Config().RestartOnCrash {
			logger.Infof("Instance '%s' will restart after crash", sup.Name())
			if err := sup.Start(); err != nil {
				logger.Errorf("Restart of instance '%s' after crash failed: %v", sup.Name(), err)
			}
		}
		return
	}
}

/**
 * Stop 优雅停止实例
 * @returns {error} 返回错误信息
 * @description
 * - 向控制台写入stop命令，等监控协程观察到进程退出后进入Stopped
 */
func (sup *InstanceSupervisor) Stop() error {
	sup.stateMu.Lock()
	if sup.state != models.StateRunning && sup.state != models.StateStarting {
		state := sup.state
		sup.stateMu.Unlock()
		return lserr.BadRequest("cannot stop instance '%s' in state %s", sup.Name(), state)
	}
	sup.state = models.StateStopping
	sup.stateMu.Unlock()
	sup.events.EmitStateTransition(sup.uuid, sup.Name(), models.StateStopping)

	sup.procMu.Lock()
	child := sup.process
	sup.procMu.Unlock()
	if child == nil {
		sup.setState(models.StateStopped)
		return nil
	}
	if err := child.WriteStdin("stop"); err != nil {
		// stdin已断开，只能强杀
		logger.Warnf("Graceful stop of instance '%s' failed, killing: %v", sup.Name(), err)
		return child.Kill()
	}
	return nil
}

/**
 * Kill 强制杀死实例进程
 * @returns {error} 返回错误信息
 */
func (sup *InstanceSupervisor) Kill() error {
	sup.procMu.Lock()
	child := sup.process
	sup.procMu.Unlock()
	if child == nil {
		return lserr.BadRequest("instance '%s' has no running process", sup.Name())
	}

	sup.stateMu.Lock()
	sup.state = models.StateStopping
	sup.stateMu.Unlock()
	sup.events.EmitStateTransition(sup.uuid, sup.Name(), models.StateStopping)
	return child.Kill()
}

/**
 * Restart 重启实例
 * @returns {error} 返回错误信息
 * @description
 * - 先Stop再轮询等到Stopped，最后Start
 */
func (sup *InstanceSupervisor) Restart() error {
	if err := sup.Stop(); err != nil {
		return err
	}
	for i := 0; i < 60; i++ {
		if sup.State() == models.StateStopped {
			return sup.Start()
		}
		time.Sleep(time.Second)
	}
	return lserr.Internal(nil, "instance '%s' did not stop in time", sup.Name())
}

/**
 * SendCommand 向运行中的实例控制台写入一条命令
 * @param {string} line - 不带换行的命令
 * @returns {error} 返回错误信息
 */
func (sup *InstanceSupervisor) SendCommand(line string) error {
	if sup.State() != models.StateRunning {
		return lserr.BadRequest("instance '%s' is not running", sup.Name())
	}
	sup.procMu.Lock()
	child := sup.process
	sup.procMu.Unlock()
	if child == nil {
		return lserr.BadRequest("instance '%s' has no running process", sup.Name())
	}
	return child.WriteStdin(line)
}

/**
 * performBackup 把worlds目录整体拷贝到带时间戳的备份目录
 * @returns {error} 返回错误信息
 */
func (sup *InstanceSupervisor) performBackup() error {
	backupName := "backup-" + time.Now().UTC().Format("2006-01-02_15-04-05")
	backupPath := filepath.Join(sup.root, "backup", backupName)
	if err := utils.CopyDir(sup.worldsDir, backupPath); err != nil {
		return fmt.Errorf("backup of instance '%s' failed: %v", sup.Name(), err)
	}
	logger.Infof("Instance '%s' backed up to %s", sup.Name(), backupPath)
	return nil
}

// BackupNow 立即触发一次备份
func (sup *InstanceSupervisor) BackupNow() { sup.scheduler.BackupNow() }

// PauseBackups 暂停自动备份
func (sup *InstanceSupervisor) PauseBackups() { sup.scheduler.Pause() }

// ResumeBackups 恢复自动备份
func (sup *InstanceSupervisor) ResumeBackups() { sup.scheduler.Resume() }

/**
 * Close 停掉实例的后台协程（备份调度等），进程本身不受影响
 */
func (sup *InstanceSupervisor) Close() {
	if sup.cancel != nil {
		sup.cancel()
	}
	GetConsoleLogService().Close(sup.root)
}

// ConsoleTail 返回控制台日志的最后lines行
func (sup *InstanceSupervisor) ConsoleTail(lines int) ([]string, error) {
	return GetConsoleLogService().Tail(sup.root, lines)
}

// Config 返回当前持久化配置的副本
func (sup *InstanceSupervisor) Config() models.RestoreConfig {
	sup.configMu.Lock()
	defer sup.configMu.Unlock()
	return sup.config
}

func (sup *InstanceSupervisor) Name() string {
	sup.configMu.Lock()
	defer sup.configMu.Unlock()
	return sup.config.Name
}

func (sup *InstanceSupervisor) Port() uint32 {
	sup.configMu.Lock()
	defer sup.configMu.Unlock()
	return sup.config.Port
}

// saveConfigLocked 持久化配置JSON，调用方必须已持有configMu
func (sup *InstanceSupervisor) saveConfigLocked() {
	data, err := json.MarshalIndent(sup.config, "", "  ")
	if err != nil {
		logger.Errorf("Marshal config of instance '%s' failed: %v", sup.config.Name, err)
		return
	}
	if err := utils.WriteJSONFile(sup.configPath, data); err != nil {
		logger.Errorf("Save config of instance '%s' failed: %v", sup.config.Name, err)
	}
}

// mutateConfig 在锁内修改并立即持久化配置
func (sup *InstanceSupervisor) mutateConfig(fn func(*models.RestoreConfig)) {
	sup.configMu.Lock()
	defer sup.configMu.Unlock()
	fn(&sup.config)
	sup.saveConfigLocked()
}

func (sup *InstanceSupervisor) SetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return lserr.BadRequest("instance name cannot be empty")
	}
	sup.mutateConfig(func(cfg *models.RestoreConfig) { cfg.Name = name })
	return nil
}

func (sup *InstanceSupervisor) SetDescription(description string) {
	sup.mutateConfig(func(cfg *models.RestoreConfig) { cfg.Description = description })
}

func (sup *InstanceSupervisor) SetAutoStart(autoStart bool) {
	sup.mutateConfig(func(cfg *models.RestoreConfig) { cfg.AutoStart = autoStart })
}

func (sup *InstanceSupervisor) SetRestartOnCrash(restart bool) {
	sup.mutateConfig(func(cfg *models.RestoreConfig) { cfg.RestartOnCrash = restart })
}

func (sup *InstanceSupervisor) MinRAM() uint32 {
	sup.configMu.Lock()
	defer sup.configMu.Unlock()
	return sup.config.MinRAM
}

func (sup *InstanceSupervisor) MaxRAM() uint32 {
	sup.configMu.Lock()
	defer sup.configMu.Unlock()
	return sup.config.MaxRAM
}

/**
 * SetRAMBounds 修改JVM堆上下界，单位MiB
 * @description
 * - 0表示该侧交给JVM默认值
 * - 两侧都给出时min不能大于max
 */
func (sup *InstanceSupervisor) SetRAMBounds(min, max uint32) error {
	if min > 0 && max > 0 && min > max {
		return lserr.BadRequest("min_ram %d exceeds max_ram %d", min, max)
	}
	sup.mutateConfig(func(cfg *models.RestoreConfig) {
		cfg.MinRAM = min
		cfg.MaxRAM = max
	})
	return nil
}

// SetStartCommand 覆盖默认的java启动命令，空串恢复默认
func (sup *InstanceSupervisor) SetStartCommand(command string) {
	sup.mutateConfig(func(cfg *models.RestoreConfig) { cfg.StartCommand = strings.TrimSpace(command) })
}

/**
 * SetBackupPeriod 修改备份周期并通知调度器
 * @param {uint32} period - 秒数，nil表示关闭自动备份
 */
func (sup *InstanceSupervisor) SetBackupPeriod(period *uint32) {
	sup.mutateConfig(func(cfg *models.RestoreConfig) { cfg.BackupPeriod = period })
	sup.scheduler.SetPeriod(period)
}

/**
 * SetPort 修改监听端口
 * @description
 * - 同步写回properties文件和配置JSON里的端口
 * - 先走manifest校验落properties，成功后才动配置JSON，失败时两份视图保持一致
 */
func (sup *InstanceSupervisor) SetPort(port uint32) error {
	if sup.State() != models.StateStopped {
		return lserr.BadRequest("cannot change port of instance '%s' while it runs", sup.Name())
	}
	value := manifest.NewUnsignedValue(port)
	if err := sup.UpdateSetting(PropertiesSection, "server-port", value); err != nil {
		return err
	}
	sup.mutateConfig(func(cfg *models.RestoreConfig) { cfg.Port = port })
	return nil
}

/**
 * GetSetting 按section/key读取一个游戏自有配置项
 * @returns {manifest.SettingManifest} 锁内拍下的快照，后续修改不影响它
 */
func (sup *InstanceSupervisor) GetSetting(sectionID, settingID string) (*manifest.SettingManifest, error) {
	sup.manifestMu.Lock()
	defer sup.manifestMu.Unlock()

	setting, ok := sup.manifest.GetSetting(sectionID, settingID)
	if !ok {
		return nil, lserr.NotFound("setting '%s/%s' does not exist", sectionID, settingID)
	}
	snapshot := *setting
	return &snapshot, nil
}

/**
 * UpdateSetting 校验并写入一个游戏自有配置项，随即落盘
 */
func (sup *InstanceSupervisor) UpdateSetting(sectionID, settingID string, value manifest.ConfigurableValue) error {
	sup.manifestMu.Lock()
	defer sup.manifestMu.Unlock()

	if err := sup.manifest.UpdateSettingValue(sectionID, settingID, value); err != nil {
		return err
	}
	return sup.flushPropertiesLocked()
}

/**
 * ApplySettings 原子地应用一批配置修改
 * @description
 * - 先整体校验再写入，任何一项失败整批不落盘
 */
func (sup *InstanceSupervisor) ApplySettings(candidate manifest.ManifestValue) error {
	sup.manifestMu.Lock()
	defer sup.manifestMu.Unlock()

	if err := sup.manifest.Apply(candidate); err != nil {
		return err
	}
	return sup.flushPropertiesLocked()
}

/**
 * ManifestJSON 把完整配置清单序列化成JSON
 * @description
 * - 序列化在manifestMu内完成，返回的字节不再和清单共享内存，
 *   调用方拿到的是一致快照
 */
func (sup *InstanceSupervisor) ManifestJSON() ([]byte, error) {
	sup.manifestMu.Lock()
	defer sup.manifestMu.Unlock()

	data, err := json.Marshal(sup.manifest)
	if err != nil {
		return nil, lserr.Internal(err, "marshal manifest of instance '%s' failed", sup.uuid)
	}
	return data, nil
}

// SectionSettingsJSON 锁内把一个section按存储顺序序列化成JSON
func (sup *InstanceSupervisor) SectionSettingsJSON(sectionID string) ([]byte, error) {
	sup.manifestMu.Lock()
	defer sup.manifestMu.Unlock()

	section, ok := sup.manifest.GetSection(sectionID)
	if !ok {
		return nil, lserr.NotFound("section '%s' does not exist", sectionID)
	}
	data, err := json.Marshal(section)
	if err != nil {
		return nil, lserr.Internal(err, "marshal section '%s' of instance '%s' failed", sectionID, sup.uuid)
	}
	return data, nil
}

// flushPropertiesLocked 把properties区按存储顺序写回磁盘，调用方必须已持有manifestMu
func (sup *InstanceSupervisor) flushPropertiesLocked() error {
	section, ok := sup.manifest.GetSection(PropertiesSection)
	if !ok {
		return lserr.NotFound("section '%s' does not exist", PropertiesSection)
	}

	var pairs []utils.PropertyPair
	for _, settingID := range section.SettingIDs() {
		setting, _ := section.GetSetting(settingID)
		if setting.Value() == nil {
			continue
		}
		pairs = append(pairs, utils.PropertyPair{Key: settingID, Value: setting.Value().String()})
	}
	if err := utils.WriteProperties(sup.propertiesPath, pairs); err != nil {
		return lserr.Internal(err, "write properties of instance '%s' failed", sup.Name())
	}
	return nil
}

/**
 * RunMacro 把macros目录下的一个脚本交给宏执行器
 * @param {string} name - 不带扩展名的脚本名
 * @returns {models.MacroPID} 分配的任务号
 */
func (sup *InstanceSupervisor) RunMacro(name string) (models.MacroPID, error) {
	scriptPath := filepath.Join(sup.macrosDir, name)
	if _, err := os.Stat(scriptPath); err != nil {
		return 0, lserr.NotFound("macro '%s' does not exist", name)
	}
	pid := sup.macros.Submit(name, sup.uuid, func() error {
		child := proc.NewChildProcess("macro "+name, scriptPath, nil, sup.root)
		child.SetOutputCallback(func(line string) {
			sup.events.EmitConsole(sup.uuid, sup.Name(), line)
		})
		if err := child.Start(); err != nil {
			return err
		}
		for child.Alive() {
			time.Sleep(time.Second)
		}
		child.Release()
		return nil
	})
	return pid, nil
}

// Detail 组装实例的对外视图
func (sup *InstanceSupervisor) Detail() models.InstanceDetail {
	cfg := sup.Config()
	return models.InstanceDetail{
		UUID:           sup.uuid,
		Name:           cfg.Name,
		Description:    cfg.Description,
		Version:        cfg.Version,
		Port:           cfg.Port,
		State:          sup.State(),
		PlayerCount:    sup.PlayerCount(),
		AutoStart:      cfg.AutoStart,
		RestartOnCrash: cfg.RestartOnCrash,
		BackupPeriod:   cfg.BackupPeriod,
		CreationTime:   sup.creationTime,
		Path:           sup.root,
	}
}
