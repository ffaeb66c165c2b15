package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/LodestoneMC-org/backend/internal/config"
	"github.com/LodestoneMC-org/backend/internal/logger"
	"github.com/LodestoneMC-org/backend/internal/lserr"
	"github.com/LodestoneMC-org/backend/internal/models"
	"github.com/LodestoneMC-org/backend/internal/utils"
)

/**
 * InstanceManager 实例集合的管理者
 * @description
 * - 集合锁只保护uuid到supervisor的映射本身
 * - 绝不在持有集合锁的情况下调用supervisor的方法，避免锁序死锁
 */
type InstanceManager struct {
	root      string
	instances map[string]*InstanceSupervisor
	mutex     sync.RWMutex

	events *EventService
	macros *MacroExecutor
}

var instanceManager *InstanceManager
var instanceOnce sync.Once

func GetInstanceManager() *InstanceManager {
	instanceOnce.Do(func() {
		events := GetEventService()
		instanceManager = &InstanceManager{
			root:      config.Config.Instances.Root,
			instances: make(map[string]*InstanceSupervisor),
			events:    events,
			macros:    NewMacroExecutor(events),
		}
	})
	return instanceManager
}

// Events 返回管理器使用的事件广播器
func (im *InstanceManager) Events() *EventService {
	return im.events
}

// Macros 返回管理器使用的宏执行器
func (im *InstanceManager) Macros() *MacroExecutor {
	return im.macros
}

/**
 * RestoreAll 恢复实例根目录下的全部实例
 * @description
 * - 单个实例恢复失败只记日志，不影响其它实例
 * - auto_start的实例恢复完成后自动启动
 */
func (im *InstanceManager) RestoreAll() {
	entries, err := os.ReadDir(im.root)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Errorf("Read instances dir '%s' failed: %v", im.root, err)
		}
		return
	}

	var started []*InstanceSupervisor
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		instanceUUID := entry.Name()
		sup, err := RestoreInstance(instanceUUID, filepath.Join(im.root, instanceUUID), im.events, im.macros)
		if err != nil {
			logger.Errorf("Restore instance '%s' failed: %v", instanceUUID, err)
			continue
		}
		im.mutex.Lock()
		im.instances[instanceUUID] = sup
		im.mutex.Unlock()
		if sup.Config().AutoStart {
			started = append(started, sup)
		}
	}

	for _, sup := range started {
		if err := sup.Start(); err != nil {
			logger.Errorf("Auto start of instance '%s' failed: %v", sup.Name(), err)
		}
	}
}

/**
 * CreateInstance 创建一个全新实例
 * @param {models.SetupConfig} setup - 创建参数
 * @returns {InstanceSupervisor} 创建完成并restore过的实例
 * @description
 * - 整个流水线通过progression事件上报进度，单调递增到1.0
 * - 任何一步失败都不会注册半成品实例，磁盘残留由调用方清理
 */
func (im *InstanceManager) CreateInstance(setup models.SetupConfig) (*InstanceSupervisor, error) {
	if strings.TrimSpace(setup.Name) == "" {
		return nil, lserr.BadRequest("instance name cannot be empty")
	}
	if im.findByName(setup.Name) != nil {
		return nil, lserr.AlreadyExists("instance named '%s' already exists", setup.Name)
	}
	if setup.MinRAM > 0 && setup.MaxRAM > 0 && setup.MinRAM > setup.MaxRAM {
		return nil, lserr.BadRequest("min_ram %d exceeds max_ram %d", setup.MinRAM, setup.MaxRAM)
	}

	port := setup.Port
	if port == 0 {
		allocated, err := utils.AllocPort(0, config.Config.Instances.PortMin, config.Config.Instances.PortMax)
		if err != nil {
			return nil, lserr.Internal(err, "allocate port for instance '%s' failed", setup.Name)
		}
		port = allocated
	} else if !utils.CheckPortAvailable(int(port)) {
		return nil, lserr.AlreadyExists("port %d is already in use", port)
	}

	instanceUUID := uuid.NewString()
	root := filepath.Join(im.root, instanceUUID)

	// (1) 解析下载地址
	downloadURL, version, err := im.resolveDownloadURL(setup)
	if err != nil {
		return nil, err
	}
	im.events.EmitProgression(instanceUUID, setup.Name, 0.0, "resolved server version "+version)

	// (2) 流式下载，进度按字节数折算到0.8
	archivePath := filepath.Join(root, "server.download")
	err = utils.DownloadFile(downloadURL, archivePath, func(done, total int64) {
		if total > 0 {
			im.events.EmitProgression(instanceUUID, setup.Name, 0.8*float64(done)/float64(total), "downloading server")
		}
	})
	if err != nil {
		return nil, lserr.Internal(err, "download server for instance '%s' failed", setup.Name)
	}

	// (3) 解包并删除压缩包，裸jar直接就位
	if err := im.unpackServer(downloadURL, archivePath, root); err != nil {
		return nil, err
	}
	im.events.EmitProgression(instanceUUID, setup.Name, 0.8, "server unpacked")

	// (4) 建立目录结构和初始properties
	for _, dir := range []string{"macros", "worlds"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, lserr.Internal(err, "create '%s' dir for instance '%s' failed", dir, setup.Name)
		}
	}
	pairs := []utils.PropertyPair{{Key: "server-port", Value: fmt.Sprintf("%d", port)}}
	if err := utils.WriteProperties(filepath.Join(root, PropertiesFileName), pairs); err != nil {
		return nil, lserr.Internal(err, "write properties for instance '%s' failed", setup.Name)
	}
	im.events.EmitProgression(instanceUUID, setup.Name, 0.9, "instance directories created")

	// (5) 持久化配置JSON
	restoreCfg := models.RestoreConfig{
		Name:           setup.Name,
		Version:        version,
		Description:    setup.Description,
		Port:           port,
		MinRAM:         setup.MinRAM,
		MaxRAM:         setup.MaxRAM,
		StartCommand:   setup.StartCommand,
		AutoStart:      setup.AutoStart,
		RestartOnCrash: setup.RestartCrash,
		BackupPeriod:   setup.BackupPeriod,
		HasStarted:     false,
	}
	data, err := json.MarshalIndent(restoreCfg, "", "  ")
	if err != nil {
		return nil, lserr.Internal(err, "marshal config of instance '%s' failed", setup.Name)
	}
	if err := utils.WriteJSONFile(filepath.Join(root, ConfigFileName), data); err != nil {
		return nil, lserr.Internal(err, "save config of instance '%s' failed", setup.Name)
	}

	// (6) 交给restore收尾
	sup, err := RestoreInstance(instanceUUID, root, im.events, im.macros)
	if err != nil {
		return nil, err
	}

	im.mutex.Lock()
	im.instances[instanceUUID] = sup
	im.mutex.Unlock()

	im.events.EmitProgression(instanceUUID, setup.Name, 1.0, "instance created")
	logger.Infof("Instance '%s' (%s) created at %s", setup.Name, instanceUUID, root)
	return sup, nil
}

/**
 * resolveDownloadURL 把版本要求解析成具体下载地址
 * @description
 * - 显式给了version_url就用它
 * - "latest"或空版本走版本清单两跳解析
 */
func (im *InstanceManager) resolveDownloadURL(setup models.SetupConfig) (string, string, error) {
	if setup.VersionURL != "" {
		version := setup.Version
		if version == "" {
			version = "custom"
		}
		return setup.VersionURL, version, nil
	}

	manifestURL := config.Config.Instances.VersionManifest
	data, err := utils.GetBytes(manifestURL, nil)
	if err != nil {
		return "", "", lserr.Internal(err, "fetch version manifest failed")
	}

	var index struct {
		Latest struct {
			Release string `json:"release"`
		} `json:"latest"`
		Versions []struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"versions"`
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return "", "", lserr.Internal(err, "parse version manifest failed")
	}

	want := setup.Version
	if want == "" || strings.EqualFold(want, "latest") {
		want = index.Latest.Release
	}
	for _, entry := range index.Versions {
		if entry.ID != want {
			continue
		}
		meta, err := utils.GetBytes(entry.URL, nil)
		if err != nil {
			return "", "", lserr.Internal(err, "fetch metadata of version '%s' failed", want)
		}
		var detail struct {
			Downloads struct {
				Server struct {
					URL string `json:"url"`
				} `json:"server"`
			} `json:"downloads"`
		}
		if err := json.Unmarshal(meta, &detail); err != nil {
			return "", "", lserr.Internal(err, "parse metadata of version '%s' failed", want)
		}
		if detail.Downloads.Server.URL == "" {
			return "", "", lserr.NotFound("version '%s' has no server download", want)
		}
		return detail.Downloads.Server.URL, want, nil
	}
	return "", "", lserr.NotFound("version '%s' does not exist", want)
}

// unpackServer 压缩包解开后删除，裸jar改名为server.jar
func (im *InstanceManager) unpackServer(downloadURL, archivePath, root string) error {
	if strings.HasSuffix(strings.Split(downloadURL, "?")[0], ".zip") {
		if err := utils.Unzip(archivePath, root); err != nil {
			return lserr.Internal(err, "unpack server archive failed")
		}
		if err := os.Remove(archivePath); err != nil {
			return lserr.Internal(err, "delete server archive failed")
		}
		return nil
	}
	if err := os.Rename(archivePath, filepath.Join(root, "server.jar")); err != nil {
		return lserr.Internal(err, "place server.jar failed")
	}
	return nil
}

// GetInstance 按uuid查找实例
func (im *InstanceManager) GetInstance(instanceUUID string) (*InstanceSupervisor, error) {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	sup, ok := im.instances[instanceUUID]
	if !ok {
		return nil, lserr.NotFound("instance '%s' does not exist", instanceUUID)
	}
	return sup, nil
}

func (im *InstanceManager) findByName(name string) *InstanceSupervisor {
	im.mutex.RLock()
	sups := make([]*InstanceSupervisor, 0, len(im.instances))
	for _, sup := range im.instances {
		sups = append(sups, sup)
	}
	im.mutex.RUnlock()

	// 名字比较要调supervisor的方法，必须先放掉集合锁
	for _, sup := range sups {
		if sup.Name() == name {
			return sup
		}
	}
	return nil
}

// ListInstances 返回全部实例的对外视图
func (im *InstanceManager) ListInstances() []models.InstanceDetail {
	im.mutex.RLock()
	sups := make([]*InstanceSupervisor, 0, len(im.instances))
	for _, sup := range im.instances {
		sups = append(sups, sup)
	}
	im.mutex.RUnlock()

	details := make([]models.InstanceDetail, 0, len(sups))
	for _, sup := range sups {
		details = append(details, sup.Detail())
	}
	return details
}

/**
 * DeleteInstance 删除一个实例及其磁盘目录
 * @description
 * - 运行中的实例先强杀
 * - 备份调度协程随Close退出
 */
func (im *InstanceManager) DeleteInstance(instanceUUID string) error {
	sup, err := im.GetInstance(instanceUUID)
	if err != nil {
		return err
	}

	if state := sup.State(); state != models.StateStopped {
		if err := sup.Kill(); err != nil {
			logger.Warnf("Kill instance '%s' before delete failed: %v", sup.Name(), err)
		}
	}
	sup.Close()

	im.mutex.Lock()
	delete(im.instances, instanceUUID)
	im.mutex.Unlock()

	if err := os.RemoveAll(sup.Root()); err != nil {
		return lserr.Internal(err, "delete dir of instance '%s' failed", sup.Name())
	}
	logger.Infof("Instance '%s' (%s) deleted", sup.Name(), instanceUUID)
	return nil
}

/**
 * StopAll 守护进程退出前停掉全部运行中的实例
 */
func (im *InstanceManager) StopAll() {
	im.mutex.RLock()
	sups := make([]*InstanceSupervisor, 0, len(im.instances))
	for _, sup := range im.instances {
		sups = append(sups, sup)
	}
	im.mutex.RUnlock()

	for _, sup := range sups {
		if state := sup.State(); state == models.StateRunning || state == models.StateStarting {
			if err := sup.Stop(); err != nil {
				logger.Errorf("Stop instance '%s' failed: %v", sup.Name(), err)
			}
		}
		sup.Close()
	}
}
