package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/LodestoneMC-org/backend/internal/lserr"
	"github.com/LodestoneMC-org/backend/internal/manifest"
	"github.com/LodestoneMC-org/backend/internal/models"
	"github.com/LodestoneMC-org/backend/internal/utils"
)

// writeTestInstance 在临时目录里铺出一个最小的实例目录
func writeTestInstance(t *testing.T, cfg models.RestoreConfig, properties []utils.PropertyPair) string {
	t.Helper()
	root := t.TempDir()

	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), data, 0644); err != nil {
		t.Fatal(err)
	}
	if properties != nil {
		if err := utils.WriteProperties(filepath.Join(root, PropertiesFileName), properties); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func restoreTestInstance(t *testing.T, root string) *InstanceSupervisor {
	t.Helper()
	sup, err := RestoreInstance("test-uuid", root, newTestEventService(), NewMacroExecutor(nil))
	if err != nil {
		t.Fatalf("RestoreInstance failed: %v", err)
	}
	t.Cleanup(sup.Close)
	return sup
}

func TestRestoreInstanceFromDisk(t *testing.T) {
	root := writeTestInstance(t, models.RestoreConfig{
		Name:    "survival",
		Version: "1.20.4",
		Port:    25599,
	}, []utils.PropertyPair{
		{Key: "server-port", Value: "25599"},
		{Key: "gamemode", Value: "creative"},
		{Key: "pvp", Value: "true"},
	})

	sup := restoreTestInstance(t, root)

	if sup.State() != models.StateStopped {
		t.Errorf("restored instance should be Stopped, got %s", sup.State())
	}
	if sup.Name() != "survival" || sup.Port() != 25599 {
		t.Errorf("config mismatch: name %s port %d", sup.Name(), sup.Port())
	}

	setting, err := sup.GetSetting(PropertiesSection, "gamemode")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if setting.Value() == nil || setting.Value().String() != "creative" {
		t.Errorf("gamemode should be seeded from properties, got %v", setting.Value())
	}

	// 目录结构被重建
	for _, dir := range []string{"macros", "worlds"} {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Errorf("directory %s should exist after restore: %v", dir, err)
		}
	}
}

func TestRestoreRegeneratesMissingProperties(t *testing.T) {
	root := writeTestInstance(t, models.RestoreConfig{
		Name: "fresh",
		Port: 25600,
	}, nil)

	sup := restoreTestInstance(t, root)

	pairs, err := utils.ReadProperties(filepath.Join(root, PropertiesFileName))
	if err != nil {
		t.Fatalf("properties file should be regenerated: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Key != "server-port" || pairs[0].Value != "25600" {
		t.Errorf("regenerated properties should hold the port, got %+v", pairs)
	}

	if _, err := sup.GetSetting(PropertiesSection, "server-port"); err != nil {
		t.Errorf("server-port should be in the manifest: %v", err)
	}
}

func TestRestoreCorruptConfigFails(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := RestoreInstance("test-uuid", root, newTestEventService(), NewMacroExecutor(nil))
	if err == nil {
		t.Fatal("expected error for corrupt config")
	}
	if !lserr.IsKind(err, lserr.KindInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestUpdateSettingPersistsToProperties(t *testing.T) {
	root := writeTestInstance(t, models.RestoreConfig{
		Name: "survival",
		Port: 25599,
	}, []utils.PropertyPair{
		{Key: "server-port", Value: "25599"},
		{Key: "max-players", Value: "20"},
	})

	sup := restoreTestInstance(t, root)

	if err := sup.UpdateSetting(PropertiesSection, "max-players", manifest.NewUnsignedValue(64)); err != nil {
		t.Fatalf("UpdateSetting failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, PropertiesFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "max-players=64") {
		t.Errorf("properties file should be rewritten, got:\n%s", data)
	}

	// 类型不符的候选值整体被拒绝，磁盘不变
	if err := sup.UpdateSetting(PropertiesSection, "max-players", manifest.NewStringValue("lots")); err == nil {
		t.Fatal("expected type mismatch error")
	}
	data, _ = os.ReadFile(filepath.Join(root, PropertiesFileName))
	if !strings.Contains(string(data), "max-players=64") {
		t.Errorf("rejected update must not touch the file, got:\n%s", data)
	}
}

func TestSetBackupPeriodPersists(t *testing.T) {
	root := writeTestInstance(t, models.RestoreConfig{
		Name: "survival",
		Port: 25599,
	}, nil)

	sup := restoreTestInstance(t, root)

	period := uint32(3600)
	sup.SetBackupPeriod(&period)

	data, err := os.ReadFile(filepath.Join(root, ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	var cfg models.RestoreConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.BackupPeriod == nil || *cfg.BackupPeriod != 3600 {
		t.Errorf("backup period should be persisted, got %v", cfg.BackupPeriod)
	}
}

func TestLifecycleGates(t *testing.T) {
	root := writeTestInstance(t, models.RestoreConfig{
		Name: "survival",
		Port: 25599,
	}, nil)

	sup := restoreTestInstance(t, root)

	if err := sup.Stop(); !lserr.IsKind(err, lserr.KindBadRequest) {
		t.Errorf("Stop on a stopped instance should be rejected, got %v", err)
	}
	if err := sup.Kill(); !lserr.IsKind(err, lserr.KindBadRequest) {
		t.Errorf("Kill with no process should be rejected, got %v", err)
	}
	if err := sup.SendCommand("say hi"); !lserr.IsKind(err, lserr.KindBadRequest) {
		t.Errorf("SendCommand on a stopped instance should be rejected, got %v", err)
	}
	if err := sup.SetName(""); !lserr.IsKind(err, lserr.KindBadRequest) {
		t.Errorf("empty name should be rejected, got %v", err)
	}
}

func TestSetPortUpdatesManifest(t *testing.T) {
	root := writeTestInstance(t, models.RestoreConfig{
		Name: "survival",
		Port: 25599,
	}, []utils.PropertyPair{
		{Key: "server-port", Value: "25599"},
	})

	sup := restoreTestInstance(t, root)

	if err := sup.SetPort(25601); err != nil {
		t.Fatalf("SetPort failed: %v", err)
	}
	if sup.Port() != 25601 {
		t.Errorf("port should be updated, got %d", sup.Port())
	}
	setting, err := sup.GetSetting(PropertiesSection, "server-port")
	if err != nil {
		t.Fatal(err)
	}
	if setting.Value().String() != "25601" {
		t.Errorf("manifest server-port should follow, got %s", setting.Value().String())
	}
}

func restoreTestInstanceWithEvents(t *testing.T, root string) (*InstanceSupervisor, *EventService) {
	t.Helper()
	events := newTestEventService()
	sup, err := RestoreInstance("test-uuid", root, events, NewMacroExecutor(nil))
	if err != nil {
		t.Fatalf("RestoreInstance failed: %v", err)
	}
	t.Cleanup(sup.Close)
	return sup, events
}

func TestUnexpectedExitEmitsErrorTransition(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/sh")
	}
	root := writeTestInstance(t, models.RestoreConfig{
		Name:         "crashy",
		Port:         25700,
		StartCommand: "/bin/sh -c exit",
	}, nil)

	sup, events := restoreTestInstanceWithEvents(t, root)
	sup.monitorInterval = 20 * time.Millisecond
	id, ch := events.Subscribe()
	defer events.Unsubscribe(id)

	if err := sup.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// 进程立即退出，监控协程应先广播error级的Error跳变，再落到Stopped
	deadline := time.After(5 * time.Second)
	var sawError, sawStopped bool
	for !(sawError && sawStopped) {
		select {
		case event := <-ch:
			if event.Type != models.EventStateTransition {
				continue
			}
			if event.State == models.StateError && event.Level == models.LevelError {
				sawError = true
			}
			if event.State == models.StateStopped && sawError {
				sawStopped = true
			}
		case <-deadline:
			t.Fatalf("crash transitions missing: error=%v stopped=%v", sawError, sawStopped)
		}
	}
	if sup.State() != models.StateStopped {
		t.Errorf("crashed instance should settle in Stopped, got %s", sup.State())
	}
}

func TestRestartOnCrashStartsAgain(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/sh")
	}
	root := writeTestInstance(t, models.RestoreConfig{
		Name:           "phoenix",
		Port:           25701,
		RestartOnCrash: true,
		StartCommand:   "/bin/sh -c exit",
	}, nil)

	sup, events := restoreTestInstanceWithEvents(t, root)
	sup.monitorInterval = 20 * time.Millisecond
	id, ch := events.Subscribe()
	defer events.Unsubscribe(id)

	if err := sup.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// 第二次Starting跳变说明崩溃后自动拉起了
	starts := 0
	deadline := time.After(5 * time.Second)
	for starts < 2 {
		select {
		case event := <-ch:
			if event.Type == models.EventStateTransition && event.State == models.StateStarting {
				starts++
			}
		case <-deadline:
			t.Fatalf("expected a second Starting transition after crash, saw %d", starts)
		}
	}

	// 关掉自动重启，等循环停在Stopped上
	sup.SetRestartOnCrash(false)
	waitUntil := time.Now().Add(5 * time.Second)
	for time.Now().Before(waitUntil) {
		if sup.State() == models.StateStopped {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("instance should settle in Stopped once auto restart is off, got %s", sup.State())
}

func TestLaunchCommandBuildsJavaInvocation(t *testing.T) {
	root := writeTestInstance(t, models.RestoreConfig{
		Name: "survival",
		Port: 25702,
	}, nil)
	sup := restoreTestInstance(t, root)

	command, args := sup.launchCommand(models.RestoreConfig{})
	if command != "java" || strings.Join(args, " ") != "-jar server.jar nogui" {
		t.Errorf("default launch should be plain java, got %s %v", command, args)
	}

	command, args = sup.launchCommand(models.RestoreConfig{MinRAM: 1024, MaxRAM: 2048})
	if command != "java" || strings.Join(args, " ") != "-Xms1024M -Xmx2048M -jar server.jar nogui" {
		t.Errorf("ram bounds should map to -Xms/-Xmx, got %s %v", command, args)
	}

	command, args = sup.launchCommand(models.RestoreConfig{StartCommand: "/usr/bin/bedrock_server --port 19132"})
	if command != "/usr/bin/bedrock_server" || strings.Join(args, " ") != "--port 19132" {
		t.Errorf("cmd_args should override the java invocation, got %s %v", command, args)
	}
}

func TestSetRAMBoundsPersistsAndValidates(t *testing.T) {
	root := writeTestInstance(t, models.RestoreConfig{
		Name: "survival",
		Port: 25703,
	}, nil)
	sup := restoreTestInstance(t, root)

	if err := sup.SetRAMBounds(2048, 1024); !lserr.IsKind(err, lserr.KindBadRequest) {
		t.Errorf("min above max should be rejected, got %v", err)
	}
	if sup.MinRAM() != 0 || sup.MaxRAM() != 0 {
		t.Errorf("rejected bounds must not stick, got %d/%d", sup.MinRAM(), sup.MaxRAM())
	}

	if err := sup.SetRAMBounds(1024, 4096); err != nil {
		t.Fatalf("SetRAMBounds failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	var cfg models.RestoreConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.MinRAM != 1024 || cfg.MaxRAM != 4096 {
		t.Errorf("ram bounds should be persisted, got %d/%d", cfg.MinRAM, cfg.MaxRAM)
	}
}

func TestSetPortFailureLeavesConfigUntouched(t *testing.T) {
	root := writeTestInstance(t, models.RestoreConfig{
		Name: "survival",
		Port: 25704,
	}, []utils.PropertyPair{
		{Key: "gamemode", Value: "survival"},
	})
	sup := restoreTestInstance(t, root)

	// properties里没有server-port，manifest更新失败，配置JSON必须原封不动
	err := sup.SetPort(26000)
	if !lserr.IsKind(err, lserr.KindNotFound) {
		t.Fatalf("SetPort without a server-port setting should be NotFound, got %v", err)
	}
	if sup.Port() != 25704 {
		t.Errorf("in-memory port must stay, got %d", sup.Port())
	}
	data, readErr := os.ReadFile(filepath.Join(root, ConfigFileName))
	if readErr != nil {
		t.Fatal(readErr)
	}
	var cfg models.RestoreConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 25704 {
		t.Errorf("persisted port must stay, got %d", cfg.Port)
	}
}

func TestConcurrentSettingReadsAndWrites(t *testing.T) {
	root := writeTestInstance(t, models.RestoreConfig{
		Name: "survival",
		Port: 25705,
	}, []utils.PropertyPair{
		{Key: "server-port", Value: "25705"},
		{Key: "max-players", Value: "10"},
	})
	sup := restoreTestInstance(t, root)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if err := sup.UpdateSetting(PropertiesSection, "max-players", manifest.NewUnsignedValue(uint32(i))); err != nil {
				t.Errorf("UpdateSetting failed: %v", err)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		if _, err := sup.ManifestJSON(); err != nil {
			t.Fatalf("ManifestJSON failed: %v", err)
		}
		if _, err := sup.SectionSettingsJSON(PropertiesSection); err != nil {
			t.Fatalf("SectionSettingsJSON failed: %v", err)
		}
		setting, err := sup.GetSetting(PropertiesSection, "max-players")
		if err != nil {
			t.Fatalf("GetSetting failed: %v", err)
		}
		if _, err := json.Marshal(setting); err != nil {
			t.Fatalf("marshal of the setting snapshot failed: %v", err)
		}
	}
}
