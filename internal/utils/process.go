package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Path2ProcessName 从命令行或路径中提取进程名
func Path2ProcessName(path string) string {
	name := filepath.Base(strings.Fields(path)[0])
	return strings.TrimSuffix(name, ".exe")
}

func FindProcess(processName string, pid int) (*os.Process, error) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil, err
	}

	// 获取进程名
	name, err := GetProcessName(pid)
	if err != nil {
		return nil, fmt.Errorf("failed to get process name for PID %d: %v", pid, err)
	}

	// 比较进程名（不区分大小写）
	if strings.EqualFold(name, processName) {
		return proc, nil
	}
	return nil, fmt.Errorf("process name mismatch: expected '%s', got '%s'", processName, name)
}

// KillProcess 根据进程名和PID杀死进程
func KillProcess(processName string, pid int) error {
	if _, err := FindProcess(processName, pid); err != nil {
		return err
	}
	return KillProcessByPID(pid)
}
