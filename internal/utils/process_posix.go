//go:build linux || darwin

package utils

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// SetNewPG 设置进程属性，使子进程在父进程退出后继续运行
// POSIX系统实现
func SetNewPG(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// KillProcessByPID 根据PID杀死进程
func KillProcessByPID(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process with PID %d: %v", pid, err)
	}

	// 首先尝试优雅终止 (SIGTERM)
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to process with PID %d: %v", pid, err)
	}

	// 等待进程退出
	for i := 0; i < 10; i++ {
		if err := process.Signal(syscall.Signal(0)); err != nil {
			// 进程已退出
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	// 如果SIGTERM失败，使用强制终止 (SIGKILL)
	if err := process.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill process with PID %d: %v", pid, err)
	}
	return nil
}

// IsProcessRunning 检查进程是否正在运行
func IsProcessRunning(pid int) (bool, error) {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, fmt.Errorf("failed to find process with PID %d: %v", pid, err)
	}

	// 发送signal 0来检查进程是否存在
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return false, nil
	}
	return true, nil
}

// GetProcessName 根据PID获取进程名
func GetProcessName(pid int) (string, error) {
	// ps在Linux和Darwin上都可用，comm=只输出命令名
	out, err := exec.Command("ps", "-p", fmt.Sprintf("%d", pid), "-o", "comm=").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get process name for PID %d: %v", pid, err)
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return "", fmt.Errorf("process with PID %d not found", pid)
	}
	return Path2ProcessName(name), nil
}
