package proc

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/LodestoneMC-org/backend/internal/logger"
	"github.com/LodestoneMC-org/backend/internal/utils"
)

/**
 * ChildProcess 被托管的游戏服务器子进程
 * @property {string} title - 进程标题，用于显示
 * @property {string} command - 执行命令
 * @property {[]string} args - 命令参数
 * @property {string} workDir - 工作目录
 * @property {func} onOutput - 子进程每输出一行调用一次
 */
type ChildProcess struct {
	Title    string
	Command  string
	Args     []string
	WorkDir  string
	onOutput func(line string)

	cmd       *exec.Cmd
	stdin     io.WriteCloser
	startTime time.Time
	mutex     sync.Mutex
}

/**
 * NewChildProcess 创建新的子进程包装
 * @param {string} title - 进程标题
 * @param {string} command - 执行命令
 * @param {[]string} args - 命令参数
 * @param {string} workDir - 工作目录
 * @returns {ChildProcess} 返回创建的子进程实例
 */
func NewChildProcess(title, command string, args []string, workDir string) *ChildProcess {
	return &ChildProcess{
		Title:   title,
		Command: command,
		Args:    args,
		WorkDir: workDir,
	}
}

// SetOutputCallback 设置每行输出的回调，必须在Start之前调用
func (cp *ChildProcess) SetOutputCallback(onOutput func(line string)) {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	cp.onOutput = onOutput
}

func (cp *ChildProcess) Pid() int {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	if cp.cmd == nil || cp.cmd.Process == nil {
		return 0
	}
	return cp.cmd.Process.Pid
}

func (cp *ChildProcess) StartTime() time.Time {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	return cp.startTime
}

/**
 * Start 启动子进程
 * @returns {error} 返回错误信息
 * @description
 * - 建立stdin管道用于后续喂入控制台命令
 * - stdout/stderr各起一个协程逐行读出并交给回调
 * - 不调用Wait，存活状态由调用方按PID轮询
 */
func (cp *ChildProcess) Start() error {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()

	if cp.cmd != nil {
		return fmt.Errorf("process '%s' already started", cp.Title)
	}

	fullCommand := cp.Command
	for _, arg := range cp.Args {
		fullCommand += " " + arg
	}
	logger.Infof("Executing command: %s", fullCommand)

	cmd := exec.Command(cp.Command, cp.Args...)
	if cp.WorkDir != "" {
		cmd.Dir = cp.WorkDir
	}
	// 子进程放入独立进程组，避免把信号串到守护进程
	utils.SetNewPG(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin of '%s' failed: %v", cp.Title, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open stdout of '%s' failed: %v", cp.Title, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("open stderr of '%s' failed: %v", cp.Title, err)
	}

	if err := cmd.Start(); err != nil {
		logger.Errorf("Failed to start process '%s', error: %v", cp.Title, err)
		return err
	}

	cp.cmd = cmd
	cp.stdin = stdin
	cp.startTime = time.Now()
	logger.Infof("Process '%s' started (PID: %d)", cp.Title, cmd.Process.Pid)

	go cp.pumpOutput(stdout)
	go cp.pumpOutput(stderr)
	// 回收僵尸进程，退出检测仍由调用方轮询完成
	go func() { cmd.Wait() }()
	return nil
}

func (cp *ChildProcess) pumpOutput(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		cp.mutex.Lock()
		onOutput := cp.onOutput
		cp.mutex.Unlock()
		if onOutput != nil {
			onOutput(scanner.Text())
		}
	}
}

/**
 * WriteStdin 向子进程stdin写入一行
 * @param {string} line - 不带换行的命令行
 * @returns {error} 返回错误信息
 */
func (cp *ChildProcess) WriteStdin(line string) error {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()

	if cp.stdin == nil {
		return fmt.Errorf("process '%s' has no open stdin", cp.Title)
	}
	if _, err := io.WriteString(cp.stdin, line+"\n"); err != nil {
		return fmt.Errorf("write stdin of '%s' failed: %v", cp.Title, err)
	}
	return nil
}

/**
 * Alive 检查子进程是否仍在运行
 * @returns {bool} true表示进程存活
 */
func (cp *ChildProcess) Alive() bool {
	pid := cp.Pid()
	if pid == 0 {
		return false
	}
	running, err := utils.IsProcessRunning(pid)
	return err == nil && running
}

/**
 * Kill 强制杀死子进程
 * @returns {error} 返回错误信息
 * @description
 * - 先用持有的进程句柄杀，句柄已失效时按进程名+PID兜底再杀一次
 */
func (cp *ChildProcess) Kill() error {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()

	if cp.cmd == nil || cp.cmd.Process == nil {
		return nil
	}
	pid := cp.cmd.Process.Pid
	if err := cp.cmd.Process.Kill(); err != nil {
		logger.Warnf("Failed to kill process '%s' (PID: %d) via handle, retrying by pid: %v", cp.Title, pid, err)
		if killErr := utils.KillProcess(utils.Path2ProcessName(cp.Command), pid); killErr != nil {
			logger.Errorf("Failed to kill process '%s' (PID: %d): %v", cp.Title, pid, killErr)
			return killErr
		}
	}
	logger.Infof("Process '%s' (PID: %d) killed", cp.Title, pid)
	return nil
}

// Release 在确认进程退出后清理句柄，允许再次Start
func (cp *ChildProcess) Release() {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	if cp.stdin != nil {
		cp.stdin.Close()
	}
	cp.cmd = nil
	cp.stdin = nil
}
