package services

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const consoleLogName = "console.log"

type ConsoleLogService struct {
	mutex sync.Mutex
	files map[string]*os.File
}

var (
	consoleLogService *ConsoleLogService
	consoleLogOnce    sync.Once
)

/**
 * Get console log service singleton
 * @returns {ConsoleLogService} Returns the console log service
 * @description
 * - Persists instance console output under <instance>/logs/console.log
 * - Keeps one open file handle per instance
 * @example
 * logs := services.GetConsoleLogService()
 * logs.Append(instanceRoot, "[12:00:00] [Server thread/INFO]: Done (3.2s)!")
 */
func GetConsoleLogService() *ConsoleLogService {
	consoleLogOnce.Do(func() {
		consoleLogService = &ConsoleLogService{
			files: make(map[string]*os.File),
		}
	})
	return consoleLogService
}

/**
 * Append one console line to the instance log file
 * @param {string} instanceRoot - Instance directory
 * @param {string} line - Console output line without trailing newline
 * @returns {error} Returns error if the log file cannot be written
 * @description
 * - Opens <instanceRoot>/logs/console.log lazily in append mode
 * - Prefixes every line with a timestamp
 */
func (ls *ConsoleLogService) Append(instanceRoot, line string) error {
	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	file, ok := ls.files[instanceRoot]
	if !ok {
		logDir := filepath.Join(instanceRoot, "logs")
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("create log directory failed: %v", err)
		}
		f, err := os.OpenFile(filepath.Join(logDir, consoleLogName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open console log failed: %v", err)
		}
		ls.files[instanceRoot] = f
		file = f
	}

	_, err := fmt.Fprintf(file, "%s %s\n", time.Now().Format("2006-01-02 15:04:05"), line)
	return err
}

/**
 * Read the last lines of the instance console log
 * @param {string} instanceRoot - Instance directory
 * @param {int} count - Maximum number of lines to return
 * @returns {[]string} Last lines, oldest first
 * @returns {error} Returns error if the log file cannot be read
 */
func (ls *ConsoleLogService) Tail(instanceRoot string, count int) ([]string, error) {
	path := filepath.Join(instanceRoot, "logs", consoleLogName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open console log failed: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if count > 0 && len(lines) > count {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read console log failed: %v", err)
	}
	return lines, nil
}

/**
 * Close the open log handle of one instance
 * @param {string} instanceRoot - Instance directory
 */
func (ls *ConsoleLogService) Close(instanceRoot string) {
	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	if file, ok := ls.files[instanceRoot]; ok {
		file.Close()
		delete(ls.files, instanceRoot)
	}
}

/**
 * Delete rotated log files older than the retention window
 * @param {string} instanceRoot - Instance directory
 * @param {time.Duration} maxAge - Retention window
 * @returns {int} Number of removed files
 * @returns {error} Returns error if the directory cannot be read
 * @description
 * - Only touches files with a .log suffix
 * - The live console.log is never removed
 */
func (ls *ConsoleLogService) Prune(instanceRoot string, maxAge time.Duration) (int, error) {
	logDir := filepath.Join(instanceRoot, "logs")
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read log directory failed: %v", err)
	}

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == consoleLogName {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Name()), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(logDir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
