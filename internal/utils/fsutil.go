package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

/**
 * Recursively copy a directory tree
 * @description
 * - Regular files and directories only, symlinks are skipped
 * - Used by backups, so partial copies return an error instead of silently succeeding
 */
func CopyDir(srcDir, destDir string) error {
	info, err := os.Stat(srcDir)
	if err != nil {
		return fmt.Errorf("CopyDir('%s') failed: %v", srcDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("CopyDir('%s') failed: not a directory", srcDir)
	}

	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, rel)

		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		if !info.Mode().IsRegular() {
			// 跳过符号链接等特殊文件
			return nil
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open '%s' failed: %v", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("MkdirAll('%s') failed: %v", filepath.Dir(dest), err)
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create '%s' failed: %v", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy '%s' failed: %v", src, err)
	}
	return nil
}

// WriteJSONFile 原子地把JSON内容写入文件（先写临时文件再改名）
func WriteJSONFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("MkdirAll('%s') failed: %v", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write '%s' failed: %v", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename '%s' failed: %v", tmp, err)
	}
	return nil
}
