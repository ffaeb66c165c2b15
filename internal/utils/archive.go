package utils

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

/**
 * Unpack a zip archive into destDir
 * @description
 * - Entry paths are cleaned and must stay inside destDir
 * - File modes from the archive are preserved
 */
func Unzip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("Unzip('%s') failed: %v", archivePath, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("Unzip('%s'): MkdirAll('%s') error:%v", archivePath, destDir, err)
	}

	for _, file := range reader.File {
		target := filepath.Join(destDir, filepath.Clean(file.Name))
		// 防止zip条目逃逸到目标目录之外
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("Unzip('%s'): illegal entry path '%s'", archivePath, file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, file.Mode()); err != nil {
				return fmt.Errorf("Unzip('%s'): MkdirAll('%s') error:%v", archivePath, target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("Unzip('%s'): MkdirAll('%s') error:%v", archivePath, filepath.Dir(target), err)
		}
		if err := extractZipFile(file, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(file *zip.File, target string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open zip entry '%s' failed: %v", file.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return fmt.Errorf("create '%s' failed: %v", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extract '%s' failed: %v", file.Name, err)
	}
	return nil
}
