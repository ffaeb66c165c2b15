package utils

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

/**
 *	从云端获取一个文件的内容
 */
func GetBytes(urlStr string, params map[string]string) ([]byte, error) {
	client := &http.Client{}
	req, err := http.NewRequest("GET", urlStr, nil)
	if err != nil {
		return []byte{}, fmt.Errorf("GetBytes: %v", err)
	}
	vals := make(url.Values)
	for k, v := range params {
		vals.Set(k, v)
	}
	req.URL.RawQuery = vals.Encode()

	rsp, err := client.Do(req)
	if err != nil {
		return []byte{}, fmt.Errorf("GetBytes: %v", err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != 200 {
		rspBody, _ := io.ReadAll(rsp.Body)
		return rspBody, fmt.Errorf("GetBytes('%s?%s') code:%d, error:%s",
			urlStr, req.URL.RawQuery, rsp.StatusCode, string(rspBody))
	}
	return io.ReadAll(rsp.Body)
}

// ProgressFunc 接收已下载字节数和总字节数，总数未知时total为0
type ProgressFunc func(done, total int64)

type progressWriter struct {
	done     int64
	total    int64
	callback ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.done += int64(len(p))
	if w.callback != nil {
		w.callback(w.done, w.total)
	}
	return len(p), nil
}

/**
 *	从服务器获取一个文件，边下载边上报进度
 */
func DownloadFile(urlStr, savePath string, progress ProgressFunc) error {
	rsp, err := http.Get(urlStr)
	if err != nil {
		return fmt.Errorf("DownloadFile('%s') failed: %v", urlStr, err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != 200 {
		rspBody, _ := io.ReadAll(rsp.Body)
		return fmt.Errorf("DownloadFile('%s') code: %d, error:%s", urlStr, rsp.StatusCode, string(rspBody))
	}

	// 创建一个文件用于保存
	if err = os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return fmt.Errorf("DownloadFile('%s'): MkdirAll('%s') error:%v", urlStr, savePath, err)
	}
	out, err := os.Create(savePath)
	if err != nil {
		return fmt.Errorf("DownloadFile('%s'): create('%s') error: %v", urlStr, savePath, err)
	}
	defer out.Close()

	// ContentLength为-1时表示服务端没有给出总大小
	total := rsp.ContentLength
	if total < 0 {
		total = 0
	}
	pw := &progressWriter{total: total, callback: progress}

	// 然后将响应流和文件流对接起来
	if _, err = io.Copy(io.MultiWriter(out, pw), rsp.Body); err != nil {
		return fmt.Errorf("DownloadFile('%s'): copy error: %v", urlStr, err)
	}
	return nil
}
