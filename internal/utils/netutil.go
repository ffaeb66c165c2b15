package utils

import (
	"fmt"
	"net"
	"time"
)

func CheckPortAvailable(port int) bool {
	timeout := time.Second
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("localhost", fmt.Sprintf("%d", port)), timeout)
	if err != nil {
		// 连接失败，说明端口可用
		return true
	}
	if conn != nil {
		conn.Close()
		// 连接成功，说明端口已被占用
		return false
	}
	return true
}

// CheckPortListenable 检查端口是否可以监听
func CheckPortListenable(port int) bool {
	return checkPortListenable(port)
}

/**
 * Allocate a free port inside [min, max]
 * @description
 * - Prefers the requested port when it is inside the range and still listenable
 * - Scans the range in order otherwise
 */
func AllocPort(preferred, min, max uint32) (uint32, error) {
	if preferred >= min && preferred <= max && CheckPortListenable(int(preferred)) {
		return preferred, nil
	}
	for port := min; port <= max; port++ {
		if port == preferred {
			continue
		}
		if CheckPortListenable(int(port)) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no listenable port in range [%d, %d]", min, max)
}
