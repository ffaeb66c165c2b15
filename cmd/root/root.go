package root

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "lodestone",
	Short: "游戏服务器实例管理器",
	Long:  `lodestone管理多个游戏服务器实例的创建、启动、监控、备份和配置`,
}
