package instance

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LodestoneMC-org/backend/internal/models"
)

var (
	createVersion    string
	createVersionURL string
	createDesc       string
	createPort       uint32
	createMinRAM     uint32
	createMaxRAM     uint32
	createAutoStart  bool
	createRestart    bool
	createPeriod     uint32
)

var createCmd = &cobra.Command{
	Use:   "create [instance name]",
	Short: "创建新实例",
	Long:  "下载服务端程序并创建一个新的游戏服务器实例",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := createInstance(cmd, args[0]); err != nil {
			fmt.Println(err)
		}
	},
}

func createInstance(cmd *cobra.Command, name string) error {
	client := daemonClient()
	defer client.Close()

	setup := models.SetupConfig{
		Name:         name,
		Version:      createVersion,
		VersionURL:   createVersionURL,
		Description:  createDesc,
		Port:         createPort,
		MinRAM:       createMinRAM,
		MaxRAM:       createMaxRAM,
		AutoStart:    createAutoStart,
		RestartCrash: createRestart,
	}
	if cmd.Flags().Changed("backup-period") {
		period := createPeriod
		setup.BackupPeriod = &period
	}

	resp, err := client.Post(apiBase+"/instances", setup)
	if err != nil {
		return fmt.Errorf("connect daemon failed: %v", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("create instance failed: %s", resp.Error)
	}
	var detail models.InstanceDetail
	if err := json.Unmarshal(resp.Body, &detail); err != nil {
		return fmt.Errorf("parse response failed: %v", err)
	}
	fmt.Printf("Instance %s has been created (uuid %s, port %d)\n", detail.Name, detail.UUID, detail.Port)
	return nil
}

func init() {
	instanceCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createVersion, "version", "", "game server version, empty means latest release")
	createCmd.Flags().StringVar(&createVersionURL, "url", "", "direct download URL of the server program")
	createCmd.Flags().StringVar(&createDesc, "description", "", "instance description")
	createCmd.Flags().Uint32Var(&createPort, "port", 0, "listening port, 0 picks one automatically")
	createCmd.Flags().Uint32Var(&createMinRAM, "min-ram", 0, "JVM -Xms bound in MiB, 0 keeps the JVM default")
	createCmd.Flags().Uint32Var(&createMaxRAM, "max-ram", 0, "JVM -Xmx bound in MiB, 0 keeps the JVM default")
	createCmd.Flags().BoolVar(&createAutoStart, "auto-start", false, "start instance when the daemon boots")
	createCmd.Flags().BoolVar(&createRestart, "restart-on-crash", false, "restart instance automatically after a crash")
	createCmd.Flags().Uint32Var(&createPeriod, "backup-period", 0, "seconds between automatic backups")
}
