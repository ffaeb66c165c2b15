package instance

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Backup operations (now/period/pause/resume)",
}

var backupNowCmd = &cobra.Command{
	Use:   "now [instance]",
	Short: "立即执行一次备份",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := postOp(args[0], "backup"); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("Backup of %s has been scheduled\n", args[0])
	},
}

var backupPeriodCmd = &cobra.Command{
	Use:   "period [instance] [seconds|off]",
	Short: "设置自动备份周期，off表示关闭",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := setBackupPeriod(args[0], args[1]); err != nil {
			fmt.Println(err)
		}
	},
}

var backupPauseCmd = &cobra.Command{
	Use:   "pause [instance]",
	Short: "暂停自动备份",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := postOp(args[0], "backup/pause"); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("Backups of %s have been paused\n", args[0])
	},
}

var backupResumeCmd = &cobra.Command{
	Use:   "resume [instance]",
	Short: "恢复自动备份",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := postOp(args[0], "backup/resume"); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("Backups of %s have been resumed\n", args[0])
	},
}

func setBackupPeriod(arg, value string) error {
	client := daemonClient()
	defer client.Close()

	instanceUUID, err := resolveInstance(client, arg)
	if err != nil {
		return err
	}

	body := map[string]interface{}{"period": nil}
	if value != "off" {
		seconds, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid period '%s': %v", value, err)
		}
		body["period"] = uint32(seconds)
	}

	resp, err := client.Put(fmt.Sprintf("%s/instances/%s/backup/period", apiBase, instanceUUID), body)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("set period failed: %s", resp.Error)
	}
	return nil
}

func init() {
	instanceCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupNowCmd)
	backupCmd.AddCommand(backupPeriodCmd)
	backupCmd.AddCommand(backupPauseCmd)
	backupCmd.AddCommand(backupResumeCmd)

	backupCmd.Example = `  lodestone instance backup now survival
  lodestone instance backup period survival 3600`
}
