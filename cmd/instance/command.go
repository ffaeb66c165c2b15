package instance

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var commandCmd = &cobra.Command{
	Use:   "cmd [instance] [console command...]",
	Short: "向实例控制台发送一条命令",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := sendCommand(args[0], strings.Join(args[1:], " ")); err != nil {
			fmt.Println(err)
		}
	},
}

func sendCommand(arg, command string) error {
	client := daemonClient()
	defer client.Close()

	instanceUUID, err := resolveInstance(client, arg)
	if err != nil {
		return err
	}
	resp, err := client.Post(fmt.Sprintf("%s/instances/%s/command", apiBase, instanceUUID),
		map[string]interface{}{"command": command})
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("send command failed: %s", resp.Error)
	}
	return nil
}

func init() {
	instanceCmd.AddCommand(commandCmd)

	commandCmd.Example = `  lodestone instance cmd survival say hello`
}
