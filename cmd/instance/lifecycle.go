package instance

import (
	"fmt"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [instance]",
	Short: "Start instance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := postOp(args[0], "start"); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("Instance %s has been started\n", args[0])
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop [instance]",
	Short: "Stop instance gracefully",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := postOp(args[0], "stop"); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("Instance %s is stopping\n", args[0])
	},
}

var killCmd = &cobra.Command{
	Use:   "kill [instance]",
	Short: "Force kill instance process",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := postOp(args[0], "kill"); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("Instance %s has been killed\n", args[0])
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart [instance]",
	Short: "Restart instance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := postOp(args[0], "restart"); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("Instance %s has been restarted\n", args[0])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [instance]",
	Short: "Delete instance and its files",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := deleteInstance(args[0]); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("Instance %s has been deleted\n", args[0])
	},
}

func deleteInstance(arg string) error {
	client := daemonClient()
	defer client.Close()

	instanceUUID, err := resolveInstance(client, arg)
	if err != nil {
		return err
	}
	resp, err := client.Delete(fmt.Sprintf("%s/instances/%s", apiBase, instanceUUID), nil)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("delete failed: %s", resp.Error)
	}
	return nil
}

func init() {
	instanceCmd.AddCommand(startCmd)
	instanceCmd.AddCommand(stopCmd)
	instanceCmd.AddCommand(killCmd)
	instanceCmd.AddCommand(restartCmd)
	instanceCmd.AddCommand(deleteCmd)
}
