package instance

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/LodestoneMC-org/backend/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有实例的信息",
	Long:  "列出所有实例的名称、状态、端口、版本和在线玩家数",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := listInstances(); err != nil {
			fmt.Println(err)
		}
	},
}

func listInstances() error {
	client := daemonClient()
	defer client.Close()

	resp, err := client.Get(apiBase+"/instances", nil)
	if err != nil {
		return fmt.Errorf("connect daemon failed: %v", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("list instances failed: %s", resp.Error)
	}
	var details []models.InstanceDetail
	if err := json.Unmarshal(resp.Body, &details); err != nil {
		return fmt.Errorf("parse instance list failed: %v", err)
	}

	if len(details) == 0 {
		fmt.Println("没有找到实例")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "名称\tUUID\t状态\t端口\t版本\t玩家")
	for _, detail := range details {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n",
			detail.Name, detail.UUID, detail.State, detail.Port, detail.Version, detail.PlayerCount)
	}
	w.Flush()
	return nil
}

func init() {
	instanceCmd.AddCommand(listCmd)
}
