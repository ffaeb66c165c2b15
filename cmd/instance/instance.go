package instance

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LodestoneMC-org/backend/cmd/root"
	"github.com/LodestoneMC-org/backend/internal/models"
	"github.com/LodestoneMC-org/backend/internal/rpc"
)

const apiBase = "/lodestone/api/v1"

var instanceCmd = &cobra.Command{
	Use:   "instance",
	Short: "Instance operations (list/create/start/stop/backup etc.)",
	Long:  `Instance operations (list/create/start/stop/backup etc.)`,
}

const instanceExample = `  # start instance
  lodestone instance start survival`

/**
 * Create RPC client talking to the daemon
 * @returns {rpc.HTTPClient} Client, caller must Close()
 */
func daemonClient() rpc.HTTPClient {
	config := rpc.DefaultHTTPConfig()
	config.Timeout = 30 * time.Second
	return rpc.NewHTTPClient(config)
}

/**
 * Resolve instance argument to a uuid
 * @param {rpc.HTTPClient} client - Daemon client
 * @param {string} arg - Instance uuid or display name
 * @returns {string} Instance uuid
 * @returns {error} Error when no instance matches
 * @description
 * - Lists all instances from the daemon
 * - Matches by uuid first, then by name
 */
func resolveInstance(client rpc.HTTPClient, arg string) (string, error) {
	resp, err := client.Get(apiBase+"/instances", nil)
	if err != nil {
		return "", fmt.Errorf("connect daemon failed: %v", err)
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("list instances failed: %s", resp.Error)
	}
	var details []models.InstanceDetail
	if err := json.Unmarshal(resp.Body, &details); err != nil {
		return "", fmt.Errorf("parse instance list failed: %v", err)
	}
	for _, detail := range details {
		if detail.UUID == arg {
			return detail.UUID, nil
		}
	}
	for _, detail := range details {
		if detail.Name == arg {
			return detail.UUID, nil
		}
	}
	return "", fmt.Errorf("no instance named '%s'", arg)
}

// postOp 对实例执行一个无请求体的操作
func postOp(arg, op string) error {
	client := daemonClient()
	defer client.Close()

	instanceUUID, err := resolveInstance(client, arg)
	if err != nil {
		return err
	}
	resp, err := client.Post(fmt.Sprintf("%s/instances/%s/%s", apiBase, instanceUUID, op), nil)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("%s failed: %s", op, resp.Error)
	}
	return nil
}

func init() {
	root.RootCmd.AddCommand(instanceCmd)

	instanceCmd.Example = instanceExample
}
