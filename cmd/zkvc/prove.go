package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkvc/internal/client"
	"github.com/weisyn/zkvc/internal/core/zkp"
)

var proveFlags struct {
	ServerURL string
	KeyDir    string
	Circuit   string
	X         uint64
	Y         uint64
	Snapshot  string
	ClientID  string
}

// proveCmd 证明生成与提交命令
var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "生成证明并提交验证",
	Long: `对指定电路生成groth16证明并提交给验证服务。

--x/--y 是电路的两个输入值 (factorization电路中对应两个因子)。
--snapshot 指定路径时落盘证明请求快照，供 verify 离线重放。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		generator, err := buildGenerator(proveFlags.Circuit, proveFlags.X, proveFlags.Y)
		if err != nil {
			return err
		}

		c, err := client.New(client.Config{
			ServerURL:         proveFlags.ServerURL,
			KeyDir:            proveFlags.KeyDir,
			ProofSnapshotPath: proveFlags.Snapshot,
			ClientID:          proveFlags.ClientID,
		}, logger)
		if err != nil {
			return err
		}

		response, err := c.ProveAndSend(context.Background(), generator)
		if err != nil {
			return err
		}

		switch response.Type {
		case zkp.ResponseValid:
			fmt.Printf("Valid: %v\n", response.Result)
		case zkp.ResponseInvalid:
			fmt.Printf("Invalid: %s\n", response.Reason)
			return fmt.Errorf("证明被拒绝")
		default:
			fmt.Printf("Error: %s\n", response.Error)
			return fmt.Errorf("验证出错")
		}
		return nil
	},
}

func init() {
	proveCmd.Flags().StringVar(&proveFlags.ServerURL, "server", "http://127.0.0.1:65432", "验证服务基地址")
	proveCmd.Flags().StringVar(&proveFlags.KeyDir, "key-dir", "./keys", "证明密钥目录")
	proveCmd.Flags().StringVar(&proveFlags.Circuit, "circuit", "multiplier", "电路名称: multiplier|adder|factorization")
	proveCmd.Flags().Uint64Var(&proveFlags.X, "x", 3, "第一个输入值")
	proveCmd.Flags().Uint64Var(&proveFlags.Y, "y", 5, "第二个输入值")
	proveCmd.Flags().StringVar(&proveFlags.Snapshot, "snapshot", "", "证明请求快照路径 (可选)")
	proveCmd.Flags().StringVar(&proveFlags.ClientID, "client-id", "", "客户端标识 (默认自动生成)")
	rootCmd.AddCommand(proveCmd)
}
