package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkvc/internal/core/zkp"
)

var verifyFlags struct {
	KeyDir   string
	Snapshot string
}

// verifyCmd 离线验证命令
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "离线验证一个证明请求快照",
	Long: `不经过HTTP，直接对落盘的证明请求快照运行验证流水线。

审计场景：重放 prove --snapshot 产出的文件，确认其分类结果。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		request, err := zkp.LoadSnapshot(verifyFlags.Snapshot)
		if err != nil {
			return err
		}

		artifacts, err := zkp.LoadVerifierArtifacts(verifyFlags.KeyDir)
		if err != nil {
			return err
		}

		validator := zkp.NewValidator(logger, artifacts)
		result := validator.Process(context.Background(), request)

		switch result.Outcome {
		case zkp.OutcomeValid:
			fmt.Printf("Valid: %v\n", result.PublicInputs)
			return nil
		case zkp.OutcomeInvalid:
			fmt.Printf("Invalid: %s\n", result.Reason)
			return fmt.Errorf("证明被拒绝")
		default:
			fmt.Printf("Error: %v\n", result.Err)
			return fmt.Errorf("验证出错")
		}
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyFlags.KeyDir, "key-dir", "./keys", "验证密钥目录")
	verifyCmd.Flags().StringVar(&verifyFlags.Snapshot, "snapshot", "./proof.json", "证明请求快照路径")
	rootCmd.AddCommand(verifyCmd)
}
