package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkvc/internal/core/zkp"
	infralog "github.com/weisyn/zkvc/internal/infrastructure/log"
	"github.com/weisyn/zkvc/pkg/circuits"
	logiface "github.com/weisyn/zkvc/pkg/interfaces/log"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	LogLevel string // 日志级别
	LogFile  string // 日志文件路径
	Console  bool   // 是否输出到控制台
}

var (
	globalFlags GlobalFlags
	logger      logiface.Logger
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "zkvc",
	Short: "零知识证明交换框架命令行",
	Long: `zkvc - 零知识证明交换命令行工具

证明方与验证方通过结构化HTTP消息交换groth16证明:
- setup   对电路形状运行一次可信设置并落盘密钥
- serve   启动验证服务
- prove   生成证明并提交验证
- verify  离线验证一个证明请求快照`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := infralog.DefaultConfig()
		cfg.Level = globalFlags.LogLevel
		cfg.Console = globalFlags.Console
		if globalFlags.LogFile != "" {
			cfg.FilePath = globalFlags.LogFile
		}

		var err error
		logger, err = infralog.New(cfg)
		if err != nil {
			return fmt.Errorf("初始化日志: %w", err)
		}
		infralog.SetLogger(logger)
		return nil
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "info", "日志级别: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "日志文件路径 (默认仅控制台)")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Console, "console", true, "同时输出日志到控制台")
}

// buildGenerator 按名称构造示例电路实例
//
// setup 只关心形状，prove 关心具体值；两条路径共用同一工厂，
// 保证形状来源唯一。
func buildGenerator(name string, x, y uint64) (zkp.ConstraintGenerator, error) {
	switch name {
	case "multiplier":
		return &circuits.Multiplier{X: x, Y: y}, nil
	case "adder":
		return &circuits.Adder{X: x, Y: y}, nil
	case "factorization":
		return &circuits.Factorization{P1: x, P2: y}, nil
	default:
		return nil, fmt.Errorf("未知电路 %q (可选: multiplier|adder|factorization)", name)
	}
}
