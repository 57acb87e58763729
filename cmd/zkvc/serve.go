package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/weisyn/zkvc/internal/core/zkp"
	"github.com/weisyn/zkvc/internal/server"
	logiface "github.com/weisyn/zkvc/pkg/interfaces/log"
)

var serveFlags struct {
	ConfigFile    string
	Listen        string
	KeyDir        string
	Workers       int
	QueueSize     int
	ChallengeSize int
}

// serveFileConfig 服务端JSON配置文件结构
type serveFileConfig struct {
	Listen        string `json:"listen"`
	KeyDir        string `json:"key_dir"`
	Workers       int    `json:"workers"`
	QueueSize     int    `json:"queue_size"`
	ChallengeSize int    `json:"challenge_size"`
}

// applyConfigFile 读取配置文件；显式传入的命令行标志优先
func applyConfigFile(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取配置文件: %w", err)
	}
	var cfg serveFileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("解析配置文件: %w", err)
	}

	if cfg.Listen != "" && !cmd.Flags().Changed("listen") {
		serveFlags.Listen = cfg.Listen
	}
	if cfg.KeyDir != "" && !cmd.Flags().Changed("key-dir") {
		serveFlags.KeyDir = cfg.KeyDir
	}
	if cfg.Workers > 0 && !cmd.Flags().Changed("workers") {
		serveFlags.Workers = cfg.Workers
	}
	if cfg.QueueSize > 0 && !cmd.Flags().Changed("queue-size") {
		serveFlags.QueueSize = cfg.QueueSize
	}
	if cfg.ChallengeSize > 0 && !cmd.Flags().Changed("challenge-size") {
		serveFlags.ChallengeSize = cfg.ChallengeSize
	}
	return nil
}

// serveCmd 验证服务命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动验证服务",
	Long: `加载验证密钥并启动HTTP验证服务。

每个证明请求被分类为 Valid/Invalid/Error 三态之一并恰好触发一个反应回调。
--challenge-size > 0 时启用挑战会话：有效证明且公开输入与当前挑战一致时
旋转挑战，过期的有效证明不二次旋转。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveFlags.ConfigFile != "" {
			if err := applyConfigFile(cmd, serveFlags.ConfigFile); err != nil {
				return err
			}
		}

		session, err := newSession(serveFlags.ChallengeSize)
		if err != nil {
			return err
		}

		app := fx.New(
			fx.NopLogger,
			fx.Provide(func() (*server.Server, error) {
				cfg := server.Config{
					ListenAddress: serveFlags.Listen,
					KeyDir:        serveFlags.KeyDir,
					Workers:       serveFlags.Workers,
					QueueSize:     serveFlags.QueueSize,
				}
				return server.New(cfg, logger, session, defaultHandlers(logger, session))
			}),
			fx.Invoke(server.RegisterLifecycle),
		)

		app.Run()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.ConfigFile, "config", "", "服务端JSON配置文件 (命令行标志优先)")
	serveCmd.Flags().StringVar(&serveFlags.Listen, "listen", "127.0.0.1:65432", "监听地址")
	serveCmd.Flags().StringVar(&serveFlags.KeyDir, "key-dir", "./keys", "验证密钥目录")
	serveCmd.Flags().IntVar(&serveFlags.Workers, "workers", 4, "验证工作线程数")
	serveCmd.Flags().IntVar(&serveFlags.QueueSize, "queue-size", 64, "验证任务队列长度")
	serveCmd.Flags().IntVar(&serveFlags.ChallengeSize, "challenge-size", 0, "挑战域元素数量 (0禁用挑战会话)")
	rootCmd.AddCommand(serveCmd)
}

// newSession 按需创建挑战存储
func newSession(size int) (*zkp.ChallengeStore, error) {
	if size <= 0 {
		return nil, nil
	}
	values, err := randomChallengeValues(size)
	if err != nil {
		return nil, err
	}
	return zkp.NewChallengeStore(logger, zkp.NewChallenge(values)), nil
}

// randomChallengeValues 生成编码后的随机挑战域元素
func randomChallengeValues(n int) ([]string, error) {
	values := make([]string, n)
	for i := range values {
		var el fr.Element
		if _, err := el.SetRandom(); err != nil {
			return nil, fmt.Errorf("draw challenge element: %w", err)
		}
		values[i] = zkp.EncodeField(el)
	}
	return values, nil
}

// defaultHandlers 缺省反应回调：记录结果，有效证明驱动挑战旋转
func defaultHandlers(logger logiface.Logger, session *zkp.ChallengeStore) server.Handlers {
	return server.Handlers{
		OnValid: func(clientID string, publicInputs []string, store *zkp.ChallengeStore) error {
			logger.Infof("接受有效证明: clientID=%s, 公开输入=%d个", clientID, len(publicInputs))
			if store == nil {
				return nil
			}
			rotated := store.RotateIf(publicInputs, func() zkp.Challenge {
				values, err := randomChallengeValues(len(publicInputs))
				if err != nil {
					// 随机源失败时保留旧挑战值，仅更换标识
					logger.Errorf("生成新挑战失败: %v", err)
					return zkp.NewChallenge(publicInputs)
				}
				return zkp.NewChallenge(values)
			})
			if !rotated {
				logger.Warnf("有效证明未命中当前挑战: clientID=%s", clientID)
			}
			return nil
		},
		OnInvalid: func(clientID string, reason string) error {
			logger.Warnf("拒绝无效证明: clientID=%s, reason=%s", clientID, reason)
			return nil
		},
		OnError: func(clientID string, err error) error {
			logger.Errorf("验证出错: clientID=%s, cause=%v", clientID, err)
			return nil
		},
	}
}
