// Package client 实现证明端编排器
//
// 🎯 **职责**：加载证明密钥，驱动电路上下文生成证明请求，
// 可选地落盘审计快照，然后通过HTTP提交给验证服务并等待结构化响应。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/weisyn/zkvc/internal/core/zkp"
	"github.com/weisyn/zkvc/pkg/interfaces/log"
)

// 默认请求超时：网络往返本身没有固有超时契约，但无界等待不可接受。
// 超时即失败，不静默重试。
const defaultRequestTimeout = 120 * time.Second

// Config 客户端配置
type Config struct {
	// ServerURL 验证服务基地址（如 http://127.0.0.1:65432）
	ServerURL string

	// KeyDir 证明工件目录（circuit.r1cs / proving.key / manifest.json）
	KeyDir string

	// ProofSnapshotPath 证明请求快照路径；为空则不落盘
	ProofSnapshotPath string

	// ClientID 客户端标识；为空时自动生成uuid
	ClientID string

	// RequestTimeout 单次HTTP请求超时；零值使用默认
	RequestTimeout time.Duration
}

// Client 证明端编排器
type Client struct {
	config     Config
	logger     log.Logger
	prover     *zkp.Prover
	httpClient *http.Client
}

// New 创建客户端会话
//
// 证明密钥不可读或形状不匹配在此处即失败（任何网络活动之前），
// 错误链携带ErrKeyMissing/ErrKeyFormat供调用方判别。
func New(config Config, logger log.Logger) (*Client, error) {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaultRequestTimeout
	}

	artifacts, err := zkp.LoadProverArtifacts(config.KeyDir)
	if err != nil {
		return nil, err
	}
	logger.Infof("证明工件加载完成: circuit=%s, publicInputs=%d",
		artifacts.Manifest.Circuit, artifacts.Manifest.NbPublic)

	return &Client{
		config:     config,
		logger:     logger,
		prover:     zkp.NewProver(logger, artifacts),
		httpClient: &http.Client{Timeout: config.RequestTimeout},
	}, nil
}

// ClientID 返回本会话的客户端标识
func (c *Client) ClientID() string {
	return c.config.ClientID
}

// ProveAndSend 生成证明请求并提交验证
//
// 失败模式的区分：证明后端失败（ErrBackend）在任何网络活动前浮出；
// 网络/超时失败是ErrTransport；服务端响应无法解析是ErrProtocol。
func (c *Client) ProveAndSend(ctx context.Context, generator zkp.ConstraintGenerator) (*zkp.VerificationResponse, error) {
	request, err := c.prover.GenerateRequest(ctx, c.config.ClientID, generator)
	if err != nil {
		return nil, err
	}

	if c.config.ProofSnapshotPath != "" {
		if err := request.SaveSnapshot(c.config.ProofSnapshotPath); err != nil {
			// 快照是审计便利，不阻断提交
			c.logger.Warnf("证明快照落盘失败: %v", err)
		} else {
			c.logger.Debugf("证明快照已保存: %s", c.config.ProofSnapshotPath)
		}
	}

	return c.send(ctx, request)
}

// send 提交证明请求并解析结构化响应
func (c *Client) send(ctx context.Context, request *zkp.ProofRequest) (*zkp.VerificationResponse, error) {
	endpoint := c.config.ServerURL + "/api/v1/verify"

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal proof request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, zkp.WrapTransportError(endpoint, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debugf("提交证明请求: endpoint=%s, clientID=%s", endpoint, request.ClientID)
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, zkp.WrapTransportError(endpoint, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, zkp.WrapTransportError(endpoint, err)
	}

	var response zkp.VerificationResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, zkp.WrapProtocolError("verification response", err)
	}
	if response.Type != zkp.ResponseValid && response.Type != zkp.ResponseInvalid && response.Type != zkp.ResponseError {
		return nil, zkp.WrapProtocolError("verification response", fmt.Errorf("unknown outcome type %q", response.Type))
	}

	c.logger.Infof("收到验证响应: type=%s", response.Type)
	return &response, nil
}

// FetchChallenge 拉取服务端当前挑战
func (c *Client) FetchChallenge(ctx context.Context) (*zkp.Challenge, error) {
	endpoint := c.config.ServerURL + "/api/v1/challenge"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, zkp.WrapTransportError(endpoint, err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, zkp.WrapTransportError(endpoint, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, zkp.WrapTransportError(endpoint, fmt.Errorf("unexpected status %d", httpResp.StatusCode))
	}

	var challenge struct {
		ChallengeID string   `json:"challenge_id"`
		Values      []string `json:"values"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&challenge); err != nil {
		return nil, zkp.WrapProtocolError("challenge response", err)
	}

	return &zkp.Challenge{ID: challenge.ChallengeID, Values: challenge.Values}, nil
}
