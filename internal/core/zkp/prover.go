package zkp

import (
	"bytes"
	"context"
	"encoding/base64"
	"time"

	"github.com/consensys/gnark/backend/groth16"

	"github.com/weisyn/zkvc/pkg/interfaces/log"
)

// Prover ZK证明生成器
//
// 🎯 **专门职责**：驱动电路上下文求值，调用groth16后端生成证明，
// 并把证明与有序公开输入日志打包为线路请求信封。
// 🏗️ **资源模型**：工件在构造时注入且只读共享；证明生成是单个
// 不可取消的CPU密集工作单元。
type Prover struct {
	logger    log.Logger
	artifacts *ProverArtifacts
}

// NewProver 创建证明生成器
func NewProver(logger log.Logger, artifacts *ProverArtifacts) *Prover {
	return &Prover{
		logger:    logger,
		artifacts: artifacts,
	}
}

// GenerateRequest 对一次计算生成证明请求
//
// 流程：绑定趟收集值 → 形状交叉校验 → 构建完整witness → groth16.Prove →
// base64证明 + 按序编码的公开输入。后端失败对该次证明是致命的，不自动重试
// （证明代价高昂，重试策略属于调用方决策）。
func (p *Prover) GenerateRequest(ctx context.Context, clientID string, generator ConstraintGenerator) (*ProofRequest, error) {
	startTime := time.Now()
	p.logger.Debugf("开始生成证明请求: clientID=%s, circuit=%s", clientID, p.artifacts.Manifest.Circuit)

	restore := silenceGnarkLogger()
	defer restore()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. 绑定趟：求值thunk，收集公开输入日志与见证
	bindCtx, err := runBindPass(generator)
	if err != nil {
		return nil, WrapBackendError("value binding", err)
	}

	// 2. 形状必须与密钥对绑定的清单一致，否则是配置错误而非密码学失败
	if len(bindCtx.publicValues) != p.artifacts.Manifest.NbPublic {
		return nil, WrapShapeMismatchError("public inputs", p.artifacts.Manifest.NbPublic, len(bindCtx.publicValues))
	}
	if len(bindCtx.secretValues) != p.artifacts.Manifest.NbSecret {
		return nil, WrapShapeMismatchError("witnesses", p.artifacts.Manifest.NbSecret, len(bindCtx.secretValues))
	}

	// 3. 完整witness（公开+私有）
	fullWitness, err := buildFullWitness(bindCtx.publicValues, bindCtx.secretValues)
	if err != nil {
		return nil, WrapBackendError("witness build", err)
	}

	// 4. 生成证明
	proof, err := groth16.Prove(p.artifacts.CCS, p.artifacts.ProvingKey, fullWitness)
	if err != nil {
		return nil, WrapBackendError("prove", err)
	}

	// 5. 序列化证明并打包信封
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, WrapBackendError("proof serialization", err)
	}

	request := &ProofRequest{
		ClientID:     clientID,
		Proof:        base64.StdEncoding.EncodeToString(buf.Bytes()),
		PublicInputs: EncodeFields(bindCtx.PublicLog()),
	}

	p.logger.Debugf("证明请求生成完成: 耗时=%v, 证明=%d字节, 公开输入=%d个",
		time.Since(startTime), buf.Len(), len(request.PublicInputs))

	return request, nil
}

// Manifest 返回密钥对绑定的形状清单
func (p *Prover) Manifest() Manifest {
	return p.artifacts.Manifest
}
