package zkp

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"

	"github.com/weisyn/zkvc/pkg/interfaces/log"
)

// ==================== 验证流水线状态机 ====================
//
// 🎯 每次验证尝试被显式地分类为三种互斥结果之一：
//
//	Idle → Decoding → Verifying → {Valid, Invalid, Error} → Idle
//
// 解码失败直接进入Error——它不是关于证明的密码学论断，按构造不可能
// 与Invalid混淆。只有groth16.Verify给出明确否定时才是Invalid。

// Outcome 验证结果分类
type Outcome int

const (
	// OutcomeValid 证明密码学有效
	OutcomeValid Outcome = iota

	// OutcomeInvalid 证明格式合法但密码学验证为假
	OutcomeInvalid

	// OutcomeError 解码失败或后端错误，未形成密码学论断
	OutcomeError
)

// String 返回结果的线路标签
func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return ResponseValid
	case OutcomeInvalid:
		return ResponseInvalid
	default:
		return ResponseError
	}
}

// DefaultInvalidReason Invalid结果的默认原因（与ErrVerificationRejected同源，
// 线路上的reason字段与进程内的错误判别保持一个口径）
var DefaultInvalidReason = ErrVerificationRejected.Error()

// VerificationResult 一次验证尝试的分类结果
type VerificationResult struct {
	// Outcome 三态分类，恰好一个成立
	Outcome Outcome

	// PublicInputs 解码成功的有序公开输入（Valid时回显给客户端）
	PublicInputs []string

	// Reason Invalid时的拒绝原因
	Reason string

	// Err Error时的内部错误（日志用；响应只携带短消息）
	Err error
}

// Validator ZK证明验证器
//
// 🏗️ 验证密钥加载一次后只读共享，所有并发验证任务无需同步即可读取。
type Validator struct {
	logger    log.Logger
	artifacts *VerifierArtifacts
}

// NewValidator 创建证明验证器
func NewValidator(logger log.Logger, artifacts *VerifierArtifacts) *Validator {
	return &Validator{
		logger:    logger,
		artifacts: artifacts,
	}
}

// Process 处理一个证明请求，返回三态分类结果
func (v *Validator) Process(ctx context.Context, request *ProofRequest) *VerificationResult {
	startTime := time.Now()
	v.logger.Debugf("开始验证证明: clientID=%s, publicInputs=%d", request.ClientID, len(request.PublicInputs))

	restore := silenceGnarkLogger()
	defer restore()

	if err := ctx.Err(); err != nil {
		return &VerificationResult{Outcome: OutcomeError, Err: err}
	}

	// ---- Decoding ----

	proofBytes, err := base64.StdEncoding.DecodeString(request.Proof)
	if err != nil {
		return &VerificationResult{Outcome: OutcomeError, Err: WrapBadEncodingError(0, "proof")}
	}

	decodedInputs, err := DecodeFields(request.PublicInputs)
	if err != nil {
		// 编码错误短路到Error结果，绝不与密码学拒绝混淆
		return &VerificationResult{Outcome: OutcomeError, Err: err}
	}

	// 输入数量与密钥形状的预检：数量不匹配是后端层错误，不是拒绝
	if len(decodedInputs) != v.artifacts.Manifest.NbPublic {
		return &VerificationResult{
			Outcome: OutcomeError,
			Err:     WrapBackendError("arity check", WrapShapeMismatchError("public inputs", v.artifacts.Manifest.NbPublic, len(decodedInputs))),
		}
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		// 证明字节损坏属于后端错误
		return &VerificationResult{Outcome: OutcomeError, Err: WrapBackendError("proof deserialization", err)}
	}

	publicWitness, err := buildPublicWitness(decodedInputs)
	if err != nil {
		return &VerificationResult{Outcome: OutcomeError, Err: WrapBackendError("public witness build", err)}
	}

	// ---- Verifying ----

	if err := groth16.Verify(proof, v.artifacts.VerifyingKey, publicWitness); err != nil {
		// 只有明确的密码学否定才是Invalid；verify内部的其他故障
		// （多标量乘法失败、密钥不一致等）没有形成密码学论断
		if !isVerifyRejection(err) {
			return &VerificationResult{Outcome: OutcomeError, Err: WrapBackendError("verify", err)}
		}
		v.logger.Debugf("证明被拒绝: clientID=%s, 耗时=%v", request.ClientID, time.Since(startTime))
		return &VerificationResult{
			Outcome:      OutcomeInvalid,
			PublicInputs: request.PublicInputs,
			Reason:       DefaultInvalidReason,
		}
	}

	v.logger.Debugf("证明验证通过: clientID=%s, 耗时=%v", request.ClientID, time.Since(startTime))
	return &VerificationResult{
		Outcome:      OutcomeValid,
		PublicInputs: request.PublicInputs,
	}
}

// IsEncodingError 判断结果错误是否为编码错误（测试与指标用）
func IsEncodingError(err error) bool {
	return errors.Is(err, ErrBadEncoding)
}

// isVerifyRejection 判断verify错误是否为密码学否定
//
// gnark的否定哨兵未导出，只能按错误文本判别：配对校验不等与
// 证明点不在正确子群这两种是对证明本身的否定，其余一律视为后端故障。
func isVerifyRejection(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "pairing doesn't match") ||
		strings.Contains(msg, "not in the correct subgroup")
}
