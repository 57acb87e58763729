package circuits_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkvc/internal/core/zkp"
	infralog "github.com/weisyn/zkvc/internal/infrastructure/log"
	"github.com/weisyn/zkvc/pkg/circuits"
)

// ============================================================================
// 示例电路端到端测试
// ============================================================================

// proveVerify 对同形状的setup/prove实例跑完整流水线
func proveVerify(t *testing.T, name string, shape, instance zkp.ConstraintGenerator) *zkp.VerificationResult {
	t.Helper()

	artifacts, err := zkp.GenerateKeys(name, shape)
	require.NoError(t, err)

	prover := zkp.NewProver(infralog.NewNop(), &zkp.ProverArtifacts{
		CCS:        artifacts.CCS,
		ProvingKey: artifacts.ProvingKey,
		Manifest:   artifacts.Manifest,
	})
	validator := zkp.NewValidator(infralog.NewNop(), &zkp.VerifierArtifacts{
		VerifyingKey: artifacts.VerifyingKey,
		Manifest:     artifacts.Manifest,
	})

	request, err := prover.GenerateRequest(context.Background(), "client-1", instance)
	require.NoError(t, err)

	return validator.Process(context.Background(), request)
}

// TestMultiplier_ProveVerify 测试乘法电路：公开输入日志为 [X, Y, X*Y]
func TestMultiplier_ProveVerify(t *testing.T) {
	result := proveVerify(t, "multiplier",
		&circuits.Multiplier{},
		&circuits.Multiplier{X: 3, Y: 5})

	require.Equal(t, zkp.OutcomeValid, result.Outcome)
	assert.Equal(t, []string{"3", "5", "15"}, result.PublicInputs)
}

// TestAdder_ProveVerify 测试加法电路
func TestAdder_ProveVerify(t *testing.T) {
	result := proveVerify(t, "adder",
		&circuits.Adder{},
		&circuits.Adder{X: 2, Y: 3})

	require.Equal(t, zkp.OutcomeValid, result.Outcome)
	assert.Equal(t, []string{"2", "3", "5"}, result.PublicInputs)
}

// TestFactorization_ProveVerify 测试因式分解电路：只有乘积公开
func TestFactorization_ProveVerify(t *testing.T) {
	result := proveVerify(t, "factorization",
		&circuits.Factorization{P1: 2, P2: 2},
		&circuits.Factorization{P1: 3, P2: 5})

	require.Equal(t, zkp.OutcomeValid, result.Outcome)
	assert.Equal(t, []string{"15"}, result.PublicInputs)
}

// TestFactorization_TrivialFactorRejected 测试平凡因子无法生成证明
func TestFactorization_TrivialFactorRejected(t *testing.T) {
	artifacts, err := zkp.GenerateKeys("factorization", &circuits.Factorization{P1: 2, P2: 2})
	require.NoError(t, err)

	prover := zkp.NewProver(infralog.NewNop(), &zkp.ProverArtifacts{
		CCS:        artifacts.CCS,
		ProvingKey: artifacts.ProvingKey,
		Manifest:   artifacts.Manifest,
	})

	// p1=1 违反 AssertIsDifferent 约束，witness不可解
	_, err = prover.GenerateRequest(context.Background(), "client-1", &circuits.Factorization{P1: 1, P2: 15})
	require.ErrorIs(t, err, zkp.ErrBackend)
}

// TestMatVec_ProveVerify 测试矩阵-向量乘法电路：日志为向量段+结果段
func TestMatVec_ProveVerify(t *testing.T) {
	shape := &circuits.MatVec{
		Matrix: [][]uint64{{0, 0}, {0, 0}},
		Vector: []uint64{0, 0},
	}
	instance := &circuits.MatVec{
		Matrix: [][]uint64{{1, 2}, {3, 4}},
		Vector: []uint64{5, 6},
	}

	result := proveVerify(t, "matvec", shape, instance)

	require.Equal(t, zkp.OutcomeValid, result.Outcome)
	// 向量 [5,6]，结果 [1*5+2*6, 3*5+4*6] = [17, 39]
	assert.Equal(t, []string{"5", "6", "17", "39"}, result.PublicInputs)
	assert.Equal(t, 2, instance.VectorLen())
}

// TestMatVec_RaggedMatrixRejected 测试行列不齐的矩阵在setup期即失败
func TestMatVec_RaggedMatrixRejected(t *testing.T) {
	_, err := zkp.GenerateKeys("matvec", &circuits.MatVec{
		Matrix: [][]uint64{{1, 2}, {3}},
		Vector: []uint64{5, 6},
	})
	require.Error(t, err)
}
