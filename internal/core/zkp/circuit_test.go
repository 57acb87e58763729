package zkp

import (
	"errors"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// circuit.go 测试
// ============================================================================

// productGenerator 测试电路：X*Y=Product，三个值全部公开
type productGenerator struct {
	X uint64
	Y uint64
}

func (g *productGenerator) Populate(ctx *CircuitContext) error {
	x, err := ctx.PublicInput(func() (frontend.Variable, error) { return g.X, nil })
	if err != nil {
		return err
	}
	y, err := ctx.PublicInput(func() (frontend.Variable, error) { return g.Y, nil })
	if err != nil {
		return err
	}
	product, err := ctx.PublicInput(func() (frontend.Variable, error) {
		return new(big.Int).Mul(new(big.Int).SetUint64(g.X), new(big.Int).SetUint64(g.Y)), nil
	})
	if err != nil {
		return err
	}
	ctx.AssertIsEqual(ctx.Mul(x, y), product)
	return nil
}

// factorGenerator 测试电路：P1*P2=N，因子私有，乘积公开
type factorGenerator struct {
	P1 uint64
	P2 uint64
}

func (g *factorGenerator) Populate(ctx *CircuitContext) error {
	p1, err := ctx.Witness(func() (frontend.Variable, error) { return g.P1, nil })
	if err != nil {
		return err
	}
	p2, err := ctx.Witness(func() (frontend.Variable, error) { return g.P2, nil })
	if err != nil {
		return err
	}
	product, err := ctx.PublicInput(func() (frontend.Variable, error) {
		return new(big.Int).Mul(new(big.Int).SetUint64(g.P1), new(big.Int).SetUint64(g.P2)), nil
	})
	if err != nil {
		return err
	}
	ctx.AssertIsEqual(ctx.Mul(p1, p2), product)
	return nil
}

// TestBindPass_OrderedPublicLog 测试绑定趟按声明顺序收集公开输入
func TestBindPass_OrderedPublicLog(t *testing.T) {
	bindCtx, err := runBindPass(&productGenerator{X: 3, Y: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"3", "5", "15"}, EncodeFields(bindCtx.PublicLog()))
	assert.Empty(t, bindCtx.secretValues)
}

// TestBindPass_WitnessNotLogged 测试私有见证不进入公开输入日志
func TestBindPass_WitnessNotLogged(t *testing.T) {
	bindCtx, err := runBindPass(&factorGenerator{P1: 3, P2: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"15"}, EncodeFields(bindCtx.PublicLog()))
	assert.Len(t, bindCtx.secretValues, 2)
}

// TestBindPass_ThunkError 测试thunk失败即整体失败
func TestBindPass_ThunkError(t *testing.T) {
	boom := errors.New("no value available")
	gen := generatorFunc(func(ctx *CircuitContext) error {
		_, err := ctx.PublicInput(func() (frontend.Variable, error) { return nil, boom })
		return err
	})

	_, err := runBindPass(gen)
	require.ErrorIs(t, err, boom)
}

// TestDynamicCircuit_Compiles 测试形状电路可编译
func TestDynamicCircuit_Compiles(t *testing.T) {
	shell := newShapeCircuit(&productGenerator{}, 3, 0)
	_, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, shell)
	require.NoError(t, err)
}

// TestDynamicCircuit_IsSolved 测试满足约束的赋值可解
func TestDynamicCircuit_IsSolved(t *testing.T) {
	gen := &productGenerator{X: 3, Y: 5}
	bindCtx, err := runBindPass(gen)
	require.NoError(t, err)

	shell := newShapeCircuit(gen, 3, 0)
	assignment := newAssignment(bindCtx.publicValues, nil)

	require.NoError(t, test.IsSolved(shell, assignment, ecc.BN254.ScalarField()))
}

// TestDynamicCircuit_UnsatisfiedAssignment 测试违反约束的赋值不可解
func TestDynamicCircuit_UnsatisfiedAssignment(t *testing.T) {
	gen := &productGenerator{X: 3, Y: 5}
	bindCtx, err := runBindPass(gen)
	require.NoError(t, err)

	// 篡改乘积
	values := bindCtx.publicValues
	values[2].SetUint64(16)

	shell := newShapeCircuit(gen, 3, 0)
	assignment := newAssignment(values, nil)

	require.Error(t, test.IsSolved(shell, assignment, ecc.BN254.ScalarField()))
}

// TestDefine_TooManyDeclarations 测试生成器声明超出预分配形状即报错
func TestDefine_TooManyDeclarations(t *testing.T) {
	// 预分配2个公开变量，生成器声明3个
	shell := newShapeCircuit(&productGenerator{}, 2, 0)
	_, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, shell)
	require.Error(t, err)
}

// TestDefine_TooFewDeclarations 测试生成器未耗尽预分配形状即报错
func TestDefine_TooFewDeclarations(t *testing.T) {
	// 预分配4个公开变量，生成器只声明3个
	shell := newShapeCircuit(&productGenerator{}, 4, 0)
	_, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, shell)
	require.Error(t, err)
}

// generatorFunc 函数式约束生成器（测试辅助）
type generatorFunc func(ctx *CircuitContext) error

func (f generatorFunc) Populate(ctx *CircuitContext) error { return f(ctx) }
