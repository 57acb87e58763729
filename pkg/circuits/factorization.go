package circuits

import (
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/weisyn/zkvc/internal/core/zkp"
)

// Factorization 因式分解电路：证明"我知道 N 的一对非平凡因子"
//
// 因子 P1、P2 是私有见证，只有乘积 N 进入公开输入日志。
// AssertIsDifferent 排除 p=1 的平凡分解。
type Factorization struct {
	P1 uint64
	P2 uint64
}

// Populate 声明变量与约束
func (f *Factorization) Populate(ctx *zkp.CircuitContext) error {
	p1, err := ctx.Witness(func() (frontend.Variable, error) { return f.P1, nil })
	if err != nil {
		return err
	}
	p2, err := ctx.Witness(func() (frontend.Variable, error) { return f.P2, nil })
	if err != nil {
		return err
	}
	product, err := ctx.PublicInput(func() (frontend.Variable, error) {
		return new(big.Int).Mul(new(big.Int).SetUint64(f.P1), new(big.Int).SetUint64(f.P2)), nil
	})
	if err != nil {
		return err
	}

	ctx.AssertIsEqual(ctx.Mul(p1, p2), product)
	ctx.AssertIsDifferent(p1, 1)
	ctx.AssertIsDifferent(p2, 1)
	return nil
}
