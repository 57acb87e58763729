// Package circuits 提供若干开箱即用的示例电路
//
// 每个电路实现一次Populate，电路上下文是它触碰的唯一协作者。
// 这些示例同时演示了公开输入日志的顺序语义：公开值按声明顺序揭示。
package circuits

import (
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/weisyn/zkvc/internal/core/zkp"
)

// Multiplier 乘法电路：证明 X*Y = Product
//
// 三个值全部公开，公开输入日志固定为 [X, Y, X*Y]。
type Multiplier struct {
	X uint64
	Y uint64
}

// Populate 声明变量与约束
func (m *Multiplier) Populate(ctx *zkp.CircuitContext) error {
	x, err := ctx.PublicInput(func() (frontend.Variable, error) { return m.X, nil })
	if err != nil {
		return err
	}
	y, err := ctx.PublicInput(func() (frontend.Variable, error) { return m.Y, nil })
	if err != nil {
		return err
	}
	product, err := ctx.PublicInput(func() (frontend.Variable, error) {
		return new(big.Int).Mul(new(big.Int).SetUint64(m.X), new(big.Int).SetUint64(m.Y)), nil
	})
	if err != nil {
		return err
	}

	ctx.AssertIsEqual(ctx.Mul(x, y), product)
	return nil
}
