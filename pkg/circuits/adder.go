package circuits

import (
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/weisyn/zkvc/internal/core/zkp"
)

// Adder 加法电路：证明 X+Y = Sum
//
// 公开输入日志固定为 [X, Y, X+Y]。
type Adder struct {
	X uint64
	Y uint64
}

// Populate 声明变量与约束
func (a *Adder) Populate(ctx *zkp.CircuitContext) error {
	x, err := ctx.PublicInput(func() (frontend.Variable, error) { return a.X, nil })
	if err != nil {
		return err
	}
	y, err := ctx.PublicInput(func() (frontend.Variable, error) { return a.Y, nil })
	if err != nil {
		return err
	}
	sum, err := ctx.PublicInput(func() (frontend.Variable, error) {
		return new(big.Int).Add(new(big.Int).SetUint64(a.X), new(big.Int).SetUint64(a.Y)), nil
	})
	if err != nil {
		return err
	}

	ctx.AssertIsEqual(ctx.Add(x, y), sum)
	return nil
}
