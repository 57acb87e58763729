package circuits

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/weisyn/zkvc/internal/core/zkp"
)

// MatVec 矩阵-向量乘法电路：证明"我知道把公开向量映射为公开结果的矩阵"
//
// 矩阵元素是私有见证；公开输入日志先是向量的全部元素、再是结果的全部
// 元素，两段的长度分别由 Vector 与 Matrix 的行数显式决定，验证方凭此
// 切分日志，不做任何中点猜测。
type MatVec struct {
	Matrix [][]uint64
	Vector []uint64
}

// VectorLen 返回公开输入日志中向量段的长度
func (m *MatVec) VectorLen() int {
	return len(m.Vector)
}

// Populate 声明变量与约束
func (m *MatVec) Populate(ctx *zkp.CircuitContext) error {
	if len(m.Matrix) == 0 || len(m.Vector) == 0 {
		return fmt.Errorf("matrix and vector must be non-empty")
	}
	for i, row := range m.Matrix {
		if len(row) != len(m.Vector) {
			return fmt.Errorf("matrix row %d has %d columns, vector has %d entries", i, len(row), len(m.Vector))
		}
	}

	vector := make([]frontend.Variable, len(m.Vector))
	for i := range m.Vector {
		v := m.Vector[i]
		var err error
		vector[i], err = ctx.PublicInput(func() (frontend.Variable, error) { return v, nil })
		if err != nil {
			return err
		}
	}

	matrix := make([][]frontend.Variable, len(m.Matrix))
	for i := range m.Matrix {
		matrix[i] = make([]frontend.Variable, len(m.Matrix[i]))
		for j := range m.Matrix[i] {
			e := m.Matrix[i][j]
			var err error
			matrix[i][j], err = ctx.Witness(func() (frontend.Variable, error) { return e, nil })
			if err != nil {
				return err
			}
		}
	}

	for i := range m.Matrix {
		row := i
		result, err := ctx.PublicInput(func() (frontend.Variable, error) {
			acc := new(big.Int)
			for j := range m.Vector {
				term := new(big.Int).Mul(new(big.Int).SetUint64(m.Matrix[row][j]), new(big.Int).SetUint64(m.Vector[j]))
				acc.Add(acc, term)
			}
			return acc, nil
		})
		if err != nil {
			return err
		}

		acc := ctx.Mul(matrix[i][0], vector[0])
		for j := 1; j < len(m.Vector); j++ {
			acc = ctx.Add(acc, ctx.Mul(matrix[i][j], vector[j]))
		}
		ctx.AssertIsEqual(acc, result)
	}

	return nil
}
