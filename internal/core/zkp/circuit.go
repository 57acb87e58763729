package zkp

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
)

// ==================== 电路上下文 ====================
//
// 🎯 **核心职责**：在领域计算（"我知道 p1*p2=N 的因子"）和gnark约束系统之间
// 建立桥梁，同时把每一个公开揭示的值按声明顺序记录到只追加日志中。
//
// 整个系统的核心正确性不变量：证明生成时产出的公开输入序列与验证时重建的
// 序列必须在长度和逐位置语义上完全一致。上下文通过两种运行模式强制该不变量：
//
// - **绑定模式**：求值thunk、收集公开/私有值。公开值按声明顺序进入日志。
// - **定义模式**：在gnark的Define内部运行，按同样的声明顺序发放预分配的
//   约束系统变量。声明数量与预分配不一致会立即报告形状错误，而不是静默错配。
//
// ⚠️ 根据秘密值分支决定声明多少个变量属于形状破坏逻辑，是被禁止的：
// 两种模式会产出不同形状，上下文会在定义模式下直接报错。

// ValueFunc 变量取值函数：仅在绑定模式下被求值
//
// 返回值可以是 int、uint64、*big.Int、fr.Element 或十进制字符串。
type ValueFunc func() (frontend.Variable, error)

type contextMode int

const (
	// modeBind 绑定模式：收集具体值，构建公开输入日志
	modeBind contextMode = iota

	// modeDefine 定义模式：在gnark编译期发放符号变量
	modeDefine
)

// CircuitContext 电路上下文
//
// 计算作者通过它声明私有见证和公开输入；公开输入的声明顺序即其线路顺序。
type CircuitContext struct {
	mode contextMode

	// 定义模式：预分配的约束系统变量，按声明顺序发放
	api       frontend.API
	public    []frontend.Variable
	secret    []frontend.Variable
	publicIdx int
	secretIdx int

	// 绑定模式：求值结果
	publicValues []fr.Element // 只追加的有序公开输入日志
	secretValues []fr.Element
}

func newBindContext() *CircuitContext {
	return &CircuitContext{mode: modeBind}
}

func newDefineContext(api frontend.API, public, secret []frontend.Variable) *CircuitContext {
	return &CircuitContext{
		mode:   modeDefine,
		api:    api,
		public: public,
		secret: secret,
	}
}

// PublicInput 声明一个公开输入
//
// 绑定模式下求值thunk并把结果追加到有序公开输入日志；
// 定义模式下按序返回下一个公开约束变量，thunk不被求值。
func (c *CircuitContext) PublicInput(f ValueFunc) (frontend.Variable, error) {
	if c.mode == modeBind {
		el, err := c.evaluate(f)
		if err != nil {
			return nil, err
		}
		c.publicValues = append(c.publicValues, el)
		return el, nil
	}

	if c.publicIdx >= len(c.public) {
		return nil, WrapShapeMismatchError("public inputs", len(c.public), c.publicIdx+1)
	}
	v := c.public[c.publicIdx]
	c.publicIdx++
	return v, nil
}

// Witness 声明一个私有见证
//
// 见证值只进入证明器，从不被记录、序列化或传输。
func (c *CircuitContext) Witness(f ValueFunc) (frontend.Variable, error) {
	if c.mode == modeBind {
		el, err := c.evaluate(f)
		if err != nil {
			return nil, err
		}
		c.secretValues = append(c.secretValues, el)
		return el, nil
	}

	if c.secretIdx >= len(c.secret) {
		return nil, WrapShapeMismatchError("witnesses", len(c.secret), c.secretIdx+1)
	}
	v := c.secret[c.secretIdx]
	c.secretIdx++
	return v, nil
}

// Add 返回 a+b
func (c *CircuitContext) Add(a, b frontend.Variable) frontend.Variable {
	if c.mode == modeDefine {
		return c.api.Add(a, b)
	}
	ea, eb := asElement(a), asElement(b)
	var r fr.Element
	r.Add(&ea, &eb)
	return r
}

// Sub 返回 a-b
func (c *CircuitContext) Sub(a, b frontend.Variable) frontend.Variable {
	if c.mode == modeDefine {
		return c.api.Sub(a, b)
	}
	ea, eb := asElement(a), asElement(b)
	var r fr.Element
	r.Sub(&ea, &eb)
	return r
}

// Mul 返回 a*b
func (c *CircuitContext) Mul(a, b frontend.Variable) frontend.Variable {
	if c.mode == modeDefine {
		return c.api.Mul(a, b)
	}
	ea, eb := asElement(a), asElement(b)
	var r fr.Element
	r.Mul(&ea, &eb)
	return r
}

// AssertIsEqual 约束 a == b
//
// 绑定模式下是空操作：约束只存在于约束系统中，绑定值是否满足约束
// 由证明器在求解时裁决。
func (c *CircuitContext) AssertIsEqual(a, b frontend.Variable) {
	if c.mode == modeDefine {
		c.api.AssertIsEqual(a, b)
	}
}

// AssertIsDifferent 约束 a != b
func (c *CircuitContext) AssertIsDifferent(a, b frontend.Variable) {
	if c.mode == modeDefine {
		c.api.AssertIsDifferent(a, b)
	}
}

// PublicLog 返回有序公开输入日志（仅绑定模式有内容）
func (c *CircuitContext) PublicLog() []fr.Element {
	return c.publicValues
}

func (c *CircuitContext) evaluate(f ValueFunc) (fr.Element, error) {
	var el fr.Element
	raw, err := f()
	if err != nil {
		return el, err
	}
	if _, err := el.SetInterface(raw); err != nil {
		return el, fmt.Errorf("unsupported variable value %T: %w", raw, err)
	}
	return el, nil
}

func asElement(v frontend.Variable) fr.Element {
	var el fr.Element
	// 绑定模式下句柄都是本上下文发放的fr.Element；
	// 其余类型（整数字面量等）由SetInterface兜底转换。
	if e, ok := v.(fr.Element); ok {
		return e
	}
	el.SetInterface(v)
	return el
}

// ConstraintGenerator 约束生成器
//
// 一个领域计算实现一次Populate；电路上下文是它触碰的唯一协作者。
// 共享同一密钥对的所有实例必须声明相同的形状（变量数量、顺序、公私分类）。
type ConstraintGenerator interface {
	Populate(ctx *CircuitContext) error
}

// ==================== gnark电路适配 ====================

// dynamicCircuit 把约束生成器适配为gnark电路
//
// Public/Secret 切片的长度即电路形状；同一结构体同时充当编译期的形状载体
// 和证明期的witness赋值载体，公开输入顺序因此在两条路径上都钉死为切片顺序。
type dynamicCircuit struct {
	Public []frontend.Variable `gnark:",public"`
	Secret []frontend.Variable

	generator ConstraintGenerator
}

// Define 实现frontend.Circuit：把约束声明委托给生成器
func (c *dynamicCircuit) Define(api frontend.API) error {
	ctx := newDefineContext(api, c.Public, c.Secret)
	if err := c.generator.Populate(ctx); err != nil {
		return err
	}
	// 生成器声明的变量必须恰好耗尽预分配的形状
	if ctx.publicIdx != len(c.Public) {
		return WrapShapeMismatchError("public inputs", len(c.Public), ctx.publicIdx)
	}
	if ctx.secretIdx != len(c.Secret) {
		return WrapShapeMismatchError("witnesses", len(c.Secret), ctx.secretIdx)
	}
	return nil
}

// runBindPass 执行一次绑定模式求值，返回收集到具体值的上下文
func runBindPass(generator ConstraintGenerator) (*CircuitContext, error) {
	ctx := newBindContext()
	if err := generator.Populate(ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

// newShapeCircuit 构建用于编译的形状电路（值无关，只有变量数量）
func newShapeCircuit(generator ConstraintGenerator, nbPublic, nbSecret int) *dynamicCircuit {
	return &dynamicCircuit{
		Public:    make([]frontend.Variable, nbPublic),
		Secret:    make([]frontend.Variable, nbSecret),
		generator: generator,
	}
}

// newAssignment 构建witness赋值载体
func newAssignment(public, secret []fr.Element) *dynamicCircuit {
	c := &dynamicCircuit{
		Public: make([]frontend.Variable, len(public)),
		Secret: make([]frontend.Variable, len(secret)),
	}
	for i := range public {
		c.Public[i] = public[i]
	}
	for i := range secret {
		c.Secret[i] = secret[i]
	}
	return c
}

// buildFullWitness 构建完整witness（公开+私有），供证明器使用
func buildFullWitness(public, secret []fr.Element) (witness.Witness, error) {
	return frontend.NewWitness(newAssignment(public, secret), ecc.BN254.ScalarField())
}

// buildPublicWitness 按序构建仅含公开输入的witness，供验证器使用
func buildPublicWitness(public []fr.Element) (witness.Witness, error) {
	return frontend.NewWitness(newAssignment(public, nil), ecc.BN254.ScalarField(), frontend.PublicOnly())
}
