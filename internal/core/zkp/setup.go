package zkp

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// ==================== 密钥生命周期 ====================
//
// 🎯 **职责**：为一个电路形状生成配对的证明/验证密钥，并负责持久化与加载。
// 密钥对绑定的是电路形状（变量数量/顺序/公私分类），与具体值无关——
// setup对零值占位实例运行一次即可。
//
// ⚠️ setup使用环境提供的安全随机数，不可重试：失败即整个系统没有可用密钥。

// 持久化文件名（形状绑定的规范二进制blob）
const (
	circuitFileName      = "circuit.r1cs"
	provingKeyFileName   = "proving.key"
	verifyingKeyFileName = "verifying.key"
	manifestFileName     = "manifest.json"
)

// Manifest 电路形状清单
//
// 显式记录密钥对绑定的形状，加载端据此做fail-closed校验：
// 形状不匹配是配置错误（ErrKeyFormat/ErrShapeMismatch），不是密码学失败。
type Manifest struct {
	// Circuit 电路名称
	Circuit string `json:"circuit"`

	// Curve 椭圆曲线标识
	Curve string `json:"curve"`

	// NbPublic 生成器声明的公开输入数量
	NbPublic int `json:"nb_public"`

	// NbSecret 生成器声明的私有见证数量
	NbSecret int `json:"nb_secret"`

	// NbConstraints 编译后的约束数量
	NbConstraints int `json:"nb_constraints"`

	// CcsPublicVariables 约束系统侧的公开变量总数（含常量线）
	CcsPublicVariables int `json:"ccs_public_variables"`

	// CreatedAt 生成时间
	CreatedAt time.Time `json:"created_at"`
}

// SetupArtifacts 一次setup产出的全部工件
type SetupArtifacts struct {
	CCS          constraint.ConstraintSystem
	ProvingKey   groth16.ProvingKey
	VerifyingKey groth16.VerifyingKey
	Manifest     Manifest
}

// ProverArtifacts 证明端加载的工件（只读共享）
type ProverArtifacts struct {
	CCS        constraint.ConstraintSystem
	ProvingKey groth16.ProvingKey
	Manifest   Manifest
}

// VerifierArtifacts 验证端加载的工件（只读共享）
type VerifierArtifacts struct {
	VerifyingKey groth16.VerifyingKey
	Manifest     Manifest
}

// GenerateKeys 对电路形状运行一次可信设置
//
// generator 应当是零值占位实例：setup只关心形状，不关心具体值。
// 流程：绑定趟确定形状 → 编译R1CS → groth16.Setup。
func GenerateKeys(name string, generator ConstraintGenerator) (*SetupArtifacts, error) {
	restore := silenceGnarkLogger()
	defer restore()

	bindCtx, err := runBindPass(generator)
	if err != nil {
		return nil, WrapBackendError("shape discovery", err)
	}
	nbPublic := len(bindCtx.publicValues)
	nbSecret := len(bindCtx.secretValues)

	shell := newShapeCircuit(generator, nbPublic, nbSecret)
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, shell)
	if err != nil {
		return nil, WrapBackendError("circuit compile", err)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, WrapBackendError("trusted setup", err)
	}

	return &SetupArtifacts{
		CCS:          ccs,
		ProvingKey:   pk,
		VerifyingKey: vk,
		Manifest: Manifest{
			Circuit:            name,
			Curve:              ecc.BN254.String(),
			NbPublic:           nbPublic,
			NbSecret:           nbSecret,
			NbConstraints:      ccs.GetNbConstraints(),
			CcsPublicVariables: ccs.GetNbPublicVariables(),
			CreatedAt:          time.Now().UTC(),
		},
	}, nil
}

// SaveTo 把全部工件写入目录（gnark规范序列化，字节级可往返）
func (a *SetupArtifacts) SaveTo(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	if err := writeGnarkObject(filepath.Join(dir, circuitFileName), a.CCS); err != nil {
		return err
	}
	if err := writeGnarkObject(filepath.Join(dir, provingKeyFileName), a.ProvingKey); err != nil {
		return err
	}
	if err := writeGnarkObject(filepath.Join(dir, verifyingKeyFileName), a.VerifyingKey); err != nil {
		return err
	}

	manifestData, err := json.MarshalIndent(a.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFileName), manifestData, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadProverArtifacts 加载证明端工件
//
// 文件缺失返回ErrKeyMissing，字节不可反序列化或与清单形状矛盾返回ErrKeyFormat。
func LoadProverArtifacts(dir string) (*ProverArtifacts, error) {
	manifest, err := loadManifest(dir)
	if err != nil {
		return nil, err
	}

	ccs := groth16.NewCS(ecc.BN254)
	if err := readGnarkObject(filepath.Join(dir, circuitFileName), ccs); err != nil {
		return nil, err
	}
	// 清单与约束系统的形状交叉校验（fail closed）
	if ccs.GetNbPublicVariables() != manifest.CcsPublicVariables {
		return nil, WrapKeyFormatError(filepath.Join(dir, circuitFileName),
			WrapShapeMismatchError("ccs public variables", manifest.CcsPublicVariables, ccs.GetNbPublicVariables()))
	}

	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readGnarkObject(filepath.Join(dir, provingKeyFileName), pk); err != nil {
		return nil, err
	}

	return &ProverArtifacts{CCS: ccs, ProvingKey: pk, Manifest: *manifest}, nil
}

// LoadVerifierArtifacts 加载验证端工件
func LoadVerifierArtifacts(dir string) (*VerifierArtifacts, error) {
	manifest, err := loadManifest(dir)
	if err != nil {
		return nil, err
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := readGnarkObject(filepath.Join(dir, verifyingKeyFileName), vk); err != nil {
		return nil, err
	}
	// 验证密钥与清单的形状交叉校验（fail closed）：不一致属于配置错误，
	// 必须在启动时暴露，而不是在verify期伪装成后端故障
	if vk.NbPublicWitness() != manifest.NbPublic {
		return nil, WrapKeyFormatError(filepath.Join(dir, verifyingKeyFileName),
			WrapShapeMismatchError("vk public witness", manifest.NbPublic, vk.NbPublicWitness()))
	}

	return &VerifierArtifacts{VerifyingKey: vk, Manifest: *manifest}, nil
}

func loadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, WrapKeyMissingError(path)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, WrapKeyFormatError(path, err)
	}
	if manifest.Curve != ecc.BN254.String() {
		return nil, WrapKeyFormatError(path, fmt.Errorf("unsupported curve %q", manifest.Curve))
	}
	return &manifest, nil
}

func writeGnarkObject(path string, obj io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := obj.WriteTo(f); err != nil {
		return fmt.Errorf("serialize %s: %w", path, err)
	}
	return nil
}

func readGnarkObject(path string, obj io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return WrapKeyMissingError(path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := obj.ReadFrom(f); err != nil {
		return WrapKeyFormatError(path, err)
	}
	return nil
}
