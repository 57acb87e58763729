package zkp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// setup.go 测试
// ============================================================================

var (
	productArtifactsOnce sync.Once
	productArtifacts     *SetupArtifacts
	productArtifactsErr  error
)

// testProductArtifacts 复用同一份setup产物（setup开销大，跨用例共享）
func testProductArtifacts(t *testing.T) *SetupArtifacts {
	t.Helper()
	productArtifactsOnce.Do(func() {
		productArtifacts, productArtifactsErr = GenerateKeys("product", &productGenerator{})
	})
	require.NoError(t, productArtifactsErr)
	return productArtifacts
}

// TestGenerateKeys_ManifestShape 测试setup产出的形状清单
func TestGenerateKeys_ManifestShape(t *testing.T) {
	artifacts := testProductArtifacts(t)

	assert.Equal(t, "product", artifacts.Manifest.Circuit)
	assert.Equal(t, "bn254", artifacts.Manifest.Curve)
	assert.Equal(t, 3, artifacts.Manifest.NbPublic)
	assert.Equal(t, 0, artifacts.Manifest.NbSecret)
	assert.Greater(t, artifacts.Manifest.NbConstraints, 0)
	assert.Equal(t, artifacts.CCS.GetNbPublicVariables(), artifacts.Manifest.CcsPublicVariables)
}

// TestSetupArtifacts_PersistRoundTrip 测试密钥落盘与加载往返
func TestSetupArtifacts_PersistRoundTrip(t *testing.T) {
	artifacts := testProductArtifacts(t)
	dir := t.TempDir()

	require.NoError(t, artifacts.SaveTo(dir))

	for _, name := range []string{"circuit.r1cs", "proving.key", "verifying.key", "manifest.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "missing %s", name)
	}

	prover, err := LoadProverArtifacts(dir)
	require.NoError(t, err)
	assert.Equal(t, artifacts.Manifest.NbPublic, prover.Manifest.NbPublic)
	assert.Equal(t, artifacts.CCS.GetNbConstraints(), prover.CCS.GetNbConstraints())

	verifier, err := LoadVerifierArtifacts(dir)
	require.NoError(t, err)
	assert.Equal(t, artifacts.Manifest.NbPublic, verifier.Manifest.NbPublic)
}

// TestLoadProverArtifacts_Missing 测试密钥缺失返回ErrKeyMissing
func TestLoadProverArtifacts_Missing(t *testing.T) {
	_, err := LoadProverArtifacts(t.TempDir())
	require.ErrorIs(t, err, ErrKeyMissing)
}

// TestLoadVerifierArtifacts_CorruptKey 测试密钥字节损坏返回ErrKeyFormat
func TestLoadVerifierArtifacts_CorruptKey(t *testing.T) {
	artifacts := testProductArtifacts(t)
	dir := t.TempDir()
	require.NoError(t, artifacts.SaveTo(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "verifying.key"), []byte("not a key"), 0o644))

	_, err := LoadVerifierArtifacts(dir)
	require.ErrorIs(t, err, ErrKeyFormat)
}

// TestLoadManifest_WrongCurve 测试曲线不匹配返回ErrKeyFormat
func TestLoadManifest_WrongCurve(t *testing.T) {
	artifacts := testProductArtifacts(t)
	dir := t.TempDir()
	require.NoError(t, artifacts.SaveTo(dir))

	manifest := artifacts.Manifest
	manifest.Curve = "bls12_381"
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644))

	_, err = LoadVerifierArtifacts(dir)
	require.ErrorIs(t, err, ErrKeyFormat)
}

// TestLoadVerifierArtifacts_ManifestArityMismatch 测试vk与清单公开输入数不符即拒绝加载
func TestLoadVerifierArtifacts_ManifestArityMismatch(t *testing.T) {
	artifacts := testProductArtifacts(t)
	dir := t.TempDir()
	require.NoError(t, artifacts.SaveTo(dir))

	manifest := artifacts.Manifest
	manifest.NbPublic++
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644))

	// 形状不一致必须在加载时失败，而不是等到verify期
	_, err = LoadVerifierArtifacts(dir)
	require.ErrorIs(t, err, ErrKeyFormat)
}

// TestLoadProverArtifacts_ShapeCrossCheck 测试清单与约束系统形状交叉校验
func TestLoadProverArtifacts_ShapeCrossCheck(t *testing.T) {
	artifacts := testProductArtifacts(t)
	dir := t.TempDir()
	require.NoError(t, artifacts.SaveTo(dir))

	manifest := artifacts.Manifest
	manifest.CcsPublicVariables++
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644))

	_, err = LoadProverArtifacts(dir)
	require.ErrorIs(t, err, ErrKeyFormat)
}
