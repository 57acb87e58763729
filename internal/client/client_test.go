package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkvc/internal/core/zkp"
	infralog "github.com/weisyn/zkvc/internal/infrastructure/log"
	"github.com/weisyn/zkvc/pkg/circuits"
)

// ============================================================================
// client.go 测试
// ============================================================================

var (
	clientKeysOnce sync.Once
	clientKeyDir   string
	clientKeysErr  error
)

// testClientKeys 生成并落盘证明密钥（跨用例共享）
func testClientKeys(t *testing.T) string {
	t.Helper()
	clientKeysOnce.Do(func() {
		var artifacts *zkp.SetupArtifacts
		artifacts, clientKeysErr = zkp.GenerateKeys("multiplier", &circuits.Multiplier{})
		if clientKeysErr != nil {
			return
		}
		clientKeyDir, clientKeysErr = os.MkdirTemp("", "zkvc-client-keys-")
		if clientKeysErr != nil {
			return
		}
		clientKeysErr = artifacts.SaveTo(clientKeyDir)
	})
	require.NoError(t, clientKeysErr)
	return clientKeyDir
}

// stubServer 返回固定验证响应的HTTP桩
func stubServer(t *testing.T, status int, response any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/verify", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var request zkp.ProofRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.NotEmpty(t, request.ClientID)
		assert.NotEmpty(t, request.Proof)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	t.Cleanup(server.Close)
	return server
}

// TestClient_MissingKeysFailFast 测试密钥缺失时客户端拒绝创建
func TestClient_MissingKeysFailFast(t *testing.T) {
	_, err := New(Config{ServerURL: "http://127.0.0.1:1", KeyDir: t.TempDir()}, infralog.NewNop())
	require.ErrorIs(t, err, zkp.ErrKeyMissing)
}

// TestClient_DefaultClientID 测试未指定时自动生成客户端标识
func TestClient_DefaultClientID(t *testing.T) {
	c, err := New(Config{ServerURL: "http://127.0.0.1:1", KeyDir: testClientKeys(t)}, infralog.NewNop())
	require.NoError(t, err)
	assert.NotEmpty(t, c.ClientID())
}

// TestClient_ProveAndSend_Valid 测试生成证明并收到Valid响应
func TestClient_ProveAndSend_Valid(t *testing.T) {
	server := stubServer(t, http.StatusOK, zkp.NewValidResponse([]string{"3", "5", "15"}))

	c, err := New(Config{ServerURL: server.URL, KeyDir: testClientKeys(t)}, infralog.NewNop())
	require.NoError(t, err)

	response, err := c.ProveAndSend(context.Background(), &circuits.Multiplier{X: 3, Y: 5})
	require.NoError(t, err)
	assert.Equal(t, zkp.ResponseValid, response.Type)
	assert.Equal(t, []string{"3", "5", "15"}, response.Result)
}

// TestClient_ProveAndSend_InvalidResponse 测试Invalid响应原样交给调用方
func TestClient_ProveAndSend_InvalidResponse(t *testing.T) {
	server := stubServer(t, http.StatusBadRequest, zkp.NewInvalidResponse(zkp.DefaultInvalidReason))

	c, err := New(Config{ServerURL: server.URL, KeyDir: testClientKeys(t)}, infralog.NewNop())
	require.NoError(t, err)

	response, err := c.ProveAndSend(context.Background(), &circuits.Multiplier{X: 3, Y: 5})
	require.NoError(t, err)
	assert.Equal(t, zkp.ResponseInvalid, response.Type)
	assert.Equal(t, zkp.DefaultInvalidReason, response.Reason)
}

// TestClient_ProveAndSend_UnknownOutcome 测试未知结果类型是协议错误
func TestClient_ProveAndSend_UnknownOutcome(t *testing.T) {
	server := stubServer(t, http.StatusOK, map[string]string{"type": "Maybe"})

	c, err := New(Config{ServerURL: server.URL, KeyDir: testClientKeys(t)}, infralog.NewNop())
	require.NoError(t, err)

	_, err = c.ProveAndSend(context.Background(), &circuits.Multiplier{X: 3, Y: 5})
	require.ErrorIs(t, err, zkp.ErrProtocol)
}

// TestClient_ProveAndSend_ServerDown 测试连接失败是传输错误
func TestClient_ProveAndSend_ServerDown(t *testing.T) {
	server := stubServer(t, http.StatusOK, zkp.NewValidResponse(nil))
	url := server.URL
	server.Close()

	c, err := New(Config{ServerURL: url, KeyDir: testClientKeys(t)}, infralog.NewNop())
	require.NoError(t, err)

	_, err = c.ProveAndSend(context.Background(), &circuits.Multiplier{X: 3, Y: 5})
	require.ErrorIs(t, err, zkp.ErrTransport)
}

// TestClient_ProveAndSend_ShapeMismatch 测试形状不符在任何网络活动前失败
func TestClient_ProveAndSend_ShapeMismatch(t *testing.T) {
	contacted := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contacted = true
	}))
	t.Cleanup(server.Close)

	c, err := New(Config{ServerURL: server.URL, KeyDir: testClientKeys(t)}, infralog.NewNop())
	require.NoError(t, err)

	// factorization 形状(1公开+2私有)与 multiplier 密钥(3公开)不符
	_, err = c.ProveAndSend(context.Background(), &circuits.Factorization{P1: 3, P2: 5})
	require.ErrorIs(t, err, zkp.ErrShapeMismatch)
	assert.False(t, contacted)
}

// TestClient_SnapshotWritten 测试证明请求快照落盘
func TestClient_SnapshotWritten(t *testing.T) {
	server := stubServer(t, http.StatusOK, zkp.NewValidResponse([]string{"3", "5", "15"}))
	snapshot := filepath.Join(t.TempDir(), "proof.json")

	c, err := New(Config{
		ServerURL:         server.URL,
		KeyDir:            testClientKeys(t),
		ProofSnapshotPath: snapshot,
		ClientID:          "client-1",
	}, infralog.NewNop())
	require.NoError(t, err)

	_, err = c.ProveAndSend(context.Background(), &circuits.Multiplier{X: 3, Y: 5})
	require.NoError(t, err)

	loaded, err := zkp.LoadSnapshot(snapshot)
	require.NoError(t, err)
	assert.Equal(t, "client-1", loaded.ClientID)
	assert.Equal(t, []string{"3", "5", "15"}, loaded.PublicInputs)
}

// TestClient_FetchChallenge 测试拉取当前挑战
func TestClient_FetchChallenge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/challenge", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"challenge_id": "abc",
			"values":       []string{"7", "11"},
		})
	}))
	t.Cleanup(server.Close)

	c, err := New(Config{ServerURL: server.URL, KeyDir: testClientKeys(t)}, infralog.NewNop())
	require.NoError(t, err)

	challenge, err := c.FetchChallenge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", challenge.ID)
	assert.Equal(t, []string{"7", "11"}, challenge.Values)
}
