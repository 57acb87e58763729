package zkp

import (
	"encoding/json"
	"fmt"
	"os"
)

// ==================== 线路载荷 ====================

// ProofRequest 证明请求信封
//
// 客户端编排器创建后即不可变；公开输入以规范十进制字符串按声明顺序排列，
// 离开电路上下文后仅凭位置标识，不再有名字。
type ProofRequest struct {
	// ClientID 客户端标识
	ClientID string `json:"client_id"`

	// Proof base64编码的不透明证明字节
	Proof string `json:"proof"`

	// PublicInputs 有序公开输入序列（编码后的域元素字符串）
	PublicInputs []string `json:"public_inputs"`
}

// 响应结果类型标签
const (
	ResponseValid   = "Valid"
	ResponseInvalid = "Invalid"
	ResponseError   = "Error"
)

// VerificationResponse 验证响应（标签联合）
//
// 三种结果互斥：Valid携带回显的公开输入，Invalid携带拒绝原因，
// Error携带短错误消息（不暴露内部路径或后端细节）。
type VerificationResponse struct {
	Type   string   `json:"type"`
	Result []string `json:"result,omitempty"`
	Reason string   `json:"reason,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// NewValidResponse 构造Valid响应
func NewValidResponse(result []string) *VerificationResponse {
	return &VerificationResponse{Type: ResponseValid, Result: result}
}

// NewInvalidResponse 构造Invalid响应
func NewInvalidResponse(reason string) *VerificationResponse {
	return &VerificationResponse{Type: ResponseInvalid, Reason: reason}
}

// NewErrorResponse 构造Error响应
func NewErrorResponse(msg string) *VerificationResponse {
	return &VerificationResponse{Type: ResponseError, Error: msg}
}

// ==================== 审计快照 ====================

// SaveSnapshot 把证明请求以线路JSON格式落盘（审计/重放工具输入）
func (r *ProofRequest) SaveSnapshot(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal proof request: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write proof request snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot 从磁盘读取证明请求快照
func LoadSnapshot(path string) (*ProofRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, WrapKeyMissingError(path)
		}
		return nil, fmt.Errorf("read proof request snapshot: %w", err)
	}
	var req ProofRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, WrapProtocolError("proof request snapshot", err)
	}
	return &req, nil
}
