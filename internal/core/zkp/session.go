package zkp

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/weisyn/zkvc/pkg/interfaces/log"
)

// ==================== 挑战/会话状态 ====================
//
// 🎯 **职责**：保存"客户端当前必须满足什么"的进程级可变状态。
// 服务端启动时初始化，每个到达请求读取，每个验证有效的证明至多
// 改写一次。旋转采用单写者互斥纪律（旋转相对读取稀少，不值得
// 无锁技巧），并发验证任务始终观察到一致快照。

// Challenge 一个挑战快照
type Challenge struct {
	// ID 挑战标识，用于日志关联
	ID string

	// Values 编码后的挑战域元素（与公开输入同一编码）
	Values []string
}

// NewChallenge 构造带新鲜标识的挑战
func NewChallenge(values []string) Challenge {
	return Challenge{
		ID:     uuid.New().String(),
		Values: values,
	}
}

// ChallengeStore 挑战状态存储
type ChallengeStore struct {
	logger log.Logger

	mu      sync.RWMutex
	current Challenge

	rotations atomic.Uint64
}

// NewChallengeStore 创建挑战存储并设置初始挑战
func NewChallengeStore(logger log.Logger, initial Challenge) *ChallengeStore {
	return &ChallengeStore{
		logger:  logger,
		current: initial,
	}
}

// Current 返回当前挑战的一致快照（并发安全）
func (s *ChallengeStore) Current() Challenge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := Challenge{
		ID:     s.current.ID,
		Values: make([]string, len(s.current.Values)),
	}
	copy(snapshot.Values, s.current.Values)
	return snapshot
}

// RotateIf 条件旋转：仅当proved与当前挑战值完全一致时换入新挑战
//
// 只应从有效证明处理器内部调用。比较与换入在同一把写锁下完成，
// 两个客户端对同一挑战的竞争只有先到者触发旋转；后到者的证明虽然
// 对旧公开输入密码学有效，但此处判定为过期，绝不二次旋转。
func (s *ChallengeStore) RotateIf(proved []string, next func() Challenge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !equalValues(proved, s.current.Values) {
		s.logger.Warnf("有效证明但挑战过期/不符: challengeID=%s", s.current.ID)
		return false
	}

	fresh := next()
	s.logger.Infof("挑战旋转: %s -> %s", s.current.ID, fresh.ID)
	s.current = fresh
	s.rotations.Add(1)
	return true
}

// Rotations 返回累计旋转次数（测试与指标用）
func (s *ChallengeStore) Rotations() uint64 {
	return s.rotations.Load()
}

func equalValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
