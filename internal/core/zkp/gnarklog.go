package zkp

import (
	"io"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

// silenceGnarkLogger 临时禁用gnark库的内部日志输出
//
// gnark在编译/证明/验证期间会输出大量调试信息（compiling circuit、
// parsed circuit inputs等），会污染框架自身的日志流。调用方负责
// 在操作结束后调用返回的恢复函数。
func silenceGnarkLogger() func() {
	old := gnarklogger.Logger()
	discard := zerolog.New(io.Discard).Level(zerolog.Disabled)
	gnarklogger.Set(discard)
	return func() {
		gnarklogger.Set(old)
	}
}
