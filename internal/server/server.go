// Package server 实现验证端编排器
//
// 🎯 **职责**：加载验证密钥，接收证明请求，把验证任务分发到有界
// 工作线程池，将每次尝试显式分类为 {Valid, Invalid, Error} 三态之一，
// 并恰好触发一个可插拔的反应回调。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/weisyn/zkvc/internal/core/zkp"
	"github.com/weisyn/zkvc/internal/server/middleware"
	"github.com/weisyn/zkvc/pkg/interfaces/log"
)

// Config 服务端配置
type Config struct {
	// ListenAddress 监听地址（如 127.0.0.1:65432）
	ListenAddress string

	// KeyDir 验证工件目录（verifying.key / manifest.json）
	KeyDir string

	// Workers 验证工作线程数
	Workers int

	// QueueSize 验证任务队列长度
	QueueSize int
}

// Handlers 三态反应回调
//
// 回调通过显式参数接收会话资源（依赖注入），而不是隐式捕获共享状态，
// 数据流因此可审计、可单独测试。每个回调都可为nil：缺席是空操作，不是失败。
type Handlers struct {
	// OnValid 有效证明回调；收到客户端标识、有序公开输入和会话资源
	OnValid func(clientID string, publicInputs []string, session *zkp.ChallengeStore) error

	// OnInvalid 无效证明回调；收到客户端标识与拒绝原因
	OnInvalid func(clientID string, reason string) error

	// OnError 错误回调；收到客户端标识与错误
	OnError func(clientID string, err error) error
}

// Server 验证端编排器
type Server struct {
	config     Config
	logger     log.Logger
	router     *gin.Engine
	httpServer *http.Server

	pool     *zkp.WorkerPool
	session  *zkp.ChallengeStore
	handlers Handlers
	metrics  *middleware.Metrics
}

// New 创建验证服务
//
// 验证密钥在此处加载：缺失或格式错误直接失败，进程不得在没有有效
// 密钥的情况下对外服务。
func New(config Config, logger log.Logger, session *zkp.ChallengeStore, handlers Handlers) (*Server, error) {
	artifacts, err := zkp.LoadVerifierArtifacts(config.KeyDir)
	if err != nil {
		return nil, err
	}
	logger.Infof("验证工件加载完成: circuit=%s, publicInputs=%d",
		artifacts.Manifest.Circuit, artifacts.Manifest.NbPublic)

	validator := zkp.NewValidator(logger, artifacts)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config:   config,
		logger:   logger,
		router:   router,
		pool:     zkp.NewWorkerPool(logger, validator, config.Workers, config.QueueSize),
		session:  session,
		handlers: handlers,
		metrics:  middleware.NewMetrics(),
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes 设置HTTP路由
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.AccessLog(s.logger))

	v1 := s.router.Group("/api/v1")
	v1.POST("/verify", s.verifyHandler)
	v1.GET("/challenge", s.challengeHandler)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", s.metrics.Handler())
}

// Router 返回路由引擎（测试用）
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start 启动工作线程池与HTTP服务
func (s *Server) Start() error {
	s.pool.Start()

	s.httpServer = &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Infof("验证服务监听: %s", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("HTTP服务异常退出: %v", err)
		}
	}()
	return nil
}

// Stop 优雅停止HTTP服务与线程池
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.pool.Stop()
	return err
}

// RegisterLifecycle 把服务挂接到fx生命周期
func RegisterLifecycle(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop(ctx)
		},
	})
}

// ==================== 请求处理 ====================

// verifyHandler 处理证明验证请求
//
// 状态机：Decoding → Verifying → {Valid, Invalid, Error}。
// 载荷解析失败与公开输入解码失败都走Error出口，绝不冒充密码学拒绝。
func (s *Server) verifyHandler(c *gin.Context) {
	startTime := time.Now()

	var request zkp.ProofRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		result := &zkp.VerificationResult{
			Outcome: zkp.OutcomeError,
			Err:     zkp.WrapProtocolError("request payload", err),
		}
		s.respond(c, "unknown", result, startTime)
		return
	}

	result, err := s.pool.Submit(c.Request.Context(), &request)
	if err != nil {
		result = &zkp.VerificationResult{Outcome: zkp.OutcomeError, Err: err}
	}

	s.respond(c, request.ClientID, result, startTime)
}

// respond 分发反应回调并回写响应
//
// 每个请求恰好触发三个回调中的一个。有效证明的回调失败会把客户端
// 响应降级为Error，但日志明确保留"证明有效、业务处理失败"的区分——
// 运维必须能把它与"客户端说谎"区分开。
func (s *Server) respond(c *gin.Context, clientID string, result *zkp.VerificationResult, startTime time.Time) {
	var response *zkp.VerificationResponse
	status := http.StatusInternalServerError
	outcome := result.Outcome

	switch result.Outcome {
	case zkp.OutcomeValid:
		s.logger.Infof("证明有效: clientID=%s, requestID=%s", clientID, middleware.RequestIDFrom(c))
		if s.handlers.OnValid != nil {
			if err := s.handlers.OnValid(clientID, result.PublicInputs, s.session); err != nil {
				s.logger.Errorf("证明有效但反应回调失败: clientID=%s, cause=%v",
					clientID, zkp.WrapHandlerError(zkp.ResponseValid, err))
				response = zkp.NewErrorResponse("valid proof, reaction handler failed")
				outcome = zkp.OutcomeError
				break
			}
		}
		response = zkp.NewValidResponse(result.PublicInputs)
		status = http.StatusOK

	case zkp.OutcomeInvalid:
		reason := result.Reason
		if reason == "" {
			reason = zkp.DefaultInvalidReason
		}
		s.logger.Warnf("证明无效: clientID=%s, reason=%s", clientID, reason)
		if s.handlers.OnInvalid != nil {
			if err := s.handlers.OnInvalid(clientID, reason); err != nil {
				s.logger.Warnf("无效证明回调失败: clientID=%s, cause=%v", clientID, err)
			}
		}
		response = zkp.NewInvalidResponse(reason)
		status = http.StatusBadRequest

	default:
		s.logger.Errorf("验证出错: clientID=%s, cause=%v", clientID, result.Err)
		if s.handlers.OnError != nil {
			if err := s.handlers.OnError(clientID, result.Err); err != nil {
				s.logger.Warnf("错误回调失败: clientID=%s, cause=%v", clientID, err)
			}
		}
		response = zkp.NewErrorResponse(publicErrorMessage(result.Err))
	}

	s.metrics.ObserveOutcome(outcome.String(), time.Since(startTime))
	c.JSON(status, response)
}

// challengeHandler 返回当前挑战
func (s *Server) challengeHandler(c *gin.Context) {
	if s.session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no challenge configured"})
		return
	}
	challenge := s.session.Current()
	c.JSON(http.StatusOK, gin.H{
		"challenge_id": challenge.ID,
		"values":       challenge.Values,
	})
}

// publicErrorMessage 把内部错误折叠为客户端可见的短消息
//
// 客户端永远看不到内部路径、堆栈或后端原始错误串。
func publicErrorMessage(err error) string {
	switch {
	case err == nil:
		return "internal error"
	case errors.Is(err, zkp.ErrBadEncoding):
		return "malformed public input encoding"
	case errors.Is(err, zkp.ErrProtocol):
		return "malformed request payload"
	case errors.Is(err, zkp.ErrBackend):
		return "proof processing failed"
	case errors.Is(err, zkp.ErrQueueFull):
		return "server busy"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request aborted"
	default:
		return "internal error"
	}
}
