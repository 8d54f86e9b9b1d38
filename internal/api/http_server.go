package api

import (
	"context"
	"net/http"
	"time"

	"userapi/internal/apperr"
	"userapi/internal/auth"
	"userapi/internal/config"
	"userapi/internal/model"
	"userapi/internal/observability"
	"userapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg         config.Config
	repo        model.Repository
	authManager *auth.Manager
	errors      *ErrorNormalizer
	metrics     *observability.Prom

	// 服务层
	users *service.UserService
	roles *service.RoleService
	posts *service.PostService
}

// Options 可选依赖
type Options struct {
	Logger  *logrus.Logger
	Metrics *observability.Prom
	Hasher  *auth.Hasher
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, repo model.Repository, opts Options) (*HTTPHandler, error) {
	expiry := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, expiry)
	if err != nil {
		return nil, err
	}

	return &HTTPHandler{
		cfg:         cfg,
		repo:        repo,
		authManager: authManager,
		errors:      NewErrorNormalizer(cfg.IsProduction(), opts.Logger, opts.Metrics),
		metrics:     opts.Metrics,
		users:       service.NewUserService(repo, opts.Hasher, cfg.MaxPageSize),
		roles:       service.NewRoleService(repo),
		posts:       service.NewPostService(repo),
	}, nil
}

// Routes 注册全部路由与中间件
func (h *HTTPHandler) Routes(r *gin.Engine) {
	r.Use(RequestID())
	r.Use(CORSMiddleware())
	r.Use(LoggingMiddleware())
	if h.metrics != nil {
		r.Use(h.metrics.GinHandleMiddleware())
	}
	r.Use(gin.CustomRecovery(h.recover))
	r.Use(h.errors.Middleware())

	r.GET("/", h.Ping)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiGroup := r.Group("/api")
	apiGroup.Use(h.BearerMiddleware())

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/login", h.Login)
	authGroup.GET("/me", h.RequireAuth(), h.Me)

	users := apiGroup.Group("/users")
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
	users.GET("/:id", h.GetUser)
	users.PATCH("/:id", h.UpdateUser)
	users.DELETE("/:id", h.DeleteUser)
	users.GET("/:id/roles", h.ListUserRoles)
	users.POST("/:id/roles", h.AssignRoles)
	users.DELETE("/:id/roles/:roleId", h.RemoveUserRole)

	roles := apiGroup.Group("/roles")
	roles.GET("", h.ListRoles)
	roles.POST("", h.CreateRole)
	roles.GET("/:id", h.GetRole)
	roles.DELETE("/:id", h.DeleteRole)

	posts := apiGroup.Group("/posts")
	posts.GET("", h.ListPosts)
	posts.POST("", h.CreatePost)
	posts.GET("/:id", h.GetPost)
	posts.DELETE("/:id", h.DeletePost)

	r.NoRoute(func(c *gin.Context) {
		h.fail(c, apperr.NotFound("Route %s %s not found", c.Request.Method, c.Request.URL.Path))
	})
}

// Ping 检查存储连接
func (h *HTTPHandler) Ping(c *gin.Context) {
	ctx, cancel := h.queryContext(c)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Database connection is healthy"})
}

// queryContext 为一次请求内的存储调用设置超时
func (h *HTTPHandler) queryContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := h.cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// fail 交由 ErrorNormalizer 中间件统一输出
func (h *HTTPHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func (h *HTTPHandler) recover(c *gin.Context, recovered any) {
	logrus.WithField("panic", recovered).Error("panic while handling request")
	h.errors.Respond(c, apperr.WithStatus(http.StatusInternalServerError, "Internal server error"))
}
