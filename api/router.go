package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/fyerfyer/label-compare-system/api/handler"
	"github.com/fyerfyer/label-compare-system/api/middleware"
	"github.com/fyerfyer/label-compare-system/api/model"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(
	docHandler *handler.DocumentHandler,
	compareHandler *handler.CompareHandler,
	reportHandler *handler.ReportHandler,
) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = model.RegisterValidations(v)
	}

	router := gin.New()

	// 应用全局中间件
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetTraceID())

	api := router.Group("/api")
	{
		// 文档管理API
		docGroup := api.Group("/documents")
		{
			// 获取文档列表 - GET /api/documents
			docGroup.GET("", docHandler.ListDocuments)

			// 获取文档详情 - GET /api/documents/:id
			docGroup.GET("/:id", docHandler.GetDocument)

			// 删除文档 - DELETE /api/documents/:id
			docGroup.DELETE("/:id", docHandler.DeleteDocument)
		}

		// 比较API
		compareGroup := api.Group("/compare")
		{
			// 词法比较 - POST /api/compare/lexical
			compareGroup.POST("/lexical", compareHandler.LexicalCompare)

			// 语义比较 - POST /api/compare/semantic
			compareGroup.POST("/semantic", compareHandler.SemanticCompare)

			// 差异解释 - POST /api/compare/explain
			compareGroup.POST("/explain", compareHandler.Explain)

			// 报告API
			if reportHandler != nil {
				// 提交报告任务 - POST /api/compare/reports
				compareGroup.POST("/reports", reportHandler.CreateReport)

				// 查询报告 - GET /api/compare/reports/:id
				compareGroup.GET("/reports/:id", reportHandler.GetReport)
			}
		}

		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors 跨域资源共享中间件
// 需要支持跨域请求时启用
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
