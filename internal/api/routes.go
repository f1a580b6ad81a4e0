package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.POST("/compare", handler.Compare)
		api.POST("/compare/async", handler.CompareAsync)
		api.GET("/records", handler.GetRecords)
		api.GET("/summary", handler.GetSummary)
		api.DELETE("/records", handler.ClearRecords)
	}
}
