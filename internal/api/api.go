package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/orderlink/importer/internal/api/handlers"
	"github.com/orderlink/importer/internal/api/middleware"
	"github.com/orderlink/importer/internal/importer"
)

// NewRouter builds the admin API. It exposes the same named operations the
// CLI does, plus a health probe.
func NewRouter(service *importer.Service, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	importHandler := handlers.NewImportHandler(service)
	apiGroup := router.Group("/api/v1")
	{
		apiGroup.POST("/imports/:brand/products", importHandler.ImportProducts)
		apiGroup.POST("/imports/:brand/customers", importHandler.ImportCustomers)
		apiGroup.POST("/salesmen/:brand/rebuild", importHandler.RebuildSalesmen)
		apiGroup.DELETE("/collections/:collection", importHandler.DeleteCollection)
	}

	return router
}
