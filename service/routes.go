package service

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes() *gin.Engine {
	routes := gin.Default()

	routes.GET("/activity/:username", Activity)
	routes.PUT("/user", CreateUser)

	cachedRoutes := routes.Group("/")
	{
		cachedRoutes.Use(CacheUserRequest)

		cachedRoutes.GET("/books", ListBooks)
		cachedRoutes.GET("/search", SearchBooks)
		cachedRoutes.GET("/api/search", QuickSearch)
		cachedRoutes.PUT("/book", CreateBook)
		cachedRoutes.GET("/book/:id", GetBook)
		cachedRoutes.POST("/book/:id", UpdateBook)
		cachedRoutes.DELETE("/book/:id", DeleteBook)
		cachedRoutes.POST("/borrow/:id", Borrow)
		cachedRoutes.POST("/return/:id", Return)
		cachedRoutes.GET("/my-books", MyBooks)
		cachedRoutes.GET("/recommendations", Recommendations)
		cachedRoutes.GET("/store", Store)
	}

	return routes
}
