package service

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library/cache"
	"library/config"
	"library/models"
)

const MAX_NUMBER_CACHED = 10

var ActivityCache = cache.CreateRedisCache(MAX_NUMBER_CACHED)

// CacheUserRequest records the request in the caller's activity log
// when a username query parameter is present and redis is configured.
func CacheUserRequest(c *gin.Context) {
	if config.RedisClient == nil {
		c.Next()
		return
	}

	username, ok := c.GetQuery("username")
	if !ok {
		c.Next()
		return
	}

	userRequest := models.UserRequest{
		ID:     uuid.New().String(),
		Method: c.Request.Method,
		Route:  c.Request.URL.Path,
	}

	if request, err := json.Marshal(userRequest); err == nil {
		ActivityCache.Write(username, request)
	}

	c.Next()
}

func Activity(c *gin.Context) {
	if config.RedisClient == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "activity log is not configured"})
		return
	}

	username := c.Param("username")

	userRequests, err := ActivityCache.Read(username)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	requests := make([]models.UserRequest, 0, len(userRequests))
	for _, raw := range userRequests {
		var userRequest models.UserRequest
		if err := json.Unmarshal([]byte(raw), &userRequest); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		requests = append(requests, userRequest)
	}

	c.JSON(http.StatusOK, requests)
}
