package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wikirace/internal/utils"
)

const (
	ContextPlayerID   = "playerID"
	ContextPlayerName = "playerName"
)

// AuthMiddleware 是一個 Gin 中間件，用於驗證請求的 JWT token 並將玩家資訊放入上下文。
// 瀏覽器的 WebSocket 無法設定標頭，因此也接受 token 查詢參數。
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if !(len(parts) == 2 && parts[0] == "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
				return
			}
			token = parts[1]
		}

		claims, err := tokens.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextPlayerID, claims.PlayerID)
		c.Set(ContextPlayerName, claims.Name)
		c.Next()
	}
}

// PlayerID 取出 AuthMiddleware 放入的玩家 ID
func PlayerID(c *gin.Context) string {
	return c.GetString(ContextPlayerID)
}

func PlayerName(c *gin.Context) string {
	return c.GetString(ContextPlayerName)
}
