package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	actorIdHeader   = "X-Actor-Id"
	actorNameHeader = "X-Actor-Name"

	callerKey = "caller"
)

// ServiceTokenAuth checks the HS256 bearer token minted for the chat-command
// layer and the stats ingest. An empty secret disables the check.
func ServiceTokenAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || raw == "" {
			WriteAPIErrJSON(c, http.StatusUnauthorized, Unauthorized)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			WriteAPIErrJSON(c, http.StatusUnauthorized, Unauthorized)
			return
		}

		c.Set(callerKey, claims.Subject)
		c.Next()
	}
}

type actor struct {
	Id   string
	Name string
}

// actorFrom reads the acting chat user. A false result has already been
// answered with a 400.
func actorFrom(c *gin.Context) (actor, bool) {
	id := strings.TrimSpace(c.GetHeader(actorIdHeader))
	if id == "" {
		WriteAPIErrJSON(c, http.StatusBadRequest, MissingActor)
		return actor{}, false
	}
	return actor{Id: id, Name: strings.TrimSpace(c.GetHeader(actorNameHeader))}, true
}
