package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/fishryanie/GC-sub000/internal/service"
	"github.com/fishryanie/GC-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys set by RequireRole
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextUserName = "userName"
)

const sessionCookie = "access_token"

// Auth validates session tokens issued by service.AuthService.
type Auth struct {
	secret       []byte
	secureCookie bool
}

func NewAuth(secret []byte, secureCookie bool) *Auth {
	return &Auth{secret: secret, secureCookie: secureCookie}
}

// SetSessionCookie stores the token as an HttpOnly cookie.
func (a *Auth) SetSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	if a.secureCookie {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(sessionCookie, token, int(ttl.Seconds()), "/", "", a.secureCookie, true)
}

// ClearSessionCookie removes the session cookie.
func (a *Auth) ClearSessionCookie(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	if a.secureCookie {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(sessionCookie, "", -1, "/", "", a.secureCookie, true)
}

// ParseToken returns the actor carried by a session token.
func (a *Auth) ParseToken(tokenString string) (service.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return service.Actor{}, err
	}
	if !token.Valid {
		return service.Actor{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return service.Actor{}, jwt.ErrTokenInvalidClaims
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return service.Actor{}, jwt.ErrTokenInvalidSubject
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return service.Actor{}, jwt.ErrTokenInvalidClaims
	}
	name, _ := claims["name"].(string)
	return service.Actor{SellerID: id, Role: role, Name: name}, nil
}

// RequireRole validates the session and checks the caller's role is in allowedRoles.
// An empty allowedRoles accepts any authenticated caller.
func (a *Auth) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try cookie first, fallback to Authorization header
		tokenString, cookieErr := c.Cookie(sessionCookie)
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.CodedError(http.StatusUnauthorized, "Unauthorized", "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.CodedError(http.StatusUnauthorized, "Unauthorized", "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		actor, err := a.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.CodedError(http.StatusUnauthorized, "Unauthorized", "Invalid token"))
			return
		}

		if len(allowedRoles) > 0 && !hasRole(actor.Role, allowedRoles) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.CodedError(http.StatusForbidden, "Forbidden", "Access denied: insufficient permissions"))
			return
		}

		c.Set(ContextUserID, actor.SellerID)
		c.Set(ContextUserRole, actor.Role)
		c.Set(ContextUserName, actor.Name)

		c.Next()
	}
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// ActorFrom reads the actor RequireRole stored on the context.
func ActorFrom(c *gin.Context) (service.Actor, bool) {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return service.Actor{}, false
	}
	sellerID, ok := id.(uuid.UUID)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{
		SellerID: sellerID,
		Role:     c.GetString(ContextUserRole),
		Name:     c.GetString(ContextUserName),
	}, true
}
