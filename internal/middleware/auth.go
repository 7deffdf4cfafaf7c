package middleware

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/studio/api/transport"
	"github.com/fastygo/studio/domain"
)

// Identity headers set from verified token claims. Client supplied values are discarded.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

// Middleware decorates a fasthttp handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// JWTAuth verifies an HMAC signed bearer token and forwards its user_id, username and role
// claims as identity headers.
func JWTAuth(secret string, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			ctx.Request.Header.Del(HeaderUserID)
			ctx.Request.Header.Del(HeaderUserName)
			ctx.Request.Header.Del(HeaderUserRole)

			tokenString := extractToken(ctx)
			if tokenString == "" {
				reject(ctx, fasthttp.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing bearer token")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				reject(ctx, fasthttp.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid token")
				return
			}

			claims, _ := token.Claims.(jwt.MapClaims)
			rawRole := claimString(claims, "role")
			if strings.TrimSpace(rawRole) == "" {
				reject(ctx, fasthttp.StatusForbidden, domain.ErrCodeForbidden, "missing role")
				return
			}
			role, ok := domain.ParseRole(rawRole)
			if !ok {
				reject(ctx, fasthttp.StatusForbidden, domain.ErrCodeForbidden, "unknown role")
				return
			}

			ctx.Request.Header.Set(HeaderUserID, claimString(claims, "user_id"))
			ctx.Request.Header.Set(HeaderUserName, claimString(claims, "username"))
			ctx.Request.Header.Set(HeaderUserRole, string(role))

			next(ctx)
		}
	}
}

// RequirePermission lets the request through only when the authenticated role grants perm.
// It must run inside JWTAuth.
func RequirePermission(perm domain.Permission) Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			role := domain.Role(ctx.Request.Header.Peek(HeaderUserRole))
			if !role.Can(perm) {
				reject(ctx, fasthttp.StatusForbidden, domain.ErrCodeForbidden, "missing permission "+string(perm))
				return
			}
			next(ctx)
		}
	}
}

func claimString(claims jwt.MapClaims, key string) string {
	if claims == nil {
		return ""
	}
	value, _ := claims[key].(string)
	return strings.TrimSpace(value)
}

func reject(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBodyString(transport.NewError(string(code), message, nil).String())
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
