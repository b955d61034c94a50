package middleware

import (
	"fmt"
	"net/http"

	"CampusEvents/internal/auth"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act
`

// Authorizer decides whether a role may call a route. Roles are granted
// capabilities through g lines; capabilities are granted routes through p lines.
type Authorizer struct {
	enforcer *casbin.Enforcer
	logger   *zap.Logger
}

func NewAuthorizer(logger *zap.Logger) (*Authorizer, error) {
	return NewAuthorizerWithPolicy(rbacPolicy, logger)
}

func NewAuthorizerWithPolicy(policy string, logger *zap.Logger) (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(policy))
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	policies, _ := enforcer.GetPolicy()
	logger.Info("RBAC policy loaded", zap.Int("rules", len(policies)))
	return &Authorizer{enforcer: enforcer, logger: logger}, nil
}

// Allowed reports whether role may perform method on the route pattern path.
func (a *Authorizer) Allowed(role, path, method string) (bool, error) {
	return a.enforcer.Enforce(role, path, method)
}

// Middleware must run after JWTMiddleware. The object checked is the
// registered route pattern, so path parameters never reach the policy.
func (a *Authorizer) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := auth.ClaimsFrom(c)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
			}
			allowed, err := a.Allowed(claims.Role, c.Path(), c.Request().Method)
			if err != nil {
				a.logger.Error("Casbin enforce error", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "RBAC system error"})
			}
			if !allowed {
				a.logger.Debug("Casbin denied",
					zap.String("role", claims.Role),
					zap.String("path", c.Path()),
					zap.String("method", c.Request().Method))
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: insufficient permissions"})
			}
			return next(c)
		}
	}
}
