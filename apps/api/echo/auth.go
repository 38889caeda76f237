package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/mprata/pollclass/core"
	"github.com/mprata/pollclass/core/user"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	jwtContextKey = "userToken"
)

var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	IsProfessor bool   `json:"is_professor,omitempty"`
	TokenType   string `json:"token_type"`
}

// TokenPair is the access/refresh token pair issued on register and login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// newJWTConfig is the JWT auth middleware config.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	}
}

func GetUserClaims(conf *core.Config, usr user.User, tokenType string) *Claims {
	now := time.Now()

	delta := conf.Server.JWTExpirationDelta
	if tokenType == tokenTypeRefresh {
		delta = conf.Server.JWTRefreshExpirationDelta
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(delta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:        usr.Name,
		Email:       usr.Email,
		IsProfessor: usr.IsProfessor(),
		TokenType:   tokenType,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func GenerateTokenPair(conf *core.Config, usr user.User) (*TokenPair, error) {
	access, err := GenerateToken(conf, GetUserClaims(conf, usr, tokenTypeAccess))
	if err != nil {
		return nil, err
	}
	refresh, err := GenerateToken(conf, GetUserClaims(conf, usr, tokenTypeRefresh))
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// authenticate checks the credentials without revealing which one failed in the
// top-level message; the offending field is reported in the errors map.
func authenticate(email, pwd string, svc user.ServiceInterface) (user.User, error) {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, invalidCredentials("email", "Usuário não encontrado.")
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, invalidCredentials("password", "Senha incorreta.")
	}
	if usr.IsActive != nil && !*usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	return usr, nil
}

var errAccountDeactivated = core.NewPermissionError(errors.New("Conta desativada."))

func invalidCredentials(field, detail string) error {
	return core.NewAuthenticationError(
		errors.New(msgInvalidCredentials),
		core.FieldError{Field: field, Error: detail},
	)
}

// parseRefreshToken validates a refresh token string and returns its claims.
func parseRefreshToken(conf *core.Config, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil || !token.Valid || claims.TokenType != tokenTypeRefresh {
		return nil, invalidCredentials("refresh_token", "Token inválido ou expirado.")
	}
	return claims, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
