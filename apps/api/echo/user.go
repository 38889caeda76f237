package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mprata/pollclass/core"
	"github.com/mprata/pollclass/core/user"
)

const (
	msgRegisterSuccess    = "Usuário registrado com sucesso."
	msgOnlyProfessors     = "Somente professores podem se cadastrar."
	msgLoginSuccess       = "Login realizado com sucesso."
	msgTokenRefreshed     = "Token renovado com sucesso."
	msgInvalidCredentials = "Credenciais inválidas."
	msgAuthValidation     = "Erro na validação dos dados."
)

type authApi struct {
	conf       *core.Config
	svc        user.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
}

func registerAuthAPI(app *echo.Echo, deps ServerDeps) {
	api := authApi{
		conf:       deps.Conf,
		svc:        deps.UserSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	g := app.Group("/auth")
	g.POST("/register", api.register)
	g.POST("/login", api.login)
	g.POST("/refresh", api.refresh)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	authPayload struct {
		Success bool       `json:"success"`
		Message string     `json:"message"`
		Tokens  *TokenPair `json:"tokens,omitempty"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

// Handlers

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		if fldErrs := fieldErrors(err, api.translator); fldErrs != nil {
			return &apiFailError{code: http.StatusBadRequest, message: msgAuthValidation, errors: fldErrs}
		}
		return err
	}

	// self-registration is professor-only; students join via Telegram
	if !data.IsProfessor {
		return core.NewPermissionError(
			errors.New(msgOnlyProfessors),
			core.FieldError{Field: "is_professor", Error: "Permissão negada para este tipo de usuário."},
		)
	}

	usr, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	tokens, err := GenerateTokenPair(api.conf, usr)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, dataResponse{Data: authPayload{
		Success: true,
		Message: msgRegisterSuccess,
		Tokens:  tokens,
	}})
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		if fldErrs := fieldErrors(err, api.translator); fldErrs != nil {
			return &apiFailError{code: http.StatusBadRequest, message: msgAuthValidation, errors: fldErrs}
		}
		return err
	}

	usr, err := authenticate(data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	if usr, err = api.svc.SetLastLogin(usr); err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}
	tokens, err := GenerateTokenPair(api.conf, usr)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, dataResponse{Data: authPayload{
		Success: true,
		Message: msgLoginSuccess,
		Tokens:  tokens,
	}})
}

func (api *authApi) refresh(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		if fldErrs := fieldErrors(err, api.translator); fldErrs != nil {
			return &apiFailError{code: http.StatusBadRequest, message: msgAuthValidation, errors: fldErrs}
		}
		return err
	}

	claims, err := parseRefreshToken(api.conf, data.RefreshToken)
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return invalidCredentials("refresh_token", "Token inválido ou expirado.")
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if usr.IsActive != nil && !*usr.IsActive {
		return errAccountDeactivated
	}

	tokens, err := GenerateTokenPair(api.conf, usr)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, dataResponse{Data: authPayload{
		Success: true,
		Message: msgTokenRefreshed,
		Tokens:  tokens,
	}})
}
