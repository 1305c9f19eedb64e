package moments

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/google/uuid"
	"github.com/momentkit/go-moments/codeinput"
)

// DefaultVerificationCookie holds the pending verification ID between the
// sign-up and verify steps.
const DefaultVerificationCookie = "moments_verification"

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	mw := controller.Middleware

	app.Get(controller.Routes.SignIn, controller.SignInShow, mw...).
		SetName("sign-in.get")
	app.Post(controller.Routes.SignIn, controller.SignInPost, mw...).
		SetName("sign-in.post")

	app.Get(controller.Routes.SignOut, controller.LogOut).
		SetName("sign-out.get")

	app.Get(controller.Routes.SignUp, controller.SignUpShow, mw...).
		SetName("sign-up.get")
	app.Post(controller.Routes.SignUp, controller.SignUpPost, mw...).
		SetName("sign-up.post")

	app.Get(controller.Routes.Verify, controller.VerifyShow, mw...).
		SetName("sign-up-verify.get")
	app.Post(controller.Routes.Verify, controller.VerifyPost, mw...).
		SetName("sign-up-verify.post")

	app.Post(controller.Routes.CodeInput, controller.CodeInputEvent, mw...).
		SetName("sign-up-verify.code-input")

	return controller
}

type AuthControllerRoutes struct {
	SignIn    string
	SignOut   string
	SignUp    string
	Verify    string
	CodeInput string
}

type AuthControllerViews struct {
	SignIn string
	SignUp string
	Verify string
}

type AuthController struct {
	Debug              bool
	Logger             Logger
	Repo               RepositoryManager
	Routes             *AuthControllerRoutes
	Views              *AuthControllerViews
	Auther             HTTPAuthenticator
	ErrorHandler       router.ErrorHandler
	CodeSender         CodeSender
	CodeLength         int
	CodeTTL            time.Duration
	UseHashid          bool
	VerificationCookie string
	// Middleware runs on every form route, sign out excluded
	Middleware   []router.MiddlewareFunc
	activitySink ActivitySink
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Logger = logger
		return ac
	}
}

func WithRepositoryManager(repo RepositoryManager) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Repo = repo
		return ac
	}
}

func WithHTTPAuthenticator(auther HTTPAuthenticator) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Auther = auther
		return ac
	}
}

func WithCodeSender(sender CodeSender) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.CodeSender = sender
		return ac
	}
}

// WithCodeSettings sets the verification code length and lifetime
func WithCodeSettings(length int, ttl time.Duration) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		if length > 0 {
			ac.CodeLength = length
		}
		if ttl > 0 {
			ac.CodeTTL = ttl
		}
		return ac
	}
}

func WithHashidUserIDs(enabled bool) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.UseHashid = enabled
		return ac
	}
}

func WithControllerActivitySink(sink ActivitySink) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.activitySink = normalizeActivitySink(sink)
		return ac
	}
}

// WithRouteMiddleware adds middleware, e.g. CSRF protection, to the form routes
func WithRouteMiddleware(mw ...router.MiddlewareFunc) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Middleware = append(ac.Middleware, mw...)
		return ac
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Debug = debug
		return ac
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		CodeLength:   DefaultCodeLength,
		CodeTTL:      DefaultCodeTTL,
		Routes: &AuthControllerRoutes{
			SignIn:    SignIn,
			SignOut:   "/sign-out",
			SignUp:    SignUp,
			Verify:    SignUp + "/verify",
			CodeInput: SignUp + "/verify/code-input",
		},
		Views: &AuthControllerViews{
			SignIn: "sign_in",
			SignUp: "sign_up",
			Verify: "verify",
		},
		VerificationCookie: DefaultVerificationCookie,
		activitySink:       noopActivitySink{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.CodeSender == nil {
		c.CodeSender = LogCodeSender(c.Logger, false)
	}

	return c
}

func (a *AuthController) SignInShow(ctx router.Context) error {
	return ctx.Render(a.Views.SignIn, MergeTemplateData(ctx, router.ViewContext{
		"errors": nil,
		"record": nil,
	}))
}

// SignInStatus is the outcome of a sign-in attempt
type SignInStatus string

const (
	SignInComplete          SignInStatus = "complete"
	SignInNeedsVerification SignInStatus = "needs_verification"
	SignInBlocked           SignInStatus = "blocked"
)

// LoginRequest payload
type LoginRequest struct {
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

func (r LoginRequest) GetPassword() string {
	return r.Password
}

func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) SignInPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign in parse payload", "error", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse form").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.renderSignIn(ctx, payload, FormatValidationErrorToMap(err), "")
	}

	if a.Debug {
		a.Logger.Debug("sign in payload", "email", payload.Email, "remember_me", payload.RememberMe)
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		if status, ok := signInStatusFromError(err); ok {
			return a.renderSignIn(ctx, payload, nil, fmt.Sprintf("Sign-in not complete: %s", status))
		}
		return a.renderSignIn(ctx, payload, nil, FormatError(err))
	}

	redirect := a.Auther.GetRedirect(ctx, Home)
	return ctx.Redirect(redirect, http.StatusSeeOther)
}

func (a *AuthController) renderSignIn(ctx router.Context, payload *LoginRequest, validationErrs map[string]string, message string) error {
	record := router.ViewContext{}
	if payload != nil {
		record["email"] = payload.Email
		record["remember_me"] = payload.RememberMe
	}

	return ctx.Render(a.Views.SignIn, MergeTemplateData(ctx, router.ViewContext{
		"record":     record,
		"validation": validationErrs,
		"error":      message,
	}))
}

func signInStatusFromError(err error) (SignInStatus, bool) {
	switch {
	case errors.Is(err, ErrAccountPending):
		return SignInNeedsVerification, true
	case errors.Is(err, ErrTooManyLoginAttempts), errors.Is(err, ErrAccountDisabled):
		return SignInBlocked, true
	}
	return "", false
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.Redirect(Home, http.StatusTemporaryRedirect)
}

func (a *AuthController) SignUpShow(ctx router.Context) error {
	return ctx.Render(a.Views.SignUp, MergeTemplateData(ctx, router.ViewContext{
		"errors": map[string]string{},
		"record": router.ViewContext{},
	}))
}

// SignUpPayload is the sign-up form payload
type SignUpPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (r SignUpPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) SignUpPost(ctx router.Context) error {
	payload := new(SignUpPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign up parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Render(a.Views.SignUp, MergeTemplateData(ctx, router.ViewContext{
			"record": router.ViewContext{"email": payload.Email},
			"error":  "Failed to parse form",
		}))
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.SignUp, MergeTemplateData(ctx, router.ViewContext{
			"record":     router.ViewContext{"email": payload.Email},
			"validation": FormatValidationErrorToMap(err),
		}))
	}

	var created *SignUpCreateResponse
	err := NewSignUpCreateHandler(a.Repo).Execute(ctx.Context(), SignUpCreateMessage{
		Email:     payload.Email,
		Password:  payload.Password,
		UseHashid: a.UseHashid,
		OnResponse: func(r *SignUpCreateResponse) {
			created = r
		},
	})
	if err != nil {
		a.Logger.Error("sign up create", "error", err)
		return a.renderSignUpError(ctx, payload, err)
	}

	recordActivity(ctx.Context(), a.activitySink, a.Logger, ActivityEvent{
		EventType: ActivityEventSignUpCreated,
		Actor:     ActorRef{ID: created.UserID.String(), Type: "user"},
		UserID:    created.UserID.String(),
		Metadata:  map[string]any{"status": created.Status},
	})

	var prepared *PrepareVerificationResponse
	err = NewPrepareVerificationHandler(a.Repo, a.CodeSender).Execute(ctx.Context(), PrepareVerificationMessage{
		UserID:     created.UserID,
		Strategy:   StrategyEmailCode,
		CodeLength: a.CodeLength,
		TTL:        a.CodeTTL,
		OnResponse: func(r *PrepareVerificationResponse) {
			prepared = r
		},
	})
	if err != nil {
		a.Logger.Error("sign up prepare verification", "error", err)
		return a.renderSignUpError(ctx, payload, err)
	}

	recordActivity(ctx.Context(), a.activitySink, a.Logger, ActivityEvent{
		EventType: ActivityEventVerificationPrepared,
		Actor:     ActorRef{Type: "system"},
		UserID:    created.UserID.String(),
		Metadata: map[string]any{
			"strategy":   StrategyEmailCode,
			"expires_at": prepared.ExpiresAt,
		},
	})

	if a.Debug {
		a.Logger.Debug("sign up verification prepared", "response", print.MaybePrettyJSON(prepared))
	}

	ctx.Cookie(&router.Cookie{
		Name:     a.VerificationCookie,
		Value:    prepared.VerificationID.String(),
		Expires:  prepared.ExpiresAt,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})

	return a.renderVerify(ctx, prepared.Email, nil, "")
}

func (a *AuthController) renderSignUpError(ctx router.Context, payload *SignUpPayload, err error) error {
	return flash.WithError(ctx, router.ViewContext{
		"error_message":  err.Error(),
		"system_message": "Error creating account",
	}).Render(a.Views.SignUp, MergeTemplateData(ctx, router.ViewContext{
		"record": router.ViewContext{"email": payload.Email},
		"error":  FormatError(err),
	}))
}

func (a *AuthController) VerifyShow(ctx router.Context) error {
	if ctx.Cookies(a.VerificationCookie) == "" {
		return ctx.Redirect(a.Routes.SignUp, http.StatusFound)
	}
	return a.renderVerify(ctx, "", nil, "")
}

// VerifyPayload carries either the individual slots or the joined code
type VerifyPayload struct {
	Digits []string `form:"digits" json:"digits"`
	Code   string   `form:"code" json:"code"`
}

// Assemble returns the code through the same sanitization the input applies
func (r VerifyPayload) Assemble(length int) string {
	if len(r.Digits) > 0 {
		return codeinput.Assemble(length, r.Digits)
	}
	in := codeinput.New(codeinput.WithLength(length), codeinput.WithValue(codeinput.Digits(r.Code)))
	return in.Value()
}

func (a *AuthController) VerifyPost(ctx router.Context) error {
	rawID := ctx.Cookies(a.VerificationCookie)
	verificationID, err := uuid.Parse(rawID)
	if err != nil {
		return ctx.Redirect(a.Routes.SignUp, http.StatusSeeOther)
	}

	payload := new(VerifyPayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("verify parse payload", "error", err)
		return a.renderVerify(ctx, "", nil, "Failed to parse form")
	}

	code := payload.Assemble(a.CodeLength)
	if len(code) != a.CodeLength {
		return a.renderVerify(ctx, "", payload.Digits, fmt.Sprintf("Enter the %d digit code.", a.CodeLength))
	}

	var resp *AttemptVerificationResponse
	err = NewAttemptVerificationHandler(a.Repo).Execute(ctx.Context(), AttemptVerificationMessage{
		VerificationID: verificationID,
		Code:           code,
		OnResponse: func(r *AttemptVerificationResponse) {
			resp = r
		},
	})
	if err != nil {
		a.Logger.Error("verify attempt", "error", err)
		recordActivity(ctx.Context(), a.activitySink, a.Logger, ActivityEvent{
			EventType: ActivityEventVerificationFailed,
			Actor:     ActorRef{Type: "unknown"},
			Metadata: map[string]any{
				"verification_id": verificationID.String(),
				"error":           err.Error(),
			},
		})
		return a.renderVerify(ctx, "", nil, FormatError(err))
	}

	if resp.Status != SignUpComplete {
		recordActivity(ctx.Context(), a.activitySink, a.Logger, ActivityEvent{
			EventType: ActivityEventVerificationFailed,
			Actor:     ActorRef{ID: resp.UserID.String(), Type: "user"},
			UserID:    resp.UserID.String(),
			Metadata:  map[string]any{"status": resp.Status, "verification_status": resp.VerificationStatus},
		})
		return a.renderVerify(ctx, resp.Email, nil, fmt.Sprintf("Verification not complete: %s", resp.Status))
	}

	recordActivity(ctx.Context(), a.activitySink, a.Logger, ActivityEvent{
		EventType: ActivityEventVerificationSucceeded,
		Actor:     ActorRef{ID: resp.UserID.String(), Type: "user"},
		UserID:    resp.UserID.String(),
	})

	if err := a.Auther.Activate(ctx, resp.UserID.String()); err != nil {
		a.Logger.Error("verify activate session", "error", err)
		return a.renderVerify(ctx, resp.Email, nil, FormatError(err))
	}

	a.clearVerificationCookie(ctx)

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Your account is ready",
	}).Redirect(Home, http.StatusSeeOther)
}

func (a *AuthController) renderVerify(ctx router.Context, email string, slots []string, message string) error {
	in := codeinput.New(
		codeinput.WithLength(a.CodeLength),
		codeinput.WithSlots(slots),
	)
	in.Mount()

	return ctx.Render(a.Views.Verify, MergeTemplateData(ctx, router.ViewContext{
		"email":      email,
		"code_input": in.View(),
		"action":     a.Routes.Verify,
		"events":     a.Routes.CodeInput,
		"error":      message,
	}))
}

func (a *AuthController) clearVerificationCookie(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     a.VerificationCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// CodeInputRequest is one UI event for a segmented code input
type CodeInputRequest struct {
	Length int             `json:"length"`
	Slots  []string        `json:"slots"`
	Event  codeinput.Event `json:"event"`
}

// CodeInputResponse is the state after applying the event
type CodeInputResponse struct {
	Slots          []string `json:"slots"`
	Value          string   `json:"value"`
	Focus          int      `json:"focus"`
	Changed        bool     `json:"changed"`
	PreventDefault bool     `json:"prevent_default"`
	Complete       bool     `json:"complete"`
}

// CodeInputEvent applies a single event to the posted slots and returns the
// new state. Nothing is kept between requests.
func (a *AuthController) CodeInputEvent(ctx router.Context) error {
	payload := new(CodeInputRequest)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": "Invalid code input event",
		})
	}

	// the client may ask for fewer slots, never more than the issued code
	length := payload.Length
	if length <= 0 || length > a.CodeLength {
		length = a.CodeLength
	}

	slots := payload.Slots
	if len(slots) > length {
		slots = slots[:length]
	}

	in := codeinput.New(
		codeinput.WithLength(length),
		codeinput.WithSlots(slots),
		codeinput.WithAutoFocus(true),
	)
	res := in.Dispatch(payload.Event)

	return ctx.JSON(http.StatusOK, CodeInputResponse{
		Slots:          in.Slots(),
		Value:          in.Value(),
		Focus:          res.Focus,
		Changed:        res.Changed,
		PreventDefault: res.PreventDefault,
		Complete:       in.Complete(),
	})
}

// FormatValidationErrorToMap flattens ozzo errors into field -> message
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		out["form"] = err.Error()
		return out
	}

	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}

	return out
}

func defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return c.Status(statusFromError(richErr)).Render("errors/500", router.ViewContext{
			"message": FormatError(richErr),
		})
	}
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
