package upload

import (
	"net/http"

	"github.com/goliatone/go-router"
	moments "github.com/momentkit/go-moments"
)

// DefaultFolder is where uploads land on the CDN
const DefaultFolder = "/moments"

// Options are handed to the upload widget
type Options struct {
	Folder        string `json:"folder"`
	URLEndpoint   string `json:"url_endpoint"`
	AuthEndpoint  string `json:"auth_endpoint"`
	MediaEndpoint string `json:"media_endpoint"`
}

type Routes struct {
	Auth   string
	Upload string
}

type Controller struct {
	Signer     *Signer
	Logger     moments.Logger
	Routes     Routes
	View       string
	ContextKey string
	Options    Options
}

type ControllerOption func(*Controller)

func WithLogger(logger moments.Logger) ControllerOption {
	return func(c *Controller) {
		c.Logger = logger
	}
}

func WithContextKey(key string) ControllerOption {
	return func(c *Controller) {
		if key != "" {
			c.ContextKey = key
		}
	}
}

func WithOptions(opts Options) ControllerOption {
	return func(c *Controller) {
		if opts.Folder == "" {
			opts.Folder = c.Options.Folder
		}
		if opts.AuthEndpoint == "" {
			opts.AuthEndpoint = c.Options.AuthEndpoint
		}
		if opts.MediaEndpoint == "" {
			opts.MediaEndpoint = c.Options.MediaEndpoint
		}
		c.Options = opts
	}
}

func NewController(signer *Signer, opts ...ControllerOption) *Controller {
	c := &Controller{
		Signer: signer,
		Logger: noopLogger{},
		Routes: Routes{
			Auth:   "/api/upload-auth",
			Upload: "/upload",
		},
		View:       "upload",
		ContextKey: "user",
		Options: Options{
			Folder:        DefaultFolder,
			AuthEndpoint:  "/api/upload-auth",
			MediaEndpoint: "/api/media",
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AuthParams returns signed upload parameters for the signed in user
func (c *Controller) AuthParams(ctx router.Context) error {
	userID, ok := moments.CurrentUserID(ctx, c.ContextKey)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]any{
			"error": "Unauthorized Upload",
		})
	}

	params, err := c.Signer.AuthParams()
	if err != nil {
		c.Logger.Error("upload auth error", "user_id", userID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{
			"error": "Failed to generate upload authentication parameters",
		})
	}

	return ctx.JSON(http.StatusOK, params)
}

// UploadShow renders the upload widget, anonymous users are sent to sign up
func (c *Controller) UploadShow(ctx router.Context) error {
	if _, ok := moments.CurrentUserID(ctx, c.ContextKey); !ok {
		return ctx.Redirect(moments.SignUp, http.StatusFound)
	}

	opts := c.Options
	return ctx.Render(c.View, moments.MergeTemplateData(ctx, router.ViewContext{
		"upload": map[string]any{
			"folder":         opts.Folder,
			"public_key":     c.Signer.PublicKey(),
			"url_endpoint":   opts.URLEndpoint,
			"auth_endpoint":  opts.AuthEndpoint,
			"media_endpoint": opts.MediaEndpoint,
		},
	}))
}

// RegisterRoutes mounts the upload routes behind guard
func RegisterRoutes[T any](app router.Router[T], c *Controller, guard router.MiddlewareFunc) {
	app.Get(c.Routes.Auth, c.AuthParams, guard).SetName("upload-auth.get")
	app.Get(c.Routes.Upload, c.UploadShow, guard).SetName("upload.get")
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
