package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/uptrace/bun"

	moments "github.com/momentkit/go-moments"
	"github.com/momentkit/go-moments/activitymap"
	"github.com/momentkit/go-moments/config"
	"github.com/momentkit/go-moments/media"
	"github.com/momentkit/go-moments/middleware/csrf"
	"github.com/momentkit/go-moments/persistence"
	"github.com/momentkit/go-moments/upload"
)

type App struct {
	config *config.Config
	bunDB  *bun.DB
	auth   *moments.Auther
	auther *moments.RouteAuthenticator
	repo   moments.RepositoryManager
	outbox *moments.CodeOutbox
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("app"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := config.Load()
	if err != nil {
		lgr.Error("unable to load config", "error", err)
		os.Exit(1)
	}

	moments.PasswordHashCost = cfg.BcryptCost
	moments.MaxLoginAttempts = cfg.MaxLoginAttempts
	moments.CoolDownPeriod = cfg.CoolDownPeriod

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		lgr.Error("persistence setup failed", "error", err)
		os.Exit(1)
	}
	defer app.bunDB.Close()

	if err := WithHTTPServer(ctx, app); err != nil {
		lgr.Error("http server setup failed", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPAuth(ctx, app); err != nil {
		lgr.Error("auth setup failed", "error", err)
		os.Exit(1)
	}

	AuthRoutes(app)
	UploadRoutes(app)
	MediaRoutes(app)

	app.srv.Serve(cfg.ServerAddr)

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.config

	if cfg.AutoMigrate {
		if err := persistence.Migrate(cfg.DatabaseURL, persistence.DirectionUp, app.GetLogger("persistence")); err != nil {
			return err
		}
	}

	db, err := persistence.Open(ctx, cfg.DatabaseURL, cfg.GetPingTimeout())
	if err != nil {
		return err
	}

	repo := moments.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	app.bunDB = db
	app.repo = repo
	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	engine := django.NewFileSystem(http.FS(moments.GetViewsFS()), ".html")
	engine.AddFuncMap(moments.TemplateHelpers())
	if !app.config.IsProduction() {
		engine.Reload(true)
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: !app.config.IsProduction(),
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))
	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	app.srv = srv
	return nil
}

func WithHTTPAuth(ctx context.Context, app *App) error {
	cfg := app.config

	userProvider := moments.NewUserProvider(moments.NewUserTracker(app.repo.Users()))
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := moments.NewAuthenticator(userProvider, cfg).
		WithLogger(app.GetLogger("auth:authz")).
		WithActivitySink(activitymap.LogSink(app.GetLogger("auth:activity")))

	if cfg.JWKSURL != "" {
		jwks, err := moments.FetchJWKSValidator(cfg.JWKSURL, cfg.GetIssuer(), cfg.GetAudience(), app.GetLogger("auth:jwks"))
		if err != nil {
			return err
		}
		authenticator.WithTokenValidator(jwks)
	}

	httpAuth, err := moments.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		return err
	}
	httpAuth.WithLogger(app.GetLogger("auth:http"))

	app.auth = authenticator
	app.auther = httpAuth
	return nil
}

func AuthRoutes(app *App) {
	cfg := app.config
	logger := app.GetLogger("auth:ctrl")

	codesLogger := app.GetLogger("auth:codes")
	sender := moments.LogCodeSender(codesLogger, !cfg.IsProduction())
	if cfg.IsProduction() {
		codesLogger.Warn("verification codes are logged redacted and no delivery sender is configured")
	}
	if cfg.DevCodeOutbox {
		app.outbox = moments.NewCodeOutbox()
		sender = moments.MultiCodeSender(sender, app.outbox)
		app.srv.Router().Get("/dev/codes", app.outbox.Handler).SetName("dev.codes")
		codesLogger.Info("dev code outbox mounted", "path", "/dev/codes")
	}

	moments.RegisterAuthRoutes(app.srv.Router(),
		moments.WithControllerLogger(logger),
		moments.WithControllerDebug(!cfg.IsProduction()),
		moments.WithRepositoryManager(app.repo),
		moments.WithHTTPAuthenticator(app.auther),
		moments.WithCodeSender(sender),
		moments.WithCodeSettings(cfg.CodeLength, cfg.GetCodeTTL()),
		moments.WithHashidUserIDs(cfg.HashidUserIDs),
		moments.WithControllerActivitySink(activitymap.LogSink(app.GetLogger("auth:activity"))),
		moments.WithRouteMiddleware(csrf.New(csrf.Config{
			SecureKey:  csrfKey(cfg.CSRFSecret),
			Expiration: cfg.GetCSRFExpiration(),
		})),
	)
}

func csrfKey(secret string) []byte {
	if secret == "" {
		return nil
	}
	return []byte(secret)
}

func UploadRoutes(app *App) {
	cfg := app.config
	logger := app.GetLogger("upload")

	if !cfg.UploadEnabled() {
		logger.Warn("upload keys not configured, upload routes disabled")
		return
	}

	signer := upload.NewSigner(cfg.UploadPrivateKey, cfg.UploadPublicKey)
	ctrl := upload.NewController(signer,
		upload.WithLogger(logger),
		upload.WithContextKey(cfg.GetContextKey()),
		upload.WithOptions(upload.Options{
			Folder:      cfg.UploadFolder,
			URLEndpoint: cfg.UploadURLEndpoint,
		}),
	)

	optional := app.auther.ProtectedRoute(cfg, app.auther.MakeClientRouteAuthErrorHandler(true))
	upload.RegisterRoutes(app.srv.Router(), ctrl, optional)
}

func MediaRoutes(app *App) {
	cfg := app.config

	ctrl := media.NewController(media.NewRepository(app.bunDB), app.GetLogger("media"))
	ctrl.ContextKey = cfg.GetContextKey()

	api := app.auther.ProtectedRoute(cfg, app.auther.MakeAPIAuthErrorHandler())
	media.RegisterAPIRoutes(app.srv.Router(), ctrl, api)

	optional := app.auther.ProtectedRoute(cfg, app.auther.MakeClientRouteAuthErrorHandler(true))
	media.RegisterPageRoutes(app.srv.Router(), ctrl, optional)
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
