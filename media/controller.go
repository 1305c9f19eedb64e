package media

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	moments "github.com/momentkit/go-moments"
)

type Controller struct {
	Repo         Repository
	Logger       moments.Logger
	ErrorHandler router.ErrorHandler
	HomeView     string
	StudioView   string
	// ContextKey is the locals key the auth guard stores claims under
	ContextKey string
}

func NewController(repo Repository, logger moments.Logger) *Controller {
	return &Controller{
		Repo:       repo,
		Logger:     logger,
		HomeView:   "home",
		StudioView: "studio",
		ContextKey: "user",
		ErrorHandler: func(c router.Context, err error) error {
			return c.Render("errors/500", router.ViewContext{
				"message": moments.FormatError(err),
			})
		},
	}
}

// RegisterAPIRoutes mounts the JSON API, every route runs behind guard
func RegisterAPIRoutes[T any](app router.Router[T], c *Controller, guard router.MiddlewareFunc) {
	app.Post("/api/media", c.Create, guard).SetName("media.create")
	app.Get("/api/media", c.List, guard).SetName("media.list")
	app.Get("/api/media/:id", c.Show, guard).SetName("media.show")
	app.Patch("/api/media/:id", c.Update, guard).SetName("media.update")
	app.Delete("/api/media/:id", c.Delete, guard).SetName("media.delete")
}

// RegisterPageRoutes mounts the home and studio pages
func RegisterPageRoutes[T any](app router.Router[T], c *Controller, guard router.MiddlewareFunc) {
	app.Get(moments.Home, c.HomeShow, guard).SetName("home.get")
	app.Get(moments.StudioPattern(), c.StudioShow, guard).SetName("studio.get")
}

func (c *Controller) Create(ctx router.Context) error {
	if !moments.Can(ctx.Context(), "create") {
		return c.forbidden(ctx)
	}

	params := new(CreateParams)
	if err := ctx.Bind(params); err != nil {
		return c.badRequest(ctx, err)
	}

	record, err := c.Repo.Create(ctx.Context(), *params)
	if err != nil {
		return c.writeError(ctx, err)
	}

	c.Logger.Info("media created", "id", record.ID, "file_name", record.FileName)
	return ctx.JSON(http.StatusCreated, record)
}

func (c *Controller) List(ctx router.Context) error {
	records, err := c.Repo.List(ctx.Context(), ListFilter{
		IncludePrivate: ctx.Query("include_private", "") == "true" && c.canSeePrivate(ctx),
	})
	if err != nil {
		return c.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"data": records,
	})
}

func (c *Controller) Show(ctx router.Context) error {
	query := QueryParams{ID: ctx.Param("id")}
	if err := query.Validate(); err != nil {
		return c.writeError(ctx, validationError(err))
	}

	record, err := c.Repo.Get(ctx.Context(), query.UUID())
	if err != nil {
		return c.writeError(ctx, err)
	}

	if record.IsPrivate && !c.canSeePrivate(ctx) {
		return c.writeError(ctx, notFound(record.ID))
	}

	return ctx.JSON(http.StatusOK, record)
}

func (c *Controller) Update(ctx router.Context) error {
	if !moments.Can(ctx.Context(), "edit") {
		return c.forbidden(ctx)
	}

	params := new(UpdateParams)
	if err := ctx.Bind(params); err != nil {
		return c.badRequest(ctx, err)
	}
	params.ID = ctx.Param("id")

	record, err := c.Repo.Update(ctx.Context(), *params)
	if err != nil {
		return c.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, record)
}

func (c *Controller) Delete(ctx router.Context) error {
	if !moments.Can(ctx.Context(), "delete") {
		return c.forbidden(ctx)
	}

	query := QueryParams{ID: ctx.Param("id")}
	if err := query.Validate(); err != nil {
		return c.writeError(ctx, validationError(err))
	}

	if err := c.Repo.Delete(ctx.Context(), query.UUID()); err != nil {
		return c.writeError(ctx, err)
	}

	c.Logger.Info("media deleted", "id", query.ID)
	return ctx.JSON(http.StatusOK, map[string]any{
		"id":      query.ID,
		"deleted": true,
	})
}

// HomeShow lists recent public media
func (c *Controller) HomeShow(ctx router.Context) error {
	items := []map[string]any{}

	if _, ok := moments.CurrentUserID(ctx, c.ContextKey); ok {
		records, err := c.Repo.List(ctx.Context(), ListFilter{})
		if err != nil {
			return c.ErrorHandler(ctx, err)
		}
		for _, r := range records {
			items = append(items, map[string]any{
				"file_name": r.FileName,
				"studio":    moments.Studio(r.ID.String()),
			})
		}
	}

	return ctx.Render(c.HomeView, moments.MergeTemplateData(ctx, router.ViewContext{
		"media": items,
	}))
}

func (c *Controller) StudioShow(ctx router.Context) error {
	query := QueryParams{ID: ctx.Param("id")}
	if err := query.Validate(); err != nil {
		return c.ErrorHandler(ctx, validationError(err))
	}

	record, err := c.Repo.Get(ctx.Context(), query.UUID())
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if record.IsPrivate && !c.canSeePrivate(ctx) {
		return c.ErrorHandler(ctx, notFound(record.ID))
	}

	return ctx.Render(c.StudioView, moments.MergeTemplateData(ctx, router.ViewContext{
		"media": record,
	}))
}

// canSeePrivate reports whether the caller may read private records. Private
// records are hidden from anyone below the edit permission, including
// anonymous visitors on optionally guarded pages.
func (c *Controller) canSeePrivate(ctx router.Context) bool {
	if moments.Can(ctx.Context(), "edit") {
		return true
	}
	claims, ok := moments.GetRouterClaims(ctx, c.ContextKey)
	return ok && claims.CanEdit()
}

func (c *Controller) badRequest(ctx router.Context, err error) error {
	c.Logger.Warn("media parse payload", "error", err)
	return ctx.JSON(http.StatusBadRequest, map[string]any{
		"error": "Invalid request body",
	})
}

func (c *Controller) forbidden(ctx router.Context) error {
	return ctx.JSON(http.StatusForbidden, map[string]any{
		"error": "Forbidden",
	})
}

func (c *Controller) writeError(ctx router.Context, err error) error {
	status := http.StatusInternalServerError
	body := map[string]any{
		"error": moments.FormatError(err),
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if richErr.Code > 0 {
			status = richErr.Code
		}
		if richErr.TextCode != "" {
			body["text_code"] = richErr.TextCode
		}
	}

	if fields := ValidationFields(err); len(fields) > 0 {
		body["validation"] = fields
	}

	if status >= http.StatusInternalServerError {
		c.Logger.Error("media request failed", "error", err)
		body["error"] = "Internal server error"
	}

	return ctx.JSON(status, body)
}
