// Package inkpress is a publishing engine for posts that embed interactive
// widgets, built with Go, Echo, and templ. Authors write rich-text posts with
// shortcode markers like [quiz id=3]; the render pipeline resolves the markers
// into quiz, chart, video, and PDF fragments on every read. The engine ships
// the authoring admin, author accounts, media uploads, anonymous engagement
// analytics, RSS, and sitemap out of the box.
package inkpress

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpress/analytics"
	"github.com/eringen/inkpress/widget"
)

// App is the central inkpress application. It wires together the store,
// cache, render pipeline, handlers, middleware, and analytics.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache

	pipeline         *widget.Pipeline
	loginLimiter     *LoginLimiter
	analyticsStore   *analytics.Store
	analyticsHandler *analytics.Handler
	tagger           TagSuggester
	customRoutes     []func(*App)
	staticDir        string
}

// New creates a new inkpress App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, cache, middleware, routes, and starts the
// server. It blocks until the server stops.
func (a *App) Start() error {
	// Validate required config
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("inkpress: SessionSecret is required")
	}

	// Initialize store
	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("inkpress: init store: %w", err)
	}
	a.Store = store

	// Initialize cache and the widget render pipeline
	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.pipeline = widget.NewPipeline(a.Store)

	// Initialize login limiter: 5 failed attempts per IP per 5 minutes
	a.loginLimiter = NewLoginLimiter(5, 5*time.Minute)

	// Initialize the tag suggester unless one was injected
	if a.tagger == nil {
		a.tagger = NewTagSuggester(a.Config.ClassifierAPIURL, a.Config.ClassifierAPIKey)
	}

	// Initialize analytics if enabled
	if a.Config.AnalyticsEnabled {
		analyticsStore, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
		if err != nil {
			return fmt.Errorf("inkpress: init analytics: %w", err)
		}
		a.analyticsStore = analyticsStore
		if err := analytics.InitSalt(analyticsStore); err != nil {
			return fmt.Errorf("inkpress: init analytics salt: %w", err)
		}
		stopCleanup := analyticsStore.StartCleanupScheduler(a.Config.AnalyticsRetentionDays, 24*time.Hour)
		defer stopCleanup()
	}

	// Setup middleware
	a.setupMiddleware()

	// Setup routes
	a.setupRoutes()

	// Apply custom routes
	for _, fn := range a.customRoutes {
		fn(a)
	}

	// Start server
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Serve embedded engine assets (site.css, widgets.js, editor.js).
	// These are served under /public/ and fall through to the site's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/site.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/widgets.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/editor.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	// Site-owned static assets and uploaded media
	e.Static("/public", a.staticDir)
	e.Static("/uploads", a.Config.UploadsDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/posts/:slug/", a.handlePost)

	// Login and logout sit outside the auth group: the login page must be
	// reachable signed out, and logout degrades to a redirect anyway.
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleLogin)
	e.POST("/admin/logout/", handleLogout)

	// Authoring routes
	admin := e.Group("/admin", a.requireAuth)
	admin.GET("/post/new/", a.handleEditorNew)
	admin.GET("/post/:id/", a.handleEditor)
	admin.POST("/save/", a.handleSave)
	admin.POST("/post/:id/delete/", a.handleDelete)
	admin.POST("/post/:id/restore/", a.handleRestore)

	// Widget authoring
	admin.POST("/widgets/quiz/", a.handleQuizCreate)
	admin.POST("/widgets/chart/", a.handleChartCreate)
	admin.POST("/widgets/video/", a.handleVideoCreate)
	admin.POST("/widgets/pdf/", a.handlePDFCreate)
	admin.POST("/widgets/delete/", a.handleWidgetDelete)
	admin.POST("/api/suggest-tags", a.handleSuggestTags)

	// Media library
	admin.GET("/uploads/", a.handleUploads)
	admin.POST("/uploads/", a.handleUpload)
	admin.POST("/uploads/:filename/delete/", a.handleUploadDelete)

	// Account management is admin-only
	users := e.Group("/admin/users", a.requireAdmin)
	users.GET("/", a.handleUsers)
	users.POST("/:id/delete/", a.handleUserDelete)

	// Analytics routes
	if a.Config.AnalyticsEnabled && a.analyticsStore != nil {
		evaluator := analytics.NewEvaluator(a.Store, a.analyticsStore)
		a.analyticsHandler = analytics.NewHandler(a.analyticsStore, evaluator, a.Store)
		a.analyticsHandler.RegisterRoutes(e, a.requireAuth)
		admin.GET("/analytics/", a.handleAnalyticsPage)
	}
}

// Shutdown stops the HTTP server gracefully, letting in-flight requests
// finish within the context deadline.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.analyticsHandler != nil {
		a.analyticsHandler.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.analyticsStore != nil {
		a.analyticsStore.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
// This is a convenience function for use in scaffolded main.go files.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("inkpress: required environment variable %s is not set", key)
	}
	return v
}
