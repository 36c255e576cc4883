package app

import (
	"context"
	"embed"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"module/app/services"
	"module/internal/config"
	"module/internal/core"
	"module/internal/prereq"
)

//go:embed all:frontend_dist
var assets embed.FS

// App holds the desktop shell's services, all driving the same
// internal/ops and internal/core packages the HTTP adapter drives.
type App struct {
	ctx           context.Context
	prereqService *prereq.Service
	copyService   *services.CopyService
	logService    *services.LogService
	systemService *services.SystemService
	jobManager    *core.JobManager
	jobEmitter    *services.WailsJobEmitter
	config        *config.Config
	configPath    string
	logger        *log.Logger
}

// NewApp creates a new App instance.
func NewApp() *App {
	logger := log.New(os.Stderr, "[filecore] ", log.LstdFlags|log.Lshortfile)
	return &App{logger: logger}
}

// OnStartup is called when the app starts.
func (a *App) OnStartup(ctx context.Context) {
	a.ctx = ctx

	configPath, err := config.DefaultPath()
	if err != nil {
		a.logger.Printf("[App] OnStartup: failed to resolve config path: %v", err)
	} else {
		a.configPath = configPath
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		a.logger.Printf("[App] OnStartup: failed to load config: %v", err)
		cfg = config.Default()
	}
	a.config = cfg

	a.jobEmitter.SetContext(ctx)
	a.copyService.SetContext(ctx)
	a.copyService.SetConfig(a.config, a.configPath)
	a.logService.SetContext(ctx)
	a.systemService.SetContext(ctx)

	a.logger.Printf("[App] OnStartup: services initialized")

	go a.startPrereqPolling(ctx)

	report := a.prereqService.Run(a.config.LastDestPath)
	runtime.EventsEmit(ctx, "prereq:report", report)
}

// OnShutdown is called when the app is shutting down.
func (a *App) OnShutdown(ctx context.Context) {
	a.logger.Printf("[App] OnShutdown: shutting down")
	if a.jobManager != nil {
		if err := a.jobManager.CancelActiveJob(); err != nil {
			a.logger.Printf("[App] OnShutdown: error cancelling active job: %v", err)
		}
	}
}

// startPrereqPolling re-runs prerequisite checks periodically so the UI can
// reflect a destination volume disappearing or filling up mid-session.
func (a *App) startPrereqPolling(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := a.prereqService.Run(a.config.LastDestPath)
			runtime.EventsEmit(ctx, "prereq:report", report)
		}
	}
}

// Run starts the Wails application.
func Run() error {
	appInstance := NewApp()

	logger := log.New(os.Stderr, "[filecore] ", log.LstdFlags|log.Lshortfile)

	jobEmitter := &services.WailsJobEmitter{}
	jobManager := core.NewJobManager(jobEmitter)
	prereqService := prereq.NewService(zerolog.New(os.Stderr).With().Timestamp().Logger())
	copyService := services.NewCopyService(context.Background(), logger, jobManager)
	logService := services.NewLogService(context.Background(), logger)
	systemService := services.NewSystemService(context.Background(), logger)

	appInstance.jobManager = jobManager
	appInstance.jobEmitter = jobEmitter
	appInstance.prereqService = prereqService
	appInstance.copyService = copyService
	appInstance.logService = logService
	appInstance.systemService = systemService

	err := wails.Run(&options.App{
		Title:  "filecore",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets:  assets,
			Handler: nil,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        appInstance.OnStartup,
		OnShutdown:       appInstance.OnShutdown,
		Bind: []interface{}{
			copyService,
			logService,
			systemService,
		},
	})

	return err
}

