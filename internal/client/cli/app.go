package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/mkravets/fieldops/internal/client/api"
	"github.com/mkravets/fieldops/internal/client/config"
	"github.com/mkravets/fieldops/internal/client/connectivity"
	"github.com/mkravets/fieldops/internal/client/repositories/locations"
	"github.com/mkravets/fieldops/internal/client/repositories/photos"
	"github.com/mkravets/fieldops/internal/client/repositories/reports"
	"github.com/mkravets/fieldops/internal/client/repositories/state"
	"github.com/mkravets/fieldops/internal/client/repositories/syncitems"
	"github.com/mkravets/fieldops/internal/client/repositories/timerecords"
	"github.com/mkravets/fieldops/internal/client/services"
	"github.com/mkravets/fieldops/internal/client/storage"
	syncpkg "github.com/mkravets/fieldops/internal/client/sync"
	"github.com/mkravets/fieldops/internal/filex"
	"github.com/mkravets/fieldops/internal/logging"
)

// App wires the FieldOps client together and drives the REPL.
type App struct {
	config       *config.Config
	db           *sql.DB
	logger       logging.Logger
	authService  services.AuthService
	fieldService services.FieldService
	monitor      *connectivity.Pinger
	orchestrator *syncpkg.Orchestrator

	badge    string
	loggedIn bool
	reader   *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	deviceID, err := services.EnsureDeviceID(ctx, state.NewSQLiteRepository(db))
	if err != nil {
		return nil, fmt.Errorf("error preparing device id: %w", err)
	}

	photoDir, err := filex.EnsureSubDir(cfg.PhotoDir)
	if err != nil {
		return nil, fmt.Errorf("error preparing photo dir: %w", err)
	}

	apiClient := api.NewHTTPClient(cfg.ServerEndpointAddr, deviceID)

	store := syncitems.NewSQLiteRepository(db, cfg.MaxRetries)
	monitor := connectivity.NewPinger(apiClient, cfg.OnlineCheckInterval, logger)

	orchestrator := syncpkg.NewOrchestrator(store, monitor, logger, cfg.Priorities,
		syncpkg.NewTimeRecordAdapter(store, timerecords.NewSQLiteRepository(db), apiClient, logger),
		syncpkg.NewLocationAdapter(store, locations.NewSQLiteRepository(db), apiClient, logger),
		syncpkg.NewPhotoAdapter(store, photos.NewSQLiteRepository(db), apiClient, logger),
		syncpkg.NewReportAdapter(store, reports.NewSQLiteRepository(db), apiClient, logger),
	)

	return &App{
		config:       cfg,
		db:           db,
		logger:       logger,
		authService:  services.NewAuthService(apiClient, db),
		fieldService: services.NewFieldService(db, photoDir, cfg.Priorities, cfg.MaxRetries),
		monitor:      monitor,
		orchestrator: orchestrator,
		reader:       bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the connectivity probe, the connectivity-triggered sync watcher
// and the periodic sync, then blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()
	defer a.authService.Close(ctx)

	go a.monitor.Run(ctx)
	go a.orchestrator.WatchConnectivity(ctx)

	if err := a.orchestrator.ScheduleSync(a.config.SyncInterval); err != nil {
		return err
	}
	defer a.orchestrator.CancelScheduledSync()

	a.Root(ctx)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.loggedIn
}

func (a *App) getStatus() string {
	s := ""
	if a.badge != "" {
		s = a.badge + " "
	}
	if a.monitor.IsConnected() {
		s += "online"
	} else {
		s += "offline"
	}
	if a.orchestrator.InProgress() {
		s += " syncing"
	}
	return fmt.Sprintf("(%s)", s)
}
