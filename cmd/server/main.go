package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"papertrade/internal/hub"
	"papertrade/internal/ledger"
	"papertrade/internal/ops"
	"papertrade/internal/pricefeed"
	"papertrade/internal/pricestore"
	"papertrade/internal/server"
	"papertrade/internal/storage"
	"papertrade/pkg/conn"
)

// The deployment is single-tenant; one account is seeded and threaded
// through explicitly.
const accountID = 1

func main() {
	configPath := flag.String("config", "", "Path to JSON config (empty=defaults)")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disable)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "papertrade",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseObjects,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() { _ = profiler.Stop() }()
	}

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	repo, cleanup, err := openRepository(ctx, loaded)
	if err != nil {
		log.Fatalf("storage open failed: %v", err)
	}
	defer cleanup()

	if err := storage.EnsureAccount(ctx, repo, accountID, loaded.StartingBalance); err != nil {
		log.Fatalf("account seed failed: %v", err)
	}

	store := pricestore.New()
	broadcast := hub.New(0)
	book := ledger.New(repo, store)

	feed := pricefeed.NewUsecase(loaded.Feed, store, broadcast, repo)
	go feed.Run(ctx)

	srv := server.New(book, broadcast, accountID, loaded.Server.AllowOrigins)
	httpServer := &http.Server{
		Addr:    loaded.Server.Addr,
		Handler: srv.Handler(),
	}
	go func() {
		logs.Infof("listening on %s", loaded.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Errorf("http server, err: %+v", err)
		}
	}()

	<-sys.Shutdown()
	logs.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Default(), nil
	}
	return ops.Load(path)
}

func openRepository(ctx context.Context, loaded ops.Loaded) (storage.Repository, func(), error) {
	switch loaded.Database.Driver {
	case "postgres":
		db, err := conn.Open(conn.Option{
			Host:     loaded.Database.Host,
			Port:     loaded.Database.Port,
			User:     loaded.Database.User,
			Password: loaded.Database.Password,
			Database: loaded.Database.Database,
			SSLMode:  loaded.Database.SSLMode,
		})
		if err != nil {
			return nil, nil, err
		}
		repo := storage.NewPostgres(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = conn.Close(db)
			return nil, nil, err
		}
		return repo, func() { _ = conn.Close(db) }, nil
	default:
		return storage.NewMemory(), func() {}, nil
	}
}
