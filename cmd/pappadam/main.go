package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayusman/pappadam/internal/app"
	"github.com/ayusman/pappadam/internal/commentary"
	"github.com/ayusman/pappadam/internal/config"
	"github.com/ayusman/pappadam/internal/logger"
	"github.com/ayusman/pappadam/internal/server"
	"github.com/ayusman/pappadam/internal/store"
	"github.com/ayusman/pappadam/internal/tray"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.WithError(err).Fatal("Failed to create data directory")
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize store")
	}
	defer st.Close()

	var provider commentary.Provider = commentary.Seeded{}
	if cfg.CommentaryCmd != "" {
		provider = commentary.NewExternal(cfg.CommentaryCmd)
		logger.WithField("provider", cfg.CommentaryCmd).Info("using external commentary")
	}

	a, err := app.New(app.Config{
		Store:      st,
		CameraID:   cfg.CameraID,
		DiameterCm: cfg.DiameterCm,
		LiveFPS:    cfg.LiveFPS,
		Seed:       uint64(time.Now().UnixNano()),
		Commentary: provider,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize analyzer")
	}
	defer a.Close()

	srv := server.New(server.Config{
		StaticDir: cfg.StaticDir,
		App:       a,
	})

	go func() {
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Tray {
		t := runTray(a, cfg.Addr)
		go func() {
			<-quit
			t.Quit()
		}()
		t.Run()
	} else {
		<-quit
	}

	logger.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	logger.Logger.Info("Server exited")
}

// runTray wires the tray menu to the app.
func runTray(a *app.App, addr string) *tray.Tray {
	t := tray.New()
	t.OnToggle(func(live bool) error {
		err := a.SetLive(live)
		if err != nil {
			logger.WithError(err).Warn("could not toggle live mode")
		}
		return err
	})
	t.OnSettings(func() {
		logger.WithField("url", "http://localhost"+addr).Info("settings are served over HTTP")
	})

	unsubscribe := a.Subscribe(lastResultUpdater(t))
	stop := make(chan struct{})
	go syncLive(a, t, stop)
	t.OnQuit(func() {
		close(stop)
		unsubscribe()
	})
	return t
}

// syncLive mirrors Live mode into the tray when it ends on its own, for
// example when the camera goes away.
func syncLive(a *app.App, t *tray.Tray, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if live := a.IsLive(); live != t.IsLive() {
				t.SetLive(live)
			}
		}
	}
}

// lastResultUpdater refreshes the tray line when the live count or rating
// changes, instead of on every tick.
func lastResultUpdater(t *tray.Tray) func(app.LiveFrame) {
	var last struct {
		count  int
		rating string
		seen   bool
	}
	return func(f app.LiveFrame) {
		if last.seen && last.count == f.Stats.Count && last.rating == string(f.Stats.Rating) {
			return
		}
		last.count, last.rating, last.seen = f.Stats.Count, string(f.Stats.Rating), true
		t.SetLast(f.Stats)
	}
}
