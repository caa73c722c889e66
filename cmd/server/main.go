package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/robfig/cron/v3"

	"github.com/auditlens/auditlens/internal/config"
	"github.com/auditlens/auditlens/server"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	srv := server.New(c)
	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}

	scheduler, err := startSweeper(c, srv)
	if err != nil {
		return fmt.Errorf("startSweeper: %w", err)
	}

	go listenAndServe(httpServer)
	waitForStopSignal()

	<-scheduler.Stop().Done()
	returnError = shutdown(httpServer)
	return returnError
}

// startSweeper schedules the periodic purge of expired sessions,
// credential records, and idle chat transcripts.
func startSweeper(c config.Config, srv *server.Server) (*cron.Cron, error) {
	scheduler := cron.New()
	spec := fmt.Sprintf("@every %s", c.GetSweepInterval())
	if _, err := scheduler.AddFunc(spec, srv.SweepExpired); err != nil {
		return nil, err
	}
	scheduler.Start()
	return scheduler, nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
