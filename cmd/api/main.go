package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/guhjy/BFDA/internal"
	"github.com/guhjy/BFDA/internal/api"
	"github.com/guhjy/BFDA/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := internal.DefaultLogger.Named("api")
	server := api.NewServer()

	addr := ":" + cfg.Server.Port
	log.Info("listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
