package main

import (
	"net/http"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/dotlife/server"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	cfg, err := server.ConfigFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	log.WithFields(log.Fields{
		"size":     cfg.Size,
		"perColor": cfg.CountPerColor,
		"seed":     cfg.Seed,
		"layout":   cfg.Layout,
	}).Info("dotlife server")

	Server := Server{
		GameServer: server.NewGameServer(cfg),
	}
	go Server.GameServer.Loop()
	Server.routes()
	log.Fatalln(http.ListenAndServe(":"+cfg.Port, Server.router))
}
