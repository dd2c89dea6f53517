package main

import (
	"context"
	"time"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/controllers"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/routes"
	"github.com/cppla/blogicum/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(models.All()...)

	env := controllers.Env{
		DB:       db,
		Images:   utils.NewImageStore(cfg),
		Notifier: utils.MailNotifier{},
	}
	r := routes.SetupRouter(env, routes.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	utils.StartImageSweeper(ctx, db, time.Duration(cfg.ImageSweepMinutes)*time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, cancel); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
