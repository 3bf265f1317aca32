package commands

import (
	"os"
	"os/signal"
	"pgstay/config"
	"pgstay/database"
	"pgstay/middleware"
	"pgstay/routers"
	"pgstay/utils"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func ServeCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			log := NewLogger(cfg)

			db, err := database.Open(cfg)
			if err != nil {
				return err
			}
			if !skipMigrate {
				if err := database.Migrate(db); err != nil {
					return err
				}
			}

			deps := routers.Deps{
				Config:   cfg,
				DB:       db,
				Log:      log,
				Tokens:   middleware.NewTokenIssuer(cfg),
				Images:   utils.NewCloudinaryStore(cfg),
				Notifier: utils.NewNotifier(utils.NewMailer(cfg, log), log),
			}

			redisClient, err := database.NewRedis(cmd.Context(), cfg.RedisURL)
			if err != nil {
				return err
			}
			if redisClient != nil {
				defer redisClient.Close()
				deps.Sessions = middleware.NewRedisSessionStore(redisClient)
				log.Info("refresh sessions stored in redis")
			}

			scheduler, err := utils.StartRatingScheduler(db, log, cfg.RatingReconcileCron)
			if err != nil {
				return err
			}

			app := routers.NewApp(deps)

			go func() {
				log.Infof("Server is running on port %s", cfg.Port)
				if err := app.Listen(":" + cfg.Port); err != nil {
					log.WithError(err).Fatal("server stopped")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info("Shutdown signal received...")
			if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
				log.WithError(err).Error("server forced to shutdown")
			}

			<-scheduler.Stop().Done()
			deps.Notifier.Wait()

			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}

			log.Info("Server exited gracefully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run AutoMigrate on startup")
	return cmd
}
