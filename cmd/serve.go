package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-posts/app/controller"
	postsgrpc "github.com/vibast-solutions/ms-go-posts/app/grpc"
	"github.com/vibast-solutions/ms-go-posts/app/middleware"
	"github.com/vibast-solutions/ms-go-posts/app/ratelimit"
	"github.com/vibast-solutions/ms-go-posts/app/repository"
	"github.com/vibast-solutions/ms-go-posts/app/router"
	"github.com/vibast-solutions/ms-go-posts/app/service"
	"github.com/vibast-solutions/ms-go-posts/config"
	"github.com/vibast-solutions/ms-go-posts/migrations"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start the HTTP (Echo) API and, when INTERNAL_API_KEY is set, the internal gRPC session service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(context.Background(), db); err != nil {
			logrus.WithError(err).Fatal("Failed to apply migrations")
		}
		logrus.Info("Database migrations applied")
	}

	userAuthService, postService, closeRedis := buildServices(cfg, db)
	defer closeRedis()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var grpcServer *grpc.Server
	if cfg.GRPCEnabled() {
		grpcServer = startGRPCServer(cfg, userAuthService)
	} else {
		logrus.Info("INTERNAL_API_KEY not set, gRPC session service disabled")
	}

	e := router.New(cfg.HTTP, router.Handlers{
		Users: controller.NewUserAuthController(userAuthService, cfg.HTTP.CookieSecure),
		Posts: controller.NewPostController(postService),
		Auth:  middleware.NewAuthMiddleware(userAuthService),
	})

	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	go func() {
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown failed")
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}

func buildServices(cfg *config.Config, db *sql.DB) (service.UserAuthService, service.PostService, func()) {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	tokens := service.NewTokenService(cfg.JWT)

	var opts []service.UserAuthServiceOption
	closeRedis := func() {}
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closeRedis = func() { _ = rdb.Close() }
		opts = append(opts, service.WithLoginLimiter(
			ratelimit.NewLimiter(rdb, "", cfg.LoginLimit.Rate, cfg.LoginLimit.Burst),
		))
		logrus.WithField("addr", cfg.Redis.Addr).Info("Login throttling enabled")
	}

	return service.NewUserAuthService(userRepo, tokens, cfg, opts...), service.NewPostService(postRepo), closeRedis
}

func startGRPCServer(cfg *config.Config, userAuthService service.UserAuthService) *grpc.Server {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(postsgrpc.APIKeyUnaryInterceptor(cfg.GRPC.APIKey)),
		grpc.StreamInterceptor(postsgrpc.APIKeyStreamInterceptor(cfg.GRPC.APIKey)),
	)
	postsgrpc.RegisterSessionServiceServer(grpcServer, postsgrpc.NewSessionServer(userAuthService))

	go func() {
		logrus.WithField("addr", grpcAddr).Info("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			logrus.WithError(err).Fatal("Failed to start gRPC server")
		}
	}()

	return grpcServer
}
