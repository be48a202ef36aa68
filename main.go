package main

import (
	"context"
	"flag"
	"interviewhub-complete/ai"
	"interviewhub-complete/handlers/api/interviews"
	"interviewhub-complete/handlers/api/messages"
	"interviewhub-complete/handlers/api/questions"
	"interviewhub-complete/handlers/auth"
	authMiddleware "interviewhub-complete/middleware"
	"interviewhub-complete/signaling"
	"interviewhub-complete/stores"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func setupRouter(store stores.Store, client *ai.Client, registry *signaling.Registry) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Token", "session", "Origin", "Host", "Connection", "Accept-Encoding", "Accept-Language", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", auth.HandleLogin(store))
		r.Post("/check-email", auth.HandleCheckEmail(store))
		r.Get("/oauth/login", auth.HandleOAuthLogin)
		r.Get("/oauth/callback", auth.HandleOAuthCallback)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.AuthJWT)

		r.Route("/interviews", func(r chi.Router) {
			r.Get("/", interviews.HandleList(store))
			r.Post("/", interviews.HandleCreate(store))
			r.Post("/join", interviews.HandleJoin(store))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", interviews.HandleGet(store))
				r.Get("/status", interviews.HandleStatus(store, registry))
				r.Get("/messages", messages.HandleList(store))
				r.Post("/messages", messages.HandleAppend(store))
				r.Post("/assist", questions.HandleAssist(client, store))
			})
		})

		r.Route("/questions", func(r chi.Router) {
			r.Post("/generate", questions.HandleGenerate(client))
			r.Post("/assess", questions.HandleAssess(client))
		})
	})

	return r
}

// sweepExpiredInterviews periodically marks bookings that were never claimed
// by an interviewee as expired.
func sweepExpiredInterviews(ctx context.Context, store stores.Store, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := store.ExpireStaleInterviews(ctx, time.Now().Add(-maxAge))
			if err != nil {
				logrus.WithField("error", err).Warn("Interview expiry sweep failed")
				continue
			}
			if expired > 0 {
				logrus.WithField("count", expired).Info("Expired stale interviews")
			}
		}
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if minutes, err := strconv.Atoi(raw); err == nil {
		return time.Duration(minutes) * time.Minute
	}
	logrus.WithField(key, raw).Warn("Unparseable duration, using default")
	return fallback
}

func waitForShutdown(ioo *socketio.Server, cancel context.CancelFunc) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	cancel()
	ioo.Close(nil)
	os.Exit(0)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":5000", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	store := stores.GetStore()
	auth.InitAuth(store)
	client := ai.NewClientFromEnv()

	service := signaling.NewService(signaling.NewRegistry())

	r := setupRouter(store, client, service.Registry())

	ioo := signaling.NewSocketServer(service)
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	ctx, cancel := context.WithCancel(context.Background())
	sweepInterval := durationFromEnv("EXPIRY_SWEEP_INTERVAL", 5*time.Minute)
	bookingMaxAge := durationFromEnv("BOOKING_MAX_AGE", 24*time.Hour)
	go sweepExpiredInterviews(ctx, store, sweepInterval, bookingMaxAge)

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo, cancel)
}
