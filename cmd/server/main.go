package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tumer294/studio2/internal/auth"
	appconfig "github.com/tumer294/studio2/internal/config"
	"github.com/tumer294/studio2/internal/database"
	"github.com/tumer294/studio2/internal/engine"
	"github.com/tumer294/studio2/internal/engine/actors"
	"github.com/tumer294/studio2/internal/handlers"
	"github.com/tumer294/studio2/internal/middleware"
	"github.com/tumer294/studio2/internal/objectstore"
	"github.com/tumer294/studio2/internal/realtime"
	"github.com/tumer294/studio2/internal/utils"
	"github.com/tumer294/studio2/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

func main() {
	cfg, err := appconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	metrics := utils.NewMetricsCollector()

	db, err := database.NewMongoDB(cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			log.Printf("Error closing MongoDB connection: %v", err)
		}
	}()

	system := actor.NewActorSystem()
	watcher := realtime.NewWatcher(db, system)

	hub := websocket.NewHub()
	go hub.Run()

	appEngine := engine.NewEngine(system, db, watcher, metrics, cfg.Auth.AdminEmail, func(view *actors.ExploreView) {
		hub.BroadcastFrame("explore", view)
	})
	defer appEngine.Shutdown()

	tokens := middleware.NewTokenManager(cfg.Auth.JWTSecret)
	oauth := auth.NewVerifier(cfg.Auth.TokenInfoURL)

	// Presigners come up only with complete credentials; the download
	// handlers report the misconfiguration instead of calling the provider.
	var awsPresigner, r2Presigner objectstore.Presigner
	if cfg.AWS.Complete() {
		awsPresigner, err = objectstore.NewS3Presigner(context.Background(), cfg.AWS)
		if err != nil {
			log.Fatalf("Failed to initialize S3 presigner: %v", err)
		}
	} else {
		log.Printf("AWS storage credentials incomplete; primary download endpoint disabled")
	}
	if cfg.R2.Complete() {
		r2Presigner, err = objectstore.NewR2Presigner(context.Background(), cfg.R2)
		if err != nil {
			log.Fatalf("Failed to initialize R2 presigner: %v", err)
		}
	} else {
		log.Printf("R2 storage credentials incomplete; legacy download endpoint disabled")
	}

	server := handlers.NewServer(system, appEngine, metrics, db, hub, tokens, oauth, cfg, awsPresigner, r2Presigner)

	mux := http.NewServeMux()
	routes := map[string]http.HandlerFunc{
		"/health":              server.HandleHealth(),
		"/auth/signup":         server.HandleSignup(),
		"/auth/login":          server.HandleLogin(),
		"/auth/oauth/callback": server.HandleOAuthCallback(),
		"/session":             server.HandleSession(),
		"/session/welcome":     server.HandleDismissWelcome(),
		"/session/sidebars":    server.HandleSidebars(),
		"/explore":             server.HandleExploreView(),
		"/explore/search":      server.HandleExploreSearch(),
		"/posts":               server.HandleCreatePost(),
		"/posts/view":          server.HandleViewPost(),
		"/posts/unmount":       server.HandleUnmountPost(),
		"/posts/like":          server.HandleLikePost(),
		"/posts/save":          server.HandleSavePost(),
		"/posts/delete":        server.HandleDeletePost(),
		"/posts/report":        server.HandleReportPost(),
		"/posts/comment":       server.HandleCommentPost(),
		"/api/download":        server.HandleDownload(),
		"/api/download/legacy": server.HandleLegacyDownload(),
		"/ws":                  server.HandleWebSocket(),
	}
	for path, handler := range routes {
		mux.HandleFunc(path, tokens.ApplyJWTMiddleware(handler, path))
	}

	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins)
	handler := middleware.CORSMiddleware(corsConfig)(mux)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
