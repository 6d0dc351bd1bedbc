package main

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/moemen20/phoenix-tracker/internal/config"
	"github.com/moemen20/phoenix-tracker/internal/database"
	"github.com/moemen20/phoenix-tracker/internal/handlers"
	"github.com/moemen20/phoenix-tracker/internal/middleware"
	"github.com/moemen20/phoenix-tracker/internal/routes"
	"github.com/moemen20/phoenix-tracker/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Log connection attempt without showing the password
	log.Printf("Connecting to MongoDB...")
	if cfg.MongoURI != "" {
		maskedURI := cfg.MongoURI
		if strings.Contains(maskedURI, "@") {
			parts := strings.Split(maskedURI, "@")
			if len(parts) > 0 && strings.Contains(parts[0], ":") {
				userPass := strings.Split(parts[0], ":")
				if len(userPass) >= 3 {
					maskedURI = strings.Replace(maskedURI, userPass[2], "***", 1)
				}
			}
		}
		log.Printf("MongoDB URI: %s", maskedURI)
	}

	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	// Wire the service layer now that both stores are up
	services.Init()

	if err := services.EnsureUserIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB user indexes: %v", err)
	} else {
		log.Println("✅ MongoDB user indexes ensured")
	}

	// Google sign-in is optional; the routes answer 503 without credentials
	googleProvider := services.NewGoogleProvider(cfg)
	if googleProvider != nil {
		log.Println("✅ Google sign-in enabled")
	} else {
		log.Println("Warning: Google OAuth credentials not found. Google sign-in will not be available")
	}
	handlers.InitGoogleAuth(googleProvider, cfg.FrontendURL)

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → GlobalRateLimit → AuthRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + auth rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r)

	// Log registered routes for debugging
	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  POST /api/auth/signup")
	log.Println("  POST /api/auth/signin")
	log.Println("  POST /api/auth/signout")
	log.Println("  GET  /api/auth/me")
	log.Println("  POST /api/auth/verify-upline")
	log.Println("  POST /api/prospects")
	log.Println("  GET  /api/prospects")
	log.Println("  POST /api/contacts")
	log.Println("  GET  /api/contacts")
	log.Println("  POST /api/tasks")
	log.Println("  GET  /api/tasks")
	log.Println("  GET  /api/stats/team")
	log.Println("  GET  /api/stats/network")
	log.Println("  GET  /ws/records")

	log.Printf("🚀 Phoenix Tracker backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
