package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/atharvakonge/paper-trader/internal/auth"
	"github.com/atharvakonge/paper-trader/internal/config"
	"github.com/atharvakonge/paper-trader/internal/db"
	"github.com/atharvakonge/paper-trader/internal/handlers"
	"github.com/atharvakonge/paper-trader/internal/ledger"
	"github.com/atharvakonge/paper-trader/internal/logger"
	"github.com/atharvakonge/paper-trader/internal/quotes"
	"github.com/atharvakonge/paper-trader/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	logger.Setup()
	cfg := config.Load()

	// Pick the persistence backend
	var st store.Store
	if cfg.DatabaseEnabled {
		database, err := db.Open(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := db.InitSchema(database); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize schema")
		}
		st = store.NewPostgresStore(database)
		log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("database connected")
	} else {
		st = store.NewMemoryStore()
		log.Warn().Msg("running on in-memory store, state is lost on restart")
	}
	defer st.Close()

	// The simulated quoter always exists: it feeds the websocket ticker and
	// stands in for the oracle when no API key is configured.
	simulated := quotes.NewSimulated(time.Now().UnixNano())
	var quoter quotes.Quoter = simulated
	if cfg.AlphaVantageKey != "" {
		quoter = quotes.NewAlphaVantage(cfg.AlphaVantageKey)
		log.Info().Msg("using Alpha Vantage quotes")
	} else {
		log.Warn().Msg("no ALPHA_VANTAGE_API_KEY, using simulated quotes")
	}

	engine := ledger.NewEngine(st, quoter)
	reporter := ledger.NewReporter(st)
	authService := auth.NewService(st, auth.NewBcryptHasher(cfg.BcryptCost), cfg.StartingBalance)

	processor := handlers.NewTradeProcessor(engine, cfg.TradeWorkers)
	processor.Start()
	defer processor.Stop()

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	authHandler := handlers.NewAuthHandler(authService)
	tradeHandler := handlers.NewTradeHandler(processor, reporter, quoter)
	priceStream := handlers.NewPriceStream(simulated)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/create-account", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.PATCH("/change-password",
			handlers.SessionMiddleware(authService), authHandler.ChangePassword)
	}

	stocks := router.Group("/stocks")
	{
		stocks.GET("/quote/:symbol", tradeHandler.Quote)

		authed := stocks.Group("", handlers.SessionMiddleware(authService))
		authed.POST("/buy", tradeHandler.Buy)
		authed.POST("/sell", tradeHandler.Sell)
		authed.GET("/portfolio", tradeHandler.Portfolio)
	}

	router.GET("/ws/prices", priceStream.Handle)

	log.Info().Str("port", cfg.HTTPPort).Msg("server starting")
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
