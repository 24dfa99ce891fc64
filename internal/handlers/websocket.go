package handlers

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/atharvakonge/paper-trader/internal/quotes"
)

// PriceUpdate is one streamed price tick
type PriceUpdate struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // demo surface, any origin may connect
	},
}

// PriceStream pushes simulated price ticks over a websocket. It reads from
// the simulated quoter only; the ledger always quotes fresh on its own.
type PriceStream struct {
	sim *quotes.Simulated
}

func NewPriceStream(sim *quotes.Simulated) *PriceStream {
	return &PriceStream{sim: sim}
}

// Handle upgrades GET /ws/prices and streams one tick per second
func (s *PriceStream) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	symbols := s.sim.Symbols()
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			symbol := symbols[rand.Intn(len(symbols))]
			quote, err := s.sim.Quote(c.Request.Context(), symbol)
			if err != nil {
				continue
			}

			update := PriceUpdate{
				Symbol:    quote.Symbol,
				Price:     quote.Price,
				Timestamp: quote.AsOf,
			}
			if err := conn.WriteJSON(update); err != nil {
				log.Debug().Err(err).Msg("websocket client gone")
				return
			}
		}
	}
}
