// Package server exposes matches against the bots over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"chesstutor/bots"
	"chesstutor/facts"
	"chesstutor/game"
	"chesstutor/rules"
	"chesstutor/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var errUnknownGame = errors.New("unknown game")

// Options holds the defaults for new games; a player's stored
// preferences override Difficulty and Tables.
type Options struct {
	Difficulty     bots.Difficulty
	Tables         *bots.Tables
	ThinkDelay     time.Duration
	AllowedOrigins []string
	Catalog        *facts.Catalog
	Picker         *facts.Picker
	Logger         zerolog.Logger
}

// Server keeps the live matches in memory and records finished ones.
type Server struct {
	store *storage.Store
	opts  Options
	log   zerolog.Logger

	mu     sync.Mutex
	games  map[string]*entry
	nextID int
}

type entry struct {
	match    *game.Match
	player   string
	recorded bool
}

func New(store *storage.Store, opts Options) *Server {
	if opts.Catalog == nil {
		opts.Catalog = facts.DefaultCatalog()
	}
	if opts.Picker == nil {
		opts.Picker = facts.NewPicker(opts.Catalog, rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	return &Server{
		store: store,
		opts:  opts,
		log:   opts.Logger.With().Str("component", "server").Logger(),
		games: make(map[string]*entry),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.accessLog())

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", s.health)

	api := router.Group("/api")
	api.POST("/games", s.createGame)
	api.GET("/games/:id", s.getGame)
	api.GET("/games/:id/legal", s.legalTargets)
	api.POST("/games/:id/moves", s.playMove)
	api.POST("/games/:id/reset", s.resetGame)
	api.POST("/games/:id/undo", s.undoMove)
	api.GET("/facts", s.listFacts)
	api.GET("/stats", s.stats)

	return router
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := s.log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = s.log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) add(e *entry) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := "g" + strconv.Itoa(s.nextID)
	s.games[id] = e
	return id
}

func (s *Server) lookup(c *gin.Context) (*entry, bool) {
	s.mu.Lock()
	e, ok := s.games[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		respondError(c, errUnknownGame)
	}
	return e, ok
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnknownGame):
		return http.StatusNotFound
	case errors.Is(err, rules.ErrIllegalMove), errors.Is(err, rules.ErrInvalidFEN):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotYourTurn), errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrBusy), errors.Is(err, rules.ErrGameOver),
		errors.Is(err, rules.ErrNothingToUndo):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) health(c *gin.Context) {
	s.mu.Lock()
	n := len(s.games)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "games": n})
}
