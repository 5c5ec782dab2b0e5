package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chesstutor/bots"
	"chesstutor/facts"
	"chesstutor/game"
	"chesstutor/rules"
	"chesstutor/storage"

	"github.com/gin-gonic/gin"
	"github.com/notnil/chess"
)

const (
	defaultPlayer = "player"
	// botTimeout bounds a bot reply on top of the think delay.
	botTimeout = 30 * time.Second
)

type newGameRequest struct {
	Player     string `json:"player"`
	Color      string `json:"color"`
	Difficulty string `json:"difficulty"`
	Tables     string `json:"tables"`
}

type moveRequest struct {
	From      string `json:"from" binding:"required"`
	To        string `json:"to" binding:"required"`
	Promotion string `json:"promotion"`
}

// moveResponse always carries the accepted player move. A failed bot reply
// is reported in BotError and retried by the next request on the game.
type moveResponse struct {
	Move     game.MoveRecord  `json:"move"`
	Fact     *facts.Fact      `json:"fact,omitempty"`
	Reply    *game.MoveRecord `json:"reply,omitempty"`
	BotError string           `json:"bot_error,omitempty"`
	State    game.Snapshot    `json:"state"`
}

func parseColor(text string) (chess.Color, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "w", "white":
		return chess.White, nil
	case "b", "black":
		return chess.Black, nil
	}
	return chess.NoColor, fmt.Errorf("unknown color %q", text)
}

// POST /api/games
func (s *Server) createGame(c *gin.Context) {
	var req newGameRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if req.Player == "" {
		req.Player = defaultPlayer
	}

	prefs, err := s.store.LoadPreferences(req.Player)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Color != "" {
		prefs.PlayerColor = req.Color
	}
	if req.Difficulty != "" {
		prefs.Difficulty = req.Difficulty
	}
	if req.Tables != "" {
		prefs.Tables = req.Tables
	}

	color, err := parseColor(prefs.PlayerColor)
	if err != nil {
		badRequest(c, err)
		return
	}
	difficulty := s.opts.Difficulty
	if prefs.Difficulty != "" {
		if difficulty, err = bots.ParseDifficulty(prefs.Difficulty); err != nil {
			badRequest(c, err)
			return
		}
	}
	tables := s.opts.Tables
	if prefs.Tables != "" {
		if tables, err = bots.ParseTables(prefs.Tables); err != nil {
			badRequest(c, err)
			return
		}
	}

	shownIDs, err := s.store.LoadShown(req.Player)
	if err != nil {
		respondError(c, err)
		return
	}

	match := game.NewMatch(game.Config{
		PlayerColor: color,
		Difficulty:  difficulty,
		Tables:      tables,
		ThinkDelay:  s.opts.ThinkDelay,
		Picker:      s.opts.Picker,
		Logger:      s.opts.Logger,
	})
	match.UseShown(facts.NewShown(shownIDs...))

	if err := s.store.SavePreferences(prefs); err != nil {
		s.log.Warn().Err(err).Str("player", req.Player).Msg("save preferences")
	}

	e := &entry{match: match, player: req.Player}
	id := s.add(e)
	s.log.Info().
		Str("game", id).
		Str("player", req.Player).
		Str("color", color.String()).
		Str("bot", match.BotName()).
		Msg("game created")

	if _, err := s.botReply(c.Request.Context(), e); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "state": match.Snapshot()})
}

// GET /api/games/:id
func (s *Server) getGame(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	if _, err := s.botReply(c.Request.Context(), e); err != nil {
		s.log.Warn().Err(err).Str("game", c.Param("id")).Msg("resume bot reply")
	}
	c.JSON(http.StatusOK, e.match.Snapshot())
}

// GET /api/games/:id/legal?from=e2
func (s *Server) legalTargets(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	from, err := rules.ParseSquare(c.Query("from"))
	if err != nil {
		badRequest(c, err)
		return
	}
	targets := e.match.LegalTargets(from)
	if targets == nil {
		targets = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"from": from.String(), "targets": targets})
}

// POST /api/games/:id/moves
func (s *Server) playMove(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	from, err := rules.ParseSquare(req.From)
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := rules.ParseSquare(req.To)
	if err != nil {
		badRequest(c, err)
		return
	}
	promo, err := rules.ParsePromotion(req.Promotion)
	if err != nil {
		badRequest(c, err)
		return
	}

	// A reply left over from an earlier request goes first.
	if _, err := s.botReply(c.Request.Context(), e); err != nil {
		respondError(c, err)
		return
	}

	rec, fact, err := e.match.PlayerMove(from, to, promo)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := moveResponse{Move: rec, Fact: fact}

	reply, err := s.botReply(c.Request.Context(), e)
	if err != nil {
		s.log.Error().Err(err).Str("game", c.Param("id")).Msg("bot reply")
		resp.BotError = err.Error()
	}
	resp.Reply = reply
	s.finish(e)

	resp.State = e.match.Snapshot()
	c.JSON(http.StatusOK, resp)
}

// POST /api/games/:id/reset
func (s *Server) resetGame(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	e.match.Reset()
	s.mu.Lock()
	e.recorded = false
	s.mu.Unlock()

	if _, err := s.botReply(c.Request.Context(), e); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e.match.Snapshot())
}

// POST /api/games/:id/undo
func (s *Server) undoMove(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	if err := e.match.Undo(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e.match.Snapshot())
}

// botReply lets the bot move if it is its turn. The reply outlives the
// request: a client that hangs up must not leave the bot's turn unplayed.
func (s *Server) botReply(ctx context.Context, e *entry) (*game.MoveRecord, error) {
	if !e.match.BotToMove() {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ThinkDelay+botTimeout)
	defer cancel()
	rec, err := e.match.AIMove(ctx)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// finish persists the shown facts and, once, the result of a finished game.
func (s *Server) finish(e *entry) {
	if err := s.store.SaveShown(e.player, e.match.ShownIDs()); err != nil {
		s.log.Error().Err(err).Str("player", e.player).Msg("save shown facts")
	}

	won, draw, over := e.match.Result()
	if !over {
		return
	}
	s.mu.Lock()
	done := e.recorded
	e.recorded = true
	s.mu.Unlock()
	if done {
		return
	}

	_, err := s.store.RecordGame(e.player, storage.GameResult{
		Won:        won,
		Draw:       draw,
		Difficulty: e.match.Difficulty().String(),
		Duration:   e.match.Snapshot().Duration,
	})
	if err != nil {
		s.log.Error().Err(err).Str("player", e.player).Msg("record game")
	}
}

// GET /api/facts?piece=q&level=beginner&category=rules
func (s *Server) listFacts(c *gin.Context) {
	list := s.opts.Catalog.All()
	if p := c.Query("piece"); p != "" {
		subject, err := facts.ParseSubject(p)
		if err != nil {
			badRequest(c, err)
			return
		}
		list = s.opts.Catalog.ForSubject(subject)
	}

	keep := func(facts.Fact) bool { return true }
	if l := c.Query("level"); l != "" {
		level, err := facts.ParseLevel(l)
		if err != nil {
			badRequest(c, err)
			return
		}
		prev := keep
		keep = func(f facts.Fact) bool { return prev(f) && f.Level == level }
	}
	if cat := c.Query("category"); cat != "" {
		category, err := facts.ParseCategory(cat)
		if err != nil {
			badRequest(c, err)
			return
		}
		prev := keep
		keep = func(f facts.Fact) bool { return prev(f) && f.Category == category }
	}

	out := []facts.Fact{}
	for _, f := range list {
		if keep(f) {
			out = append(out, f)
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "facts": out})
}

// GET /api/stats?player=name
func (s *Server) stats(c *gin.Context) {
	player := c.DefaultQuery("player", defaultPlayer)
	stats, err := s.store.LoadStats(player)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"player":   player,
		"stats":    stats,
		"win_rate": stats.WinRate(),
	})
}
