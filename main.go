package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"chesstutor/bots"
	"chesstutor/config"
	"chesstutor/facts"
	"chesstutor/game"
	"chesstutor/rules"
	"chesstutor/storage"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

var (
	screenWidth  int
	screenHeight int
	squareSize   int
)

var (
	lightSquare = color.RGBA{240, 217, 181, 255}
	darkSquare  = color.RGBA{181, 136, 99, 255}
	selectedClr = color.RGBA{246, 246, 105, 200}
	targetClr   = color.RGBA{106, 168, 79, 160}
)

type Game struct {
	cfg    *config.Config
	store  *storage.Store
	prefs  *storage.Preferences
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	match       *game.Match
	difficulty  bots.Difficulty
	gameStarted bool
	recorded    bool

	board    rules.BoardSample
	snap     game.Snapshot
	selected chess.Square
	targets  map[chess.Square]bool
	dragging bool
	dragX    int
	dragY    int

	// Бот думает в отдельной горутине
	thinking atomic.Bool
	dirty    atomic.Bool

	mu      sync.Mutex
	message string

	boardOffsetX int
	boardOffsetY int
}

func NewGame(cfg *config.Config, store *storage.Store, prefs *storage.Preferences, log zerolog.Logger) *Game {
	screenWidth, screenHeight = ebiten.ScreenSizeInFullscreen()

	// Оставляем место для статуса сверху
	boardHeight := screenHeight - 80
	squareSize = boardHeight / 8
	if screenWidth/8 < squareSize {
		squareSize = screenWidth / 8
	}

	boardWidth := squareSize * 8
	ctx, cancel := context.WithCancel(context.Background())
	g := &Game{
		cfg:          cfg,
		store:        store,
		prefs:        prefs,
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
		difficulty:   cfg.Game.Difficulty,
		selected:     chess.NoSquare,
		boardOffsetX: (screenWidth - boardWidth) / 2,
		boardOffsetY: (screenHeight - boardHeight) / 2,
	}
	if d, err := bots.ParseDifficulty(prefs.Difficulty); err == nil && prefs.Difficulty != "" {
		g.difficulty = d
	}
	return g
}

func (g *Game) setMessage(msg string) {
	g.mu.Lock()
	g.message = msg
	g.mu.Unlock()
}

func (g *Game) getMessage() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.message
}

func (g *Game) Update() error {
	if !g.gameStarted {
		g.updateMenu()
		return nil
	}

	if g.dirty.Load() && !g.thinking.Load() {
		g.refresh()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) && !g.thinking.Load() {
		g.match.Reset()
		g.recorded = false
		g.setMessage("")
		g.dirty.Store(true)
		if g.match.BotToMove() {
			g.startBotMove()
		}
		return nil
	}

	// U - вернуть свой ход вместе с ответом бота
	if inpututil.IsKeyJustPressed(ebiten.KeyU) && !g.thinking.Load() {
		if err := g.match.Undo(); err != nil {
			g.setMessage("Нечего отменять")
		} else {
			g.setMessage("")
		}
		g.dirty.Store(true)
		return nil
	}

	if g.snap.Status != "playing" {
		g.finishGame()
		return nil
	}

	if g.thinking.Load() || g.snap.Turn != g.snap.Player {
		return nil
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if sq, ok := g.squareAt(x, y); ok {
			piece := g.board[sq]
			if piece != chess.NoPiece && piece.Color() == g.match.PlayerColor() {
				g.selected = sq
				g.dragging = true
				g.dragX, g.dragY = x, y
				g.targets = nil
				if g.prefs.ShowHints {
					g.targets = make(map[chess.Square]bool)
					for _, t := range g.match.LegalTargets(sq) {
						if s, err := rules.ParseSquare(t); err == nil {
							g.targets[s] = true
						}
					}
				}
			}
		}
	}

	if g.dragging {
		g.dragX, g.dragY = ebiten.CursorPosition()
	}

	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) && g.dragging {
		x, y := ebiten.CursorPosition()
		if target, ok := g.squareAt(x, y); ok && target != g.selected {
			g.playerMove(g.selected, target)
		}
		g.selected = chess.NoSquare
		g.dragging = false
		g.targets = nil
	}

	return nil
}

func (g *Game) updateMenu() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.Key1):
		g.difficulty = bots.Easy
	case inpututil.IsKeyJustPressed(ebiten.Key2):
		g.difficulty = bots.Normal
	case inpututil.IsKeyJustPressed(ebiten.Key3):
		g.difficulty = bots.Hard
	case inpututil.IsKeyJustPressed(ebiten.Key4):
		g.difficulty = bots.Random
	case inpututil.IsKeyJustPressed(ebiten.Key5):
		g.difficulty = bots.Newborn
	}

	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	x, y := ebiten.CursorPosition()
	btnWidth := 200
	btnHeight := 60
	btnY := screenHeight/2 + 100

	if y > btnY && y < btnY+btnHeight {
		if x > screenWidth/2-btnWidth-20 && x < screenWidth/2-20 {
			g.startGame(chess.White)
		} else if x > screenWidth/2+20 && x < screenWidth/2+20+btnWidth {
			g.startGame(chess.Black)
		}
	}
}

func (g *Game) startGame(c chess.Color) {
	tables := g.cfg.Game.Tables
	if t, err := bots.ParseTables(g.prefs.Tables); err == nil && g.prefs.Tables != "" {
		tables = t
	}
	g.match = game.NewMatch(game.Config{
		PlayerColor: c,
		Difficulty:  g.difficulty,
		Tables:      tables,
		ThinkDelay:  g.cfg.Game.ThinkDelay,
		Logger:      g.log,
	})

	ids, err := g.store.LoadShown(g.prefs.Username)
	if err != nil {
		g.log.Warn().Err(err).Msg("load shown facts")
	}
	g.match.UseShown(facts.NewShown(ids...))

	g.prefs.PlayerColor = c.String()
	g.prefs.Difficulty = g.difficulty.String()
	if err := g.store.SavePreferences(g.prefs); err != nil {
		g.log.Warn().Err(err).Msg("save preferences")
	}

	g.gameStarted = true
	g.refresh()
	if g.match.BotToMove() {
		g.startBotMove()
	}
}

func (g *Game) playerMove(from, to chess.Square) {
	_, fact, err := g.match.PlayerMove(from, to, chess.NoPieceType)
	switch {
	case errors.Is(err, rules.ErrIllegalMove):
		return
	case err != nil:
		g.setMessage("Ошибка: " + err.Error())
		return
	}
	if fact != nil {
		g.setMessage(fact.Title + "\n\n" + fact.Content)
	}
	g.refresh()
	if g.match.BotToMove() {
		g.startBotMove()
	}
}

func (g *Game) startBotMove() {
	g.thinking.Store(true)
	go func() {
		defer g.thinking.Store(false)
		defer g.dirty.Store(true)
		if _, err := g.match.AIMove(g.ctx); err != nil && !errors.Is(err, context.Canceled) {
			g.log.Error().Err(err).Msg("bot move")
			g.setMessage("Ошибка бота: " + err.Error())
		}
	}()
}

func (g *Game) refresh() {
	g.dirty.Store(false)
	g.board = g.match.Board()
	g.snap = g.match.Snapshot()
}

// finishGame сохраняет результат один раз за партию
func (g *Game) finishGame() {
	if g.recorded {
		return
	}
	g.recorded = true

	won, draw, ok := g.match.Result()
	if !ok {
		return
	}
	_, err := g.store.RecordGame(g.prefs.Username, storage.GameResult{
		Won:        won,
		Draw:       draw,
		Difficulty: g.difficulty.String(),
		Duration:   g.match.Snapshot().Duration,
	})
	if err != nil {
		g.log.Error().Err(err).Msg("record game")
	}
	if err := g.store.SaveShown(g.prefs.Username, g.match.ShownIDs()); err != nil {
		g.log.Error().Err(err).Msg("save shown facts")
	}
}

// squareAt переводит координаты экрана в клетку с учетом цвета игрока
func (g *Game) squareAt(x, y int) (chess.Square, bool) {
	x -= g.boardOffsetX
	y -= g.boardOffsetY
	if x < 0 || x >= squareSize*8 || y < 0 || y >= squareSize*8 {
		return chess.NoSquare, false
	}
	return g.squareFor(x/squareSize, y/squareSize), true
}

func (g *Game) squareFor(col, row int) chess.Square {
	if g.match.PlayerColor() == chess.Black {
		return chess.NewSquare(chess.File(7-col), chess.Rank(row))
	}
	return chess.NewSquare(chess.File(col), chess.Rank(7-row))
}

func pieceLabel(p chess.Piece) string {
	label := p.Type().String()
	if p.Color() == chess.White {
		return strings.ToUpper(label)
	}
	return label
}

func (g *Game) Draw(screen *ebiten.Image) {
	if !g.gameStarted {
		g.drawMenu(screen)
		return
	}

	sq := float32(squareSize)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			x := float32(col*squareSize + g.boardOffsetX)
			y := float32(row*squareSize + g.boardOffsetY)
			clr := lightSquare
			if (col+row)%2 == 1 {
				clr = darkSquare
			}
			vector.DrawFilledRect(screen, x, y, sq, sq, clr, false)

			square := g.squareFor(col, row)
			switch {
			case square == g.selected:
				vector.DrawFilledRect(screen, x, y, sq, sq, selectedClr, false)
			case g.targets[square]:
				vector.DrawFilledRect(screen, x+sq/3, y+sq/3, sq/3, sq/3, targetClr, false)
			}

			piece := g.board[square]
			if piece == chess.NoPiece || (g.dragging && square == g.selected) {
				continue
			}
			ebitenutil.DebugPrintAt(screen, pieceLabel(piece), int(x+sq/2)-3, int(y+sq/2)-8)
		}
	}

	// Перетаскиваемая фигура
	if g.dragging {
		if piece := g.board[g.selected]; piece != chess.NoPiece {
			ebitenutil.DebugPrintAt(screen, pieceLabel(piece), g.dragX-3, g.dragY-8)
		}
	}

	status := "Ваш ход"
	switch {
	case g.thinking.Load():
		status = "Бот думает..."
	case g.snap.Status != "playing":
		status = fmt.Sprintf("Партия окончена: %s (%s). R - новая партия, U - отменить ход", g.snap.Result, g.snap.Status)
	case g.snap.Turn != g.snap.Player:
		status = "Ход бота"
	case len(g.snap.History) > 0 && g.snap.History[len(g.snap.History)-1].IsCheck:
		status = "Шах! Ваш ход"
	}
	ebitenutil.DebugPrintAt(screen, status, 20, 20)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s | %s", g.snap.Bot, g.snap.Difficulty), screenWidth/2-50, 20)

	if msg := g.getMessage(); msg != "" {
		width := (g.boardOffsetX - 40) / 6
		ebitenutil.DebugPrintAt(screen, wrap(msg, width), 20, g.boardOffsetY)
	}
}

func (g *Game) drawMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "Шахматы на Go", screenWidth/2-70, screenHeight/2-50)
	ebitenutil.DebugPrintAt(screen, "Выберите цвет фигур:", screenWidth/2-100, screenHeight/2)
	ebitenutil.DebugPrintAt(screen,
		fmt.Sprintf("Сложность: %s (1 - easy, 2 - normal, 3 - hard, 4 - random, 5 - newborn)", g.difficulty),
		screenWidth/2-150, screenHeight/2+30)

	btnY := float32(screenHeight/2 + 100)
	whiteX := float32(screenWidth/2 - 200 - 20)
	blackX := float32(screenWidth/2 + 20)
	vector.DrawFilledRect(screen, whiteX, btnY, 200, 60, color.RGBA{200, 200, 200, 255}, false)
	ebitenutil.DebugPrintAt(screen, "Играть белыми", int(whiteX)+50, int(btnY)+20)
	vector.DrawFilledRect(screen, blackX, btnY, 200, 60, color.RGBA{50, 50, 50, 255}, false)
	ebitenutil.DebugPrintAt(screen, "Играть черными", int(blackX)+50, int(btnY)+20)
}

// wrap breaks text into lines of at most width runes.
func wrap(text string, width int) string {
	if width < 10 {
		width = 10
	}
	var out strings.Builder
	for i, para := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		n := 0
		for j, word := range strings.Fields(para) {
			l := len([]rune(word))
			if j > 0 && n+1+l > width {
				out.WriteByte('\n')
				n = 0
			} else if j > 0 {
				out.WriteByte(' ')
				n++
			}
			out.WriteString(word)
			n += l
		}
	}
	return out.String()
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load config")
	}
	log := config.NewLogger(cfg.Logs, os.Stderr)

	store, err := storage.Open(cfg.DataDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	username := os.Getenv("USER")
	if username == "" {
		username = "player"
	}
	prefs, err := store.LoadPreferences(username)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load preferences")
	}

	g := NewGame(cfg, store, prefs, log)
	defer g.cancel()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Шахматы на Go")
	ebiten.SetWindowResizable(true)
	if err := ebiten.RunGame(g); err != nil {
		log.Error().Err(err).Msg("game loop")
	}
}
