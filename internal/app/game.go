package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sunears/LiaoFansLifeRecord/internal/domain"
	"github.com/sunears/LiaoFansLifeRecord/internal/ports"
)

// User-facing error texts, surfaced in the session state when a generation
// fails. Non-fatal: the game always stays playable.
const (
	scenarioFailureMsg   = "无法推演未来。请检查网络连接。"
	resolutionFailureMsg = "天意静默 (API Error)"
)

// Ending is the final verdict of a finished game.
type Ending struct {
	Tier    domain.EndingTier
	Verdict string
}

// GameView is the application-level snapshot of a session (no HTTP types).
// Scenario still carries the hidden context; the transport layer must not
// serialize it.
type GameView struct {
	ID         string
	Phase      domain.Phase
	Stats      domain.PlayerStats
	Hand       []domain.Card
	Scenario   *domain.Scenario
	Selected   *domain.Card
	Resolution *domain.Resolution
	Log        []domain.LogEntry
	Error      string
	Ending     *Ending
}

// GameService runs the turn cycle for every session: draw a hand, request a
// scenario, take the player's choice, request a judgment, apply it, advance.
type GameService struct {
	catalog   ports.CatalogStore
	generator ports.Generator
	rng       domain.RNG
	sessions  *SessionStore
	logger    *slog.Logger
	catalogID string
	lang      string
}

func NewGameService(cs ports.CatalogStore, gen ports.Generator, rng domain.RNG, sessions *SessionStore, logger *slog.Logger, catalogID, lang string) *GameService {
	return &GameService{
		catalog:   cs,
		generator: gen,
		rng:       rng,
		sessions:  sessions,
		logger:    logger,
		catalogID: catalogID,
		lang:      lang,
	}
}

// genToken identifies one in-flight generation request. A result is applied
// only if the session still matches the token when it arrives.
type genToken struct {
	epoch uint64
	turn  int
}

func (sess *Session) scenarioTokenValid(tok genToken) bool {
	return sess.epoch == tok.epoch && sess.phase == domain.PhaseScenarioLoading && sess.stats.Turn == tok.turn
}

func (sess *Session) resolveTokenValid(tok genToken) bool {
	return sess.epoch == tok.epoch && sess.phase == domain.PhaseResolving && sess.stats.Turn == tok.turn
}

// NewGame creates a session and starts its first turn. An empty lang falls
// back to the service default.
func (g *GameService) NewGame(ctx context.Context, lang string) (GameView, error) {
	if lang == "" {
		lang = g.lang
	}
	sess := g.sessions.Create(lang)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return g.startLocked(ctx, sess)
}

// Restart resets a session to a fresh game. It is valid in any phase: the
// epoch bump makes any in-flight generation result stale.
func (g *GameService) Restart(ctx context.Context, id string) (GameView, error) {
	sess, err := g.sessions.Get(id)
	if err != nil {
		return GameView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return g.startLocked(ctx, sess)
}

func (g *GameService) startLocked(ctx context.Context, sess *Session) (GameView, error) {
	sess.epoch++
	sess.stats = domain.InitialStats()
	sess.log = nil
	sess.scenario = nil
	sess.selected = nil
	sess.resolution = nil
	sess.errMsg = ""
	sess.phase = domain.PhaseScenarioLoading
	sess.touched = time.Now()
	gamesStartedTotal.Inc()

	return g.beginTurnLocked(ctx, sess, 1)
}

// beginTurnLocked runs one turn start: hand draw, scenario request, entry
// into the interactive phase. Called with sess.mu held; the lock is released
// around the generator call and reacquired before returning.
func (g *GameService) beginTurnLocked(ctx context.Context, sess *Session, turn int) (GameView, error) {
	if turn > domain.MaxTurns {
		g.finishLocked(sess)
		return sess.viewLocked(), nil
	}

	cat, err := g.catalog.GetCatalog(ctx, g.catalogID)
	if err != nil {
		return GameView{}, fmt.Errorf("get catalog: %w", err)
	}
	hand, err := domain.DrawHand(cat, g.rng)
	if err != nil {
		return GameView{}, fmt.Errorf("draw hand: %w", err)
	}

	sess.hand = hand
	sess.selected = nil
	sess.resolution = nil
	sess.errMsg = ""

	tok := genToken{epoch: sess.epoch, turn: turn}
	req := ports.ScenarioRequest{
		Turn:    turn,
		Merit:   sess.stats.Merit,
		Wisdom:  sess.stats.Wisdom,
		Destiny: sess.stats.Destiny,
		Lang:    sess.lang,
	}

	sess.mu.Unlock()
	res, genErr := g.generator.GenerateScenario(ctx, req)
	sess.mu.Lock()

	if !sess.scenarioTokenValid(tok) {
		staleGenerationsTotal.Inc()
		g.logger.InfoContext(ctx, "discarding stale scenario", "session", sess.id, "turn", tok.turn)
		return sess.viewLocked(), nil
	}

	if genErr != nil {
		generationFailuresTotal.WithLabelValues("scenario").Inc()
		g.logger.WarnContext(ctx, "scenario generation failed", "session", sess.id, "turn", turn, "error", genErr)
		sess.errMsg = scenarioFailureMsg
		fb := domain.FallbackScenario()
		sess.scenario = &fb
	} else {
		sess.scenario = &domain.Scenario{
			Title:       res.Title,
			Description: res.Description,
			Difficulty:  res.Difficulty,
			Context:     res.Context,
		}
	}

	// Degraded or not, the turn is playable.
	sess.phase = domain.PhasePlayerTurn
	return sess.viewLocked(), nil
}

// Game returns the current session snapshot.
func (g *GameService) Game(id string) (GameView, error) {
	sess, err := g.sessions.Get(id)
	if err != nil {
		return GameView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touched = time.Now()
	return sess.viewLocked(), nil
}

// SelectCard records the pending selection. Only the last selection before a
// confirm is kept. The session state is untouched on any error.
func (g *GameService) SelectCard(id, cardID string) (GameView, error) {
	sess, err := g.sessions.Get(id)
	if err != nil {
		return GameView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touched = time.Now()

	if sess.phase != domain.PhasePlayerTurn {
		return GameView{}, domain.ErrInvalidPhase
	}
	for i := range sess.hand {
		if sess.hand[i].ID == cardID {
			card := sess.hand[i]
			sess.selected = &card
			return sess.viewLocked(), nil
		}
	}
	return GameView{}, domain.ErrCardNotInHand
}

// Confirm commits the pending selection: requests a judgment and, on success,
// applies the deltas exactly once and appends the log entry. On failure the
// turn reverts to the interactive phase with selection and scenario intact so
// the player can retry.
func (g *GameService) Confirm(ctx context.Context, id string) (GameView, error) {
	sess, err := g.sessions.Get(id)
	if err != nil {
		return GameView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touched = time.Now()

	if sess.phase != domain.PhasePlayerTurn {
		return GameView{}, domain.ErrInvalidPhase
	}
	if sess.selected == nil {
		return GameView{}, domain.ErrNoSelection
	}
	if sess.scenario == nil {
		return GameView{}, domain.ErrNoScenario
	}

	sess.phase = domain.PhaseResolving
	sess.errMsg = ""

	scenario := *sess.scenario
	card := *sess.selected
	tok := genToken{epoch: sess.epoch, turn: sess.stats.Turn}
	req := ports.ResolveRequest{
		ScenarioTitle:       scenario.Title,
		ScenarioDescription: scenario.Description,
		ScenarioContext:     scenario.Context,
		CardName:            card.Name,
		CardCategory:        string(card.Category),
		CardDescription:     card.Description,
		CardQuote:           card.Quote,
		Lang:                sess.lang,
	}

	sess.mu.Unlock()
	res, genErr := g.generator.ResolveAction(ctx, req)
	sess.mu.Lock()

	if !sess.resolveTokenValid(tok) {
		staleGenerationsTotal.Inc()
		g.logger.InfoContext(ctx, "discarding stale resolution", "session", sess.id, "turn", tok.turn)
		return sess.viewLocked(), nil
	}

	if genErr != nil {
		generationFailuresTotal.WithLabelValues("resolution").Inc()
		g.logger.WarnContext(ctx, "resolution failed", "session", sess.id, "turn", tok.turn, "error", genErr)
		sess.errMsg = resolutionFailureMsg
		sess.phase = domain.PhasePlayerTurn
		return sess.viewLocked(), nil
	}

	resolution := domain.Resolution{
		Narrative:     res.Narrative,
		MeritChange:   res.MeritChange,
		WisdomChange:  res.WisdomChange,
		DestinyChange: res.DestinyChange,
		Critique:      res.Critique,
	}

	// Deltas are applied unclamped; the destiny check happens only on advance.
	sess.stats.Merit += resolution.MeritChange
	sess.stats.Wisdom += resolution.WisdomChange
	sess.stats.Destiny += resolution.DestinyChange

	sess.log = append(sess.log, domain.LogEntry{
		Turn:          tok.turn,
		ScenarioTitle: scenario.Title,
		ActionCard:    card.Name,
		Outcome:       resolution.Narrative,
		Delta: domain.StatsDelta{
			Merit:   resolution.MeritChange,
			Wisdom:  resolution.WisdomChange,
			Destiny: resolution.DestinyChange,
		},
	})

	sess.resolution = &resolution
	sess.phase = domain.PhaseResult
	turnsResolvedTotal.Inc()

	return sess.viewLocked(), nil
}

// Advance acknowledges the result and either begins the next turn or ends
// the game. Running out of turns and running out of destiny both end it.
func (g *GameService) Advance(ctx context.Context, id string) (GameView, error) {
	sess, err := g.sessions.Get(id)
	if err != nil {
		return GameView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touched = time.Now()

	if sess.phase != domain.PhaseResult {
		return GameView{}, domain.ErrInvalidPhase
	}

	next := sess.stats.Turn + 1
	if next > domain.MaxTurns || sess.stats.Destiny <= 0 {
		g.finishLocked(sess)
		return sess.viewLocked(), nil
	}

	sess.stats.Turn = next
	sess.phase = domain.PhaseScenarioLoading
	return g.beginTurnLocked(ctx, sess, next)
}

func (g *GameService) finishLocked(sess *Session) {
	sess.phase = domain.PhaseGameOver
	tier := domain.ClassifyEnding(sess.stats.Merit, sess.stats.Wisdom)
	gamesCompletedTotal.WithLabelValues(string(tier)).Inc()
}

func (sess *Session) viewLocked() GameView {
	v := GameView{
		ID:    sess.id,
		Phase: sess.phase,
		Stats: sess.stats,
		Error: sess.errMsg,
	}
	if len(sess.hand) > 0 {
		v.Hand = append([]domain.Card(nil), sess.hand...)
	}
	if len(sess.log) > 0 {
		v.Log = append([]domain.LogEntry(nil), sess.log...)
	}
	if sess.scenario != nil {
		sc := *sess.scenario
		v.Scenario = &sc
	}
	if sess.selected != nil {
		card := *sess.selected
		v.Selected = &card
	}
	if sess.resolution != nil {
		res := *sess.resolution
		v.Resolution = &res
	}
	if sess.phase == domain.PhaseGameOver {
		tier := domain.ClassifyEnding(sess.stats.Merit, sess.stats.Wisdom)
		v.Ending = &Ending{Tier: tier, Verdict: tier.Verdict()}
	}
	return v
}
