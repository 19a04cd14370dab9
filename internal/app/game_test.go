package app_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sunears/LiaoFansLifeRecord/internal/app"
	"github.com/sunears/LiaoFansLifeRecord/internal/domain"
	"github.com/sunears/LiaoFansLifeRecord/internal/ports"
)

type stubCatalogStore struct {
	catalog domain.Catalog
	err     error
}

func (s *stubCatalogStore) GetCatalog(_ context.Context, _ string) (domain.Catalog, error) {
	return s.catalog, s.err
}

// stubGenerator answers with the configured funcs and counts calls.
type stubGenerator struct {
	mu            sync.Mutex
	scenarioFn    func(ports.ScenarioRequest) (ports.ScenarioResult, error)
	resolveFn     func(ports.ResolveRequest) (ports.ResolutionResult, error)
	scenarioCalls int
	resolveCalls  int
	lastScenario  ports.ScenarioRequest
}

func (s *stubGenerator) GenerateScenario(_ context.Context, req ports.ScenarioRequest) (ports.ScenarioResult, error) {
	s.mu.Lock()
	s.scenarioCalls++
	s.lastScenario = req
	fn := s.scenarioFn
	s.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return ports.ScenarioResult{Title: "一念之试", Description: "善恶在一念之间。", Difficulty: 2, Context: "hidden"}, nil
}

func (s *stubGenerator) ResolveAction(_ context.Context, req ports.ResolveRequest) (ports.ResolutionResult, error) {
	s.mu.Lock()
	s.resolveCalls++
	fn := s.resolveFn
	s.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return ports.ResolutionResult{Narrative: "因果自回。", MeritChange: 2, WisdomChange: 1, DestinyChange: 0, Critique: "善哉。"}, nil
}

func (s *stubGenerator) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenarioCalls, s.resolveCalls
}

type zeroRNG struct{}

func (zeroRNG) Intn(n int) int { return 0 }

func fullCatalog() domain.Catalog {
	cards := make([]domain.Card, domain.CatalogSize)
	for i := range cards {
		cards[i] = domain.Card{
			ID:          fmt.Sprintf("c%d", i+1),
			Name:        fmt.Sprintf("Card %d", i+1),
			Category:    domain.CategoryReform,
			Description: "A lesson.",
			Quote:       "A quote.",
		}
	}
	return domain.Catalog{ID: "liaofan", Name: "liaofan", Cards: cards}
}

func newService(gen ports.Generator) *app.GameService {
	store := app.NewSessionStore(time.Hour)
	cs := &stubCatalogStore{catalog: fullCatalog()}
	return app.NewGameService(cs, gen, zeroRNG{}, store, slog.Default(), "liaofan", "zh")
}

func TestNewGame_EntersPlayerTurn(t *testing.T) {
	gen := &stubGenerator{}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Phase != domain.PhasePlayerTurn {
		t.Fatalf("expected player_turn, got %s", view.Phase)
	}
	if view.Stats != domain.InitialStats() {
		t.Errorf("unexpected stats: %+v", view.Stats)
	}
	if len(view.Hand) != domain.HandSize {
		t.Fatalf("expected %d hand cards, got %d", domain.HandSize, len(view.Hand))
	}
	seen := make(map[string]bool)
	for _, c := range view.Hand {
		if seen[c.ID] {
			t.Errorf("duplicate hand card: %s", c.ID)
		}
		seen[c.ID] = true
	}
	if view.Scenario == nil {
		t.Fatal("expected a scenario")
	}
	if view.Error != "" {
		t.Errorf("unexpected error message: %s", view.Error)
	}

	scenarios, _ := gen.counts()
	if scenarios != 1 {
		t.Errorf("expected 1 scenario request, got %d", scenarios)
	}
	gen.mu.Lock()
	gotTurn := gen.lastScenario.Turn
	gen.mu.Unlock()
	if gotTurn != 1 {
		t.Errorf("scenario requested for turn %d, want 1", gotTurn)
	}
}

func TestNewGame_GenerationFailure_FallsBack(t *testing.T) {
	gen := &stubGenerator{
		scenarioFn: func(ports.ScenarioRequest) (ports.ScenarioResult, error) {
			return ports.ScenarioResult{}, domain.ErrUpstreamLLM
		},
	}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Phase != domain.PhasePlayerTurn {
		t.Fatalf("expected player_turn despite failure, got %s", view.Phase)
	}
	if view.Error == "" {
		t.Error("expected a user-visible error message")
	}
	if view.Scenario == nil {
		t.Fatal("expected the fallback scenario")
	}
	if view.Scenario.Title != domain.FallbackScenario().Title {
		t.Errorf("unexpected scenario: %s", view.Scenario.Title)
	}
}

func TestSelectCard_LastSelectionWins(t *testing.T) {
	gen := &stubGenerator{}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SelectCard(view.ID, view.Hand[1].ID); err != nil {
		t.Fatalf("first select: %v", err)
	}
	got, err := svc.SelectCard(view.ID, view.Hand[0].ID)
	if err != nil {
		t.Fatalf("second select: %v", err)
	}
	if got.Selected == nil || got.Selected.ID != view.Hand[0].ID {
		t.Errorf("expected last selection %s to win", view.Hand[0].ID)
	}

	// A bad card id is rejected and the pending selection survives.
	if _, err := svc.SelectCard(view.ID, "nope"); !errors.Is(err, domain.ErrCardNotInHand) {
		t.Fatalf("expected ErrCardNotInHand, got %v", err)
	}
	after, err := svc.Game(view.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Selected == nil || after.Selected.ID != view.Hand[0].ID {
		t.Error("selection changed by a rejected select")
	}
}

func TestConfirm_AppliesDeltasAndLogsOnce(t *testing.T) {
	gen := &stubGenerator{
		resolveFn: func(ports.ResolveRequest) (ports.ResolutionResult, error) {
			return ports.ResolutionResult{
				Narrative:     "你施以援手。",
				MeritChange:   5,
				WisdomChange:  -2,
				DestinyChange: 1,
				Critique:      "善。",
			}, nil
		},
	}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SelectCard(view.ID, view.Hand[0].ID); err != nil {
		t.Fatalf("select: %v", err)
	}

	got, err := svc.Confirm(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if got.Phase != domain.PhaseResult {
		t.Fatalf("expected result phase, got %s", got.Phase)
	}
	want := domain.PlayerStats{Merit: 5, Wisdom: -2, Destiny: 51, Turn: 1}
	if got.Stats != want {
		t.Errorf("stats = %+v, want %+v", got.Stats, want)
	}
	if got.Resolution == nil || got.Resolution.Narrative != "你施以援手。" {
		t.Error("missing resolution")
	}
	if len(got.Log) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(got.Log))
	}
	entry := got.Log[0]
	if entry.Turn != 1 {
		t.Errorf("log turn = %d, want 1 (pre-update turn number)", entry.Turn)
	}
	if entry.ActionCard != view.Hand[0].Name {
		t.Errorf("log card = %s, want %s", entry.ActionCard, view.Hand[0].Name)
	}
	if entry.Delta != (domain.StatsDelta{Merit: 5, Wisdom: -2, Destiny: 1}) {
		t.Errorf("log delta = %+v", entry.Delta)
	}

	// A second confirm in the result phase cannot re-apply the deltas.
	if _, err := svc.Confirm(context.Background(), view.ID); !errors.Is(err, domain.ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
	after, _ := svc.Game(view.ID)
	if after.Stats != want {
		t.Errorf("stats changed by rejected confirm: %+v", after.Stats)
	}
}

func TestConfirm_WithoutSelection(t *testing.T) {
	gen := &stubGenerator{}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Confirm(context.Background(), view.ID); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}

	after, _ := svc.Game(view.ID)
	if after.Phase != domain.PhasePlayerTurn || after.Stats != domain.InitialStats() {
		t.Error("rejected confirm mutated the session")
	}
	if _, resolves := gen.counts(); resolves != 0 {
		t.Error("rejected confirm reached the generator")
	}
}

func TestConfirm_FailureRevertsForRetry(t *testing.T) {
	fail := true
	gen := &stubGenerator{
		resolveFn: func(ports.ResolveRequest) (ports.ResolutionResult, error) {
			if fail {
				return ports.ResolutionResult{}, domain.ErrUpstreamLLM
			}
			return ports.ResolutionResult{Narrative: "终有回应。", MeritChange: 3, Critique: "诚。"}, nil
		},
	}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SelectCard(view.ID, view.Hand[2].ID); err != nil {
		t.Fatalf("select: %v", err)
	}

	got, err := svc.Confirm(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Phase != domain.PhasePlayerTurn {
		t.Fatalf("expected revert to player_turn, got %s", got.Phase)
	}
	if got.Error == "" {
		t.Error("expected a user-visible error message")
	}
	if got.Stats != domain.InitialStats() {
		t.Errorf("stats changed on failed resolution: %+v", got.Stats)
	}
	if len(got.Log) != 0 {
		t.Errorf("log written on failed resolution: %d entries", len(got.Log))
	}
	if got.Selected == nil || got.Selected.ID != view.Hand[2].ID {
		t.Error("selection lost; retry impossible")
	}
	if got.Scenario == nil {
		t.Error("scenario lost; retry impossible")
	}

	// Retry succeeds without reselecting.
	fail = false
	retry, err := svc.Confirm(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("retry confirm: %v", err)
	}
	if retry.Phase != domain.PhaseResult {
		t.Fatalf("expected result after retry, got %s", retry.Phase)
	}
	if retry.Stats.Merit != 3 {
		t.Errorf("retry merit = %d, want 3", retry.Stats.Merit)
	}
}

func TestAdvance_BeginsNextTurn(t *testing.T) {
	gen := &stubGenerator{}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SelectCard(view.ID, view.Hand[0].ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := svc.Confirm(context.Background(), view.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	got, err := svc.Advance(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	if got.Phase != domain.PhasePlayerTurn {
		t.Fatalf("expected player_turn, got %s", got.Phase)
	}
	if got.Stats.Turn != 2 {
		t.Errorf("turn = %d, want 2", got.Stats.Turn)
	}
	if got.Selected != nil {
		t.Error("selection not cleared at turn start")
	}
	if got.Resolution != nil {
		t.Error("resolution not cleared at turn start")
	}
	scenarios, _ := gen.counts()
	if scenarios != 2 {
		t.Errorf("expected 2 scenario requests, got %d", scenarios)
	}
	gen.mu.Lock()
	gotTurn := gen.lastScenario.Turn
	gen.mu.Unlock()
	if gotTurn != 2 {
		t.Errorf("scenario requested for turn %d, want 2", gotTurn)
	}
}

func TestAdvance_DestinyDepletedEndsGame(t *testing.T) {
	gen := &stubGenerator{
		resolveFn: func(ports.ResolveRequest) (ports.ResolutionResult, error) {
			return ports.ResolutionResult{Narrative: "厄运临头。", DestinyChange: -50, Critique: "慎。"}, nil
		},
	}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SelectCard(view.ID, view.Hand[0].ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := svc.Confirm(context.Background(), view.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	got, err := svc.Advance(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	// Destiny hit zero, so the game ends even though turns remain.
	if got.Phase != domain.PhaseGameOver {
		t.Fatalf("expected game_over, got %s", got.Phase)
	}
	if got.Ending == nil {
		t.Fatal("expected an ending verdict")
	}
	if got.Ending.Tier != domain.EndingAdrift {
		t.Errorf("ending tier = %s, want %s", got.Ending.Tier, domain.EndingAdrift)
	}
	scenarios, _ := gen.counts()
	if scenarios != 1 {
		t.Errorf("scenario requested after game over: %d calls", scenarios)
	}
}

func TestAdvance_TurnLimitEndsGame(t *testing.T) {
	gen := &stubGenerator{
		resolveFn: func(ports.ResolveRequest) (ports.ResolutionResult, error) {
			return ports.ResolutionResult{Narrative: "善行累积。", MeritChange: 6, WisdomChange: 4, Critique: "进。"}, nil
		},
	}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var last app.GameView
	for turn := 1; turn <= domain.MaxTurns; turn++ {
		current, err := svc.Game(view.ID)
		if err != nil {
			t.Fatalf("turn %d: %v", turn, err)
		}
		if current.Stats.Turn != turn {
			t.Fatalf("expected turn %d, got %d", turn, current.Stats.Turn)
		}
		if _, err := svc.SelectCard(view.ID, current.Hand[0].ID); err != nil {
			t.Fatalf("turn %d select: %v", turn, err)
		}
		if _, err := svc.Confirm(context.Background(), view.ID); err != nil {
			t.Fatalf("turn %d confirm: %v", turn, err)
		}
		last, err = svc.Advance(context.Background(), view.ID)
		if err != nil {
			t.Fatalf("turn %d advance: %v", turn, err)
		}
	}

	if last.Phase != domain.PhaseGameOver {
		t.Fatalf("expected game_over after %d turns, got %s", domain.MaxTurns, last.Phase)
	}
	if last.Stats.Merit != 60 || last.Stats.Wisdom != 40 {
		t.Errorf("final stats = %+v", last.Stats)
	}
	if last.Ending == nil || last.Ending.Tier != domain.EndingSage {
		t.Errorf("expected sage ending, got %+v", last.Ending)
	}
	if len(last.Log) != domain.MaxTurns {
		t.Errorf("expected %d log entries, got %d", domain.MaxTurns, len(last.Log))
	}

	// No scenario was requested for the turn past the limit.
	scenarios, _ := gen.counts()
	if scenarios != domain.MaxTurns {
		t.Errorf("expected %d scenario requests, got %d", domain.MaxTurns, scenarios)
	}
}

func TestRestart_ResetsFinishedGame(t *testing.T) {
	gen := &stubGenerator{
		resolveFn: func(ports.ResolveRequest) (ports.ResolutionResult, error) {
			return ports.ResolutionResult{Narrative: "尽矣。", DestinyChange: -50}, nil
		},
	}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SelectCard(view.ID, view.Hand[0].ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := svc.Confirm(context.Background(), view.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.Advance(context.Background(), view.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	got, err := svc.Restart(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}

	if got.Phase != domain.PhasePlayerTurn {
		t.Fatalf("expected player_turn, got %s", got.Phase)
	}
	if got.Stats != domain.InitialStats() {
		t.Errorf("stats not reset: %+v", got.Stats)
	}
	if len(got.Log) != 0 {
		t.Errorf("log not cleared: %d entries", len(got.Log))
	}
	if got.Ending != nil {
		t.Error("ending verdict survived the restart")
	}
}

func TestRestart_DiscardsStaleResolution(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gen := &stubGenerator{
		resolveFn: func(ports.ResolveRequest) (ports.ResolutionResult, error) {
			started <- struct{}{}
			<-release
			return ports.ResolutionResult{Narrative: "迟来的判词。", MeritChange: 99}, nil
		},
	}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SelectCard(view.ID, view.Hand[0].ID); err != nil {
		t.Fatalf("select: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Confirm(context.Background(), view.ID)
	}()

	// Restart while the resolution call is in flight.
	<-started
	if _, err := svc.Restart(context.Background(), view.ID); err != nil {
		t.Fatalf("restart: %v", err)
	}
	close(release)
	<-done

	got, err := svc.Game(view.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The late resolution must not touch the fresh game.
	if got.Phase != domain.PhasePlayerTurn {
		t.Fatalf("expected player_turn, got %s", got.Phase)
	}
	if got.Stats != domain.InitialStats() {
		t.Errorf("stale resolution applied: %+v", got.Stats)
	}
	if len(got.Log) != 0 {
		t.Errorf("stale resolution logged: %d entries", len(got.Log))
	}
	if got.Resolution != nil {
		t.Error("stale resolution stored")
	}
}

func TestRestart_DiscardsStaleScenario(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	gen := &stubGenerator{}
	gen.scenarioFn = func(ports.ScenarioRequest) (ports.ScenarioResult, error) {
		mu.Lock()
		calls++
		call := calls
		mu.Unlock()
		// The second request belongs to the turn advance; hold it until
		// released so the restart can overtake it.
		if call == 2 {
			started <- struct{}{}
			<-release
			return ports.ScenarioResult{Title: "迟来的境遇", Description: "旧局残响。", Difficulty: 5}, nil
		}
		return ports.ScenarioResult{Title: "寻常之日", Description: "平淡无奇。", Difficulty: 1}, nil
	}
	svc := newService(gen)

	view, err := svc.NewGame(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SelectCard(view.ID, view.Hand[0].ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := svc.Confirm(context.Background(), view.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Advance(context.Background(), view.ID)
	}()

	// Restart while the next scenario is still in flight.
	<-started
	if _, err := svc.Restart(context.Background(), view.ID); err != nil {
		t.Fatalf("restart: %v", err)
	}
	close(release)
	<-done

	got, err := svc.Game(view.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The late scenario must not land in the fresh game.
	if got.Phase != domain.PhasePlayerTurn {
		t.Fatalf("expected player_turn, got %s", got.Phase)
	}
	if got.Stats != domain.InitialStats() {
		t.Errorf("stats not reset: %+v", got.Stats)
	}
	if got.Scenario == nil {
		t.Fatal("expected a scenario")
	}
	if got.Scenario.Title != "寻常之日" {
		t.Errorf("stale scenario installed: %s", got.Scenario.Title)
	}
	if len(got.Log) != 0 {
		t.Errorf("log not cleared: %d entries", len(got.Log))
	}
}

func TestGame_UnknownSession(t *testing.T) {
	svc := newService(&stubGenerator{})

	_, err := svc.Game("nope")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
