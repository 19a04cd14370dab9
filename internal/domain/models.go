package domain

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

const (
	// MaxTurns is the number of karma trials in a full game.
	MaxTurns = 10
	// HandSize is the number of cards offered each turn.
	HandSize = 3
	// CatalogSize is the fixed number of cards in a catalog.
	CatalogSize = 12
)

// Category groups cards by the lesson of Liaofan they embody.
type Category string

const (
	CategoryReform     Category = "Reform"
	CategoryAccumulate Category = "Accumulate"
	CategoryHumility   Category = "Humility"
	CategoryWisdom     Category = "Wisdom"
)

// Card is an immutable catalog entry the player can answer a scenario with.
type Card struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Quote       string   `json:"quote"`
}

// Catalog is the fixed collection of cards a game draws from.
type Catalog struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// PlayerStats is the mutable per-session score sheet. Destiny is the vitality
// resource: at or below zero the game ends at the next turn advance.
type PlayerStats struct {
	Merit   int `json:"merit"`
	Wisdom  int `json:"wisdom"`
	Destiny int `json:"destiny"`
	Turn    int `json:"turn"`
}

// InitialStats returns the stats every game starts from.
func InitialStats() PlayerStats {
	return PlayerStats{Merit: 0, Wisdom: 0, Destiny: 50, Turn: 1}
}

// Scenario is the generated moral dilemma for the current turn. Context is a
// hidden note for the resolution judgment and is never shown to the player.
type Scenario struct {
	Title       string
	Description string
	Difficulty  int
	Context     string
}

// Resolution is the generated judgment of a committed card choice. Deltas are
// applied to PlayerStats without clamping.
type Resolution struct {
	Narrative     string
	MeritChange   int
	WisdomChange  int
	DestinyChange int
	Critique      string
}

// StatsDelta records the three stat changes of one resolved turn.
type StatsDelta struct {
	Merit   int `json:"merit"`
	Wisdom  int `json:"wisdom"`
	Destiny int `json:"destiny"`
}

// LogEntry is an immutable record of one resolved turn, appended to the
// session history in order.
type LogEntry struct {
	Turn          int        `json:"turn"`
	ScenarioTitle string     `json:"scenario_title"`
	ActionCard    string     `json:"action_card"`
	Outcome       string     `json:"outcome"`
	Delta         StatsDelta `json:"delta"`
}

// Phase governs which player intents are valid.
type Phase string

const (
	PhaseInit            Phase = "init"
	PhaseScenarioLoading Phase = "scenario_loading"
	PhasePlayerTurn      Phase = "player_turn"
	PhaseResolving       Phase = "resolving"
	PhaseResult          Phase = "result"
	PhaseGameOver        Phase = "game_over"
)
