package ports

import "context"

// ScenarioRequest holds everything the LLM needs to generate a turn scenario.
type ScenarioRequest struct {
	Turn    int
	Merit   int
	Wisdom  int
	Destiny int
	Lang    string
}

// ScenarioResult is the structured scenario returned by the LLM. Context is a
// hidden judgment note carried into resolution, never shown to the player.
type ScenarioResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  int    `json:"difficulty"`
	Context     string `json:"context"`
	Model       string `json:"-"`
}

// ResolveRequest pairs the current scenario with the committed card.
type ResolveRequest struct {
	ScenarioTitle       string
	ScenarioDescription string
	ScenarioContext     string
	CardName            string
	CardCategory        string
	CardDescription     string
	CardQuote           string
	Lang                string
}

// ResolutionResult is the structured judgment returned by the LLM.
type ResolutionResult struct {
	Narrative     string `json:"narrative"`
	MeritChange   int    `json:"meritChange"`
	WisdomChange  int    `json:"wisdomChange"`
	DestinyChange int    `json:"destinyChange"`
	Critique      string `json:"critique"`
	Model         string `json:"-"`
}

// Generator produces turn scenarios and judges committed card choices via an
// LLM. Both operations may fail; the engine decides the fallback.
type Generator interface {
	GenerateScenario(ctx context.Context, req ScenarioRequest) (ScenarioResult, error)
	ResolveAction(ctx context.Context, req ResolveRequest) (ResolutionResult, error)
}
