package http

import "github.com/sunears/LiaoFansLifeRecord/internal/domain"

// GameResponse is the JSON shape returned by every game endpoint. The
// scenario's hidden context is deliberately absent from ScenarioResp.
type GameResponse struct {
	ID         string          `json:"id"`
	Phase      domain.Phase    `json:"phase"`
	Stats      StatsResp       `json:"stats"`
	Hand       []CardResp      `json:"hand,omitempty"`
	Scenario   *ScenarioResp   `json:"scenario,omitempty"`
	Selected   string          `json:"selected_card_id,omitempty"`
	Resolution *ResolutionResp `json:"resolution,omitempty"`
	Log        []LogEntryResp  `json:"log,omitempty"`
	Error      string          `json:"error,omitempty"`
	Ending     *EndingResp     `json:"ending,omitempty"`
	Meta       MetaResp        `json:"meta"`
}

type StatsResp struct {
	Merit   int `json:"merit"`
	Wisdom  int `json:"wisdom"`
	Destiny int `json:"destiny"`
	Turn    int `json:"turn"`
}

type CardResp struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    domain.Category `json:"category"`
	Description string          `json:"description"`
	Quote       string          `json:"quote"`
}

type ScenarioResp struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  int    `json:"difficulty"`
}

type ResolutionResp struct {
	Narrative     string `json:"narrative"`
	MeritChange   int    `json:"merit_change"`
	WisdomChange  int    `json:"wisdom_change"`
	DestinyChange int    `json:"destiny_change"`
	Critique      string `json:"critique"`
}

type LogEntryResp struct {
	Turn          int       `json:"turn"`
	ScenarioTitle string    `json:"scenario_title"`
	ActionCard    string    `json:"action_card"`
	Outcome       string    `json:"outcome"`
	Delta         DeltaResp `json:"delta"`
}

type DeltaResp struct {
	Merit   int `json:"merit"`
	Wisdom  int `json:"wisdom"`
	Destiny int `json:"destiny"`
}

type EndingResp struct {
	Tier    domain.EndingTier `json:"tier"`
	Verdict string            `json:"verdict"`
}

type MetaResp struct {
	RequestID string `json:"request_id"`
}

// NewGameRequest is the optional body of POST /v1/games.
type NewGameRequest struct {
	Lang string `json:"lang"`
}

// SelectRequest is the body of POST /v1/games/:id/select.
type SelectRequest struct {
	CardID string `json:"card_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
