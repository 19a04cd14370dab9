package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sunears/LiaoFansLifeRecord/internal/app"
	"github.com/sunears/LiaoFansLifeRecord/internal/domain"
)

type Handler struct {
	svc *app.GameService
}

func NewHandler(svc *app.GameService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.POST("/v1/games", h.CreateGame)
	e.GET("/v1/games/:id", h.GetGame)
	e.POST("/v1/games/:id/select", h.SelectCard)
	e.POST("/v1/games/:id/confirm", h.ConfirmAction)
	e.POST("/v1/games/:id/advance", h.AdvanceTurn)
	e.POST("/v1/games/:id/restart", h.RestartGame)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) CreateGame(c echo.Context) error {
	var req NewGameRequest
	// Body is optional; ignore binding errors from an empty body.
	_ = c.Bind(&req)

	view, err := h.svc.NewGame(c.Request().Context(), req.Lang)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, toResponse(view, requestID(c)))
}

func (h *Handler) GetGame(c echo.Context) error {
	view, err := h.svc.Game(c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(view, requestID(c)))
}

func (h *Handler) SelectCard(c echo.Context) error {
	var req SelectRequest
	if err := c.Bind(&req); err != nil || req.CardID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "card_id is required"})
	}

	view, err := h.svc.SelectCard(c.Param("id"), req.CardID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(view, requestID(c)))
}

func (h *Handler) ConfirmAction(c echo.Context) error {
	view, err := h.svc.Confirm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(view, requestID(c)))
}

func (h *Handler) AdvanceTurn(c echo.Context) error {
	view, err := h.svc.Advance(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(view, requestID(c)))
}

func (h *Handler) RestartGame(c echo.Context) error {
	view, err := h.svc.Restart(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(view, requestID(c)))
}

func requestID(c echo.Context) string {
	id, _ := c.Get("request_id").(string)
	return id
}

func toResponse(v app.GameView, requestID string) GameResponse {
	resp := GameResponse{
		ID:    v.ID,
		Phase: v.Phase,
		Stats: StatsResp{
			Merit:   v.Stats.Merit,
			Wisdom:  v.Stats.Wisdom,
			Destiny: v.Stats.Destiny,
			Turn:    v.Stats.Turn,
		},
		Error: v.Error,
		Meta:  MetaResp{RequestID: requestID},
	}

	for _, card := range v.Hand {
		resp.Hand = append(resp.Hand, CardResp{
			ID:          card.ID,
			Name:        card.Name,
			Category:    card.Category,
			Description: card.Description,
			Quote:       card.Quote,
		})
	}

	if v.Scenario != nil {
		resp.Scenario = &ScenarioResp{
			Title:       v.Scenario.Title,
			Description: v.Scenario.Description,
			Difficulty:  v.Scenario.Difficulty,
		}
	}
	if v.Selected != nil {
		resp.Selected = v.Selected.ID
	}
	if v.Resolution != nil {
		resp.Resolution = &ResolutionResp{
			Narrative:     v.Resolution.Narrative,
			MeritChange:   v.Resolution.MeritChange,
			WisdomChange:  v.Resolution.WisdomChange,
			DestinyChange: v.Resolution.DestinyChange,
			Critique:      v.Resolution.Critique,
		}
	}

	for _, entry := range v.Log {
		resp.Log = append(resp.Log, LogEntryResp{
			Turn:          entry.Turn,
			ScenarioTitle: entry.ScenarioTitle,
			ActionCard:    entry.ActionCard,
			Outcome:       entry.Outcome,
			Delta: DeltaResp{
				Merit:   entry.Delta.Merit,
				Wisdom:  entry.Delta.Wisdom,
				Destiny: entry.Delta.Destiny,
			},
		})
	}

	if v.Ending != nil {
		resp.Ending = &EndingResp{Tier: v.Ending.Tier, Verdict: v.Ending.Verdict}
	}

	return resp
}

func mapError(c echo.Context, err error) error {
	requestID, _ := c.Get("request_id").(string)

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidPhase),
		errors.Is(err, domain.ErrNoSelection),
		errors.Is(err, domain.ErrNoScenario):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrCardNotInHand):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		slog.Error("internal error", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
