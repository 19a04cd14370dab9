package domain

import "errors"

var (
	ErrCatalogNotFound = errors.New("catalog not found")
	ErrCatalogSize     = errors.New("catalog must hold exactly 12 cards")
	ErrCatalogTooSmall = errors.New("catalog holds fewer cards than a hand")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidPhase    = errors.New("action not valid in current phase")
	ErrNoSelection     = errors.New("no card selected")
	ErrNoScenario      = errors.New("no scenario to act against")
	ErrCardNotInHand   = errors.New("card is not in the current hand")
	ErrUpstreamLLM     = errors.New("upstream LLM failure")
	ErrInvalidLLMJSON  = errors.New("LLM returned invalid JSON after retry")
)
