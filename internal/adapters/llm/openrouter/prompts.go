package openrouter

import (
	"fmt"
	"strings"

	"github.com/sunears/LiaoFansLifeRecord/internal/domain"
	"github.com/sunears/LiaoFansLifeRecord/internal/ports"
)

const scenarioSchema = `{
  "title": "<short scenario title>",
  "description": "<the scenario, under 50 words>",
  "difficulty": <integer 1-5>,
  "context": "<hidden judgment note, never shown to the player>"
}`

const resolutionSchema = `{
  "narrative": "<1-2 sentence outcome story>",
  "meritChange": <integer -10 to 20>,
  "wisdomChange": <integer -5 to 10>,
  "destinyChange": <integer -10 to 10>,
  "critique": "<one short wise comment>"
}`

// langNames maps common BCP 47 codes to human-readable language names.
var langNames = map[string]string{
	"en": "English",
	"ru": "Russian",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Simplified Chinese",
	"ar": "Arabic",
	"hi": "Hindi",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"pl": "Polish",
}

func langInstruction(lang string) string {
	if lang == "" || lang == "en" {
		return ""
	}
	name, ok := langNames[lang]
	if !ok {
		name = lang
	}
	return fmt.Sprintf("\n- Respond entirely in %s.", name)
}

func buildScenarioSystemPrompt(lang string) string {
	return fmt.Sprintf(`You are the Game Master of a life-simulation game based on the Chinese classic "Liaofan's Four Lessons" (了凡四训).

Rules:
- Generate a short life scenario that tests the player's karma.
- The scenario is a moral dilemma or challenge: temptation (wealth, lust, fame), interpersonal conflict (anger, jealousy, slander), or hardship (illness, loss, failure).
- It can be set in modern times or ancient China; keep it consistent and accessible.
- Keep the description under 50 words.
- difficulty ranges from 1 (an everyday test) to 5 (a fate-defining trial).
- context is a hidden note for the later judgment; it is never shown to the player.%s

Respond with ONLY a JSON object (no markdown, no code fences, no extra text) matching this exact schema:
%s`, langInstruction(lang), scenarioSchema)
}

func buildScenarioUserPrompt(in ports.ScenarioRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current turn: %d of %d.\n", in.Turn, domain.MaxTurns)
	fmt.Fprintf(&b, "Player stats: merit %d, wisdom %d, destiny %d.\n", in.Merit, in.Wisdom, in.Destiny)
	b.WriteString("\nGenerate the scenario as a single JSON object.")
	return b.String()
}

func buildResolveSystemPrompt(lang string) string {
	return fmt.Sprintf(`You are the Master judging outcomes in a game based on "Liaofan's Four Lessons" (了凡四训).

Rules:
- Evaluate whether the chosen card addresses the root of the scenario.
- Evaluate whether the intention behind the choice is pure.
- narrative is a 1-2 sentence outcome story.
- critique is one short wise comment in the voice of a Zen master or of Liaofan himself.
- meritChange is an integer from -10 to 20, wisdomChange from -5 to 10, destinyChange from -10 to 10.%s

Respond with ONLY a JSON object (no markdown, no code fences, no extra text) matching this exact schema:
%s`, langInstruction(lang), resolutionSchema)
}

func buildResolveUserPrompt(in ports.ResolveRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The player encounters this scenario: %q: %q\n", in.ScenarioTitle, in.ScenarioDescription)
	if in.ScenarioContext != "" {
		fmt.Fprintf(&b, "Hidden context: %s\n", in.ScenarioContext)
	}
	fmt.Fprintf(&b, "\nThe player answers with the card %q (%s).\n", in.CardName, in.CardCategory)
	fmt.Fprintf(&b, "Card description: %q\n", in.CardDescription)
	fmt.Fprintf(&b, "Card quote: %q\n", in.CardQuote)
	b.WriteString("\nJudge the outcome as a single JSON object.")
	return b.String()
}

func retryPrompt(badJSON, schema string) string {
	return fmt.Sprintf(`Your previous response was not valid JSON. Here is what you returned:
%s

Return ONLY the corrected JSON object matching this schema (no markdown, no code fences):
%s`, badJSON, schema)
}
