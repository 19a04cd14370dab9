package domain

// FallbackScenario is the neutral scenario used when generation is
// unavailable: a quiet day with nothing at stake but an idle mind.
func FallbackScenario() Scenario {
	return Scenario{
		Title:       "宁静的一天",
		Description: "今日无事发生，但闲居恐滋生杂念。你独自静坐，思绪渐渐飘远。",
		Difficulty:  1,
		Context:     "Idle mind test",
	}
}

// FallbackResolution is the neutral judgment a generator may fail closed
// with. The engine never applies it on its own: a failed resolution leaves
// the turn open for retry instead.
func FallbackResolution() Resolution {
	return Resolution{
		Narrative:     "你做出了选择，但天意难测。因果将在冥冥中自行流转。",
		MeritChange:   1,
		WisdomChange:  0,
		DestinyChange: 0,
		Critique:      "诚心是改变命运的关键。",
	}
}
