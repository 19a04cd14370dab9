package domain

// EndingTier is the final verdict band a finished game lands in.
type EndingTier string

const (
	EndingSage   EndingTier = "sage_path"
	EndingVirtue EndingTier = "accumulating_virtue"
	EndingAdrift EndingTier = "adrift_in_karma"
)

// ClassifyEnding maps final merit and wisdom to a verdict tier. The top tier
// requires both thresholds; merit alone only reaches the middle tier.
func ClassifyEnding(merit, wisdom int) EndingTier {
	if merit > 50 && wisdom > 30 {
		return EndingSage
	}
	if merit > 20 {
		return EndingVirtue
	}
	return EndingAdrift
}

var verdicts = map[EndingTier]string{
	EndingSage:   "【圣贤之路】你不仅改变了自己的命运，更造福了他人。你的名字将流芳百世。",
	EndingVirtue: "【积善之家】你坦然面对困境，虽未成圣，却拥有了充满意义与平和的一生。",
	EndingAdrift: "【浮沉之命】业力浪潮汹涌。切记，每一个当下都是重新开始的机会。",
}

// Verdict returns the display text for the tier.
func (t EndingTier) Verdict() string {
	return verdicts[t]
}
