package influencer

type Tier string

const (
	TierMicro Tier = "micro"
	TierMid   Tier = "mid"
	TierMacro Tier = "macro"
	TierMega  Tier = "mega"
)

const (
	midTierFloor   = 50_000
	macroTierFloor = 500_000
	megaTierFloor  = 2_000_000
)

// TierFor buckets a follower count. Lower bounds are inclusive.
func TierFor(followers int64) Tier {
	switch {
	case followers >= megaTierFloor:
		return TierMega
	case followers >= macroTierFloor:
		return TierMacro
	case followers >= midTierFloor:
		return TierMid
	default:
		return TierMicro
	}
}
