package domain

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierElite   Tier = "elite"
)

// Unlimited marks a tier limit without a ceiling.
const Unlimited = -1

type TierLimits struct {
	Tier         Tier    `json:"tier"`
	SwipesPerDay int     `json:"swipes_per_day"`
	VideoUploads int     `json:"video_uploads"`
	SuperLikes   int     `json:"super_likes"`
	Price        float64 `json:"price"`
}

var tiers = []TierLimits{
	{Tier: TierFree, SwipesPerDay: 10, VideoUploads: 3, SuperLikes: 1, Price: 0},
	{Tier: TierPremium, SwipesPerDay: 50, VideoUploads: 10, SuperLikes: 5, Price: 9.99},
	{Tier: TierElite, SwipesPerDay: Unlimited, VideoUploads: Unlimited, SuperLikes: 10, Price: 19.99},
}

// Tiers returns the membership table ordered from cheapest to most expensive
func Tiers() []TierLimits {
	out := make([]TierLimits, len(tiers))
	copy(out, tiers)
	return out
}

// LimitsFor returns the limits of tier. Unknown tiers get the free limits.
func LimitsFor(tier Tier) TierLimits {
	for _, t := range tiers {
		if t.Tier == tier {
			return t
		}
	}
	return tiers[0]
}

func (t Tier) Valid() bool {
	for _, l := range tiers {
		if l.Tier == t {
			return true
		}
	}
	return false
}

// Allows reports whether used units stay under limit.
func Allows(limit, used int) bool {
	return limit == Unlimited || used < limit
}

// Quota actions counted per user per day.
const (
	QuotaSwipes     = "swipes"
	QuotaSuperLikes = "super_likes"
)
