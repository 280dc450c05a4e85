package workflow

// Stage is the furthest workflow step reached by the current session
type Stage int

const (
	StageDisconnected Stage = iota
	StageWalletsConnected
	StageBalancesKnown
	StageAssetsKnown
	StageQuoteReady
	StageSwapped
)

func (s Stage) String() string {
	switch s {
	case StageDisconnected:
		return "disconnected"
	case StageWalletsConnected:
		return "wallets_connected"
	case StageBalancesKnown:
		return "balances_known"
	case StageAssetsKnown:
		return "assets_known"
	case StageQuoteReady:
		return "quote_ready"
	case StageSwapped:
		return "swapped"
	default:
		return "unknown"
	}
}

// CanSwap reports whether a route is held that may be submitted
func (s Stage) CanSwap() bool {
	return s == StageQuoteReady || s == StageSwapped
}

type event int

const (
	evConnected event = iota
	evBalancesFetched
	evAssetsFetched
	evQuoted
	evSwapped
)

// next applies a successful operation to the stage. Balances and assets are
// re-enterable and never move the stage backwards or out of disconnected.
func (s Stage) next(ev event) Stage {
	switch ev {
	case evConnected:
		return StageWalletsConnected
	case evBalancesFetched:
		return s.advanceTo(StageBalancesKnown)
	case evAssetsFetched:
		return s.advanceTo(StageAssetsKnown)
	case evQuoted:
		return StageQuoteReady
	case evSwapped:
		return StageSwapped
	default:
		return s
	}
}

func (s Stage) advanceTo(target Stage) Stage {
	if s == StageDisconnected || s >= target {
		return s
	}
	return target
}
