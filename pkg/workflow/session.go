package workflow

import "keystore-swap/pkg/types"

// Session is the in-memory state of one user session. It is owned by a single
// Controller; read it through Controller.Snapshot.
type Session struct {
	Wallets       map[types.Chain]types.Wallet
	Assets        []types.Asset
	SelectedRoute *types.Route
	LastTxHash    string
	Stage         Stage

	// bumped on every successful connect so quotes built from older addresses are discarded
	generation uint64
}

// NewSession returns an empty, disconnected session
func NewSession() *Session {
	return &Session{
		Wallets: make(map[types.Chain]types.Wallet),
		Stage:   StageDisconnected,
	}
}

func (s *Session) clone() Session {
	out := Session{
		Wallets:    make(map[types.Chain]types.Wallet, len(s.Wallets)),
		LastTxHash: s.LastTxHash,
		Stage:      s.Stage,
		generation: s.generation,
	}
	for chain, wallet := range s.Wallets {
		out.Wallets[chain] = wallet.Clone()
	}
	if s.Assets != nil {
		out.Assets = append([]types.Asset(nil), s.Assets...)
	}
	if s.SelectedRoute != nil {
		route := cloneRoute(*s.SelectedRoute)
		out.SelectedRoute = &route
	}
	return out
}

func cloneRoute(r types.Route) types.Route {
	out := r
	out.Providers = append([]string(nil), r.Providers...)
	if r.Warnings != nil {
		out.Warnings = append([]types.RouteWarning(nil), r.Warnings...)
	}
	if r.EstimatedTime != nil {
		et := *r.EstimatedTime
		out.EstimatedTime = &et
	}
	if r.Tx != nil {
		out.Tx = append([]byte(nil), r.Tx...)
	}
	return out
}
