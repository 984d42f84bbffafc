package core

// NFTAsset is an immutable snapshot of a token as reported by the ledger
// service. Token ids are 1-based; a zero id marks a missing reference.
type NFTAsset struct {
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// BurnSelection is the user's chosen burn set plus the featured asset that
// receives the upgrade. The featured asset must stay disjoint from the set.
type BurnSelection struct {
	Burn     []NFTAsset
	Featured NFTAsset
}

// BurnIDs returns the token ids of the burn set in selection order.
func (s BurnSelection) BurnIDs() []uint32 {
	ids := make([]uint32, len(s.Burn))
	for i, a := range s.Burn {
		ids[i] = a.ID
	}
	return ids
}

// BurnPolicy bounds the size of a burn set. It is supplied by the caller
// (typically read from the burn manager contract) rather than hard-coded,
// so a stale UI can never silently relax what is actually enforced.
type BurnPolicy struct {
	MinBurn int
	MaxBurn int
}
