package domain

// DrawHand draws HandSize unique cards from the catalog using the provided
// RNG. Every turn redraws from the full catalog, not from what remains of a
// previous draw.
func DrawHand(catalog Catalog, rng RNG) ([]Card, error) {
	if len(catalog.Cards) < HandSize {
		return nil, ErrCatalogTooSmall
	}

	// Fisher-Yates partial shuffle: only need the first HandSize elements.
	indices := make([]int, len(catalog.Cards))
	for i := range indices {
		indices[i] = i
	}
	for i := len(indices) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}

	hand := make([]Card, HandSize)
	for i := 0; i < HandSize; i++ {
		hand[i] = catalog.Cards[indices[i]]
	}
	return hand, nil
}
