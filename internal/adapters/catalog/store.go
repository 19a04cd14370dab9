package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sunears/LiaoFansLifeRecord/internal/domain"
)

//go:embed data/*.json
var catalogFS embed.FS

// DefaultCatalogID is the catalog every game uses unless told otherwise.
const DefaultCatalogID = "liaofan"

// registry maps catalog IDs to their JSON filenames inside data/.
var registry = map[string]string{
	DefaultCatalogID: "data/liaofan.json",
}

// EmbeddedStore loads card catalogs from embedded JSON files.
type EmbeddedStore struct {
	once     sync.Once
	catalogs map[string]domain.Catalog
	err      error
}

func NewEmbeddedStore() *EmbeddedStore {
	return &EmbeddedStore{}
}

func (s *EmbeddedStore) init() {
	s.catalogs = make(map[string]domain.Catalog, len(registry))
	for id, filename := range registry {
		raw, err := catalogFS.ReadFile(filename)
		if err != nil {
			s.err = fmt.Errorf("read embedded catalog %s: %w", id, err)
			return
		}
		var cards []domain.Card
		if err := json.Unmarshal(raw, &cards); err != nil {
			s.err = fmt.Errorf("parse embedded catalog %s: %w", id, err)
			return
		}
		if len(cards) != domain.CatalogSize {
			s.err = fmt.Errorf("catalog %s has %d cards: %w", id, len(cards), domain.ErrCatalogSize)
			return
		}
		s.catalogs[id] = domain.Catalog{
			ID:    id,
			Name:  id,
			Cards: cards,
		}
	}
}

func (s *EmbeddedStore) GetCatalog(_ context.Context, catalogID string) (domain.Catalog, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return domain.Catalog{}, s.err
	}
	catalog, ok := s.catalogs[catalogID]
	if !ok {
		return domain.Catalog{}, domain.ErrCatalogNotFound
	}
	return catalog, nil
}
