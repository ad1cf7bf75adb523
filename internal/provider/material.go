package provider

import (
	"context"
	"sync"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/logging"
)

// MaterialProvider resolves raw-material stock pallets per part. Results
// are memoized for the provider's lifetime: stock composition changes
// slowly relative to one planning session.
type MaterialProvider struct {
	source MaterialSource
	log    *logging.Logger

	mu    sync.Mutex
	cache map[string][]domain.MaterialPalletState
}

// NewMaterialProvider creates a provider over the material stock source.
func NewMaterialProvider(source MaterialSource) *MaterialProvider {
	return &MaterialProvider{
		source: source,
		log:    logging.New("material-provider"),
		cache:  make(map[string][]domain.MaterialPalletState),
	}
}

// GetPalletsForPart returns the stock pallets holding the given part.
func (p *MaterialProvider) GetPalletsForPart(ctx context.Context, partID string) []domain.MaterialPalletState {
	part := NormalizePartID(partID)

	p.mu.Lock()
	if pallets, ok := p.cache[part]; ok {
		p.mu.Unlock()
		return pallets
	}
	p.mu.Unlock()

	rows, err := p.source.ListStorage(ctx)
	if err != nil {
		p.log.Warn("material_storage_unavailable", nil, err)
		return nil
	}

	var pallets []domain.MaterialPalletState
	for _, row := range rows {
		id := FirstString(row, "pallet_id", "pallet", "pallet_no")
		rowPart := NormalizePartID(FirstString(row, "part_id", "item_no", "part_no"))
		if id == "" || rowPart != part {
			continue
		}
		pallets = append(pallets, domain.MaterialPalletState{
			PalletID:          id,
			PartID:            rowPart,
			QuantityAvailable: FirstDecimal(row, "quantity_available", "quantity", "qty"),
			Location:          FirstString(row, "location", "storage_location", "slot"),
		})
	}

	p.mu.Lock()
	p.cache[part] = pallets
	p.mu.Unlock()
	return pallets
}
