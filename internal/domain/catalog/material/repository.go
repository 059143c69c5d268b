package material

import (
	"context"

	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
	"stockpile/internal/domain"
)

// Repository defines storage operations for the Raw Material catalog.
type Repository interface {
	Create(ctx context.Context, m *RawMaterial) error
	GetByID(ctx context.Context, materialID id.ID) (*RawMaterial, error)
	GetByIDs(ctx context.Context, materialIDs []id.ID) ([]*RawMaterial, error)
	Update(ctx context.Context, m *RawMaterial) error
	SetDeletionMark(ctx context.Context, materialID id.ID, marked bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*RawMaterial], error)

	// Stock primitives. GetStockForUpdate must be called within a
	// transaction; it locks the material row.
	GetStockForUpdate(ctx context.Context, materialID id.ID) (types.Quantity, error)
	SetStock(ctx context.Context, materialID id.ID, quantity types.Quantity) error
	InsertStockMovement(ctx context.Context, m StockMovement) error

	// ListBelowReorderLevel returns materials at or under their reorder level.
	ListBelowReorderLevel(ctx context.Context) ([]*RawMaterial, error)
}
