package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/domain"
	"stockpile/internal/domain/catalog/recipe"
	"stockpile/internal/infrastructure/storage/postgres"
)

const (
	recipeTable      = "cat_recipes"
	recipeLinesTable = "cat_recipe_lines"
)

// RecipeRepo implements recipe.Repository. Recipe lines live in a
// separate table and are loaded with the header.
type RecipeRepo struct {
	*BaseCatalogRepo[*recipe.Recipe]
}

// NewRecipeRepo creates a new recipe repository.
func NewRecipeRepo(txm *postgres.TxManager) *RecipeRepo {
	return &RecipeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			recipeTable,
			postgres.ExtractDBColumns[recipe.Recipe](),
			func() *recipe.Recipe { return &recipe.Recipe{} },
		),
	}
}

// Create inserts the header and its lines.
func (r *RecipeRepo) Create(ctx context.Context, rec *recipe.Recipe) error {
	if err := r.BaseCatalogRepo.Create(ctx, rec); err != nil {
		return err
	}
	return r.saveLines(ctx, rec.ID, rec.Lines)
}

// GetByID retrieves a recipe with its lines.
func (r *RecipeRepo) GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	rec, err := r.BaseCatalogRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	rec.Lines, err = r.getLines(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetActiveByProduct retrieves the active recipe for a product.
func (r *RecipeRepo) GetActiveByProduct(ctx context.Context, productID id.ID) (*recipe.Recipe, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	rec, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("active recipe", productID.String())
		}
		return nil, err
	}

	rec.Lines, err = r.getLines(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update persists the header and replaces its lines.
func (r *RecipeRepo) Update(ctx context.Context, rec *recipe.Recipe) error {
	if err := r.BaseCatalogRepo.Update(ctx, rec); err != nil {
		return err
	}
	return r.saveLines(ctx, rec.ID, rec.Lines)
}

// DeactivateByProduct clears the active flag on a product's recipes.
func (r *RecipeRepo) DeactivateByProduct(ctx context.Context, productID id.ID) error {
	q := r.Builder().
		Update(recipeTable).
		Set("active", false).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"active": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("deactivate by product: %w", err)
	}
	return nil
}

// List retrieves recipes with recipe-specific filtering. Lines are not
// loaded for list views.
func (r *RecipeRepo) List(ctx context.Context, filter recipe.ListFilter) (domain.ListResult[*recipe.Recipe], error) {
	result := domain.ListResult[*recipe.Recipe]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list recipes: %w", err)
	}

	return result, nil
}

func (r *RecipeRepo) getLines(ctx context.Context, recipeID id.ID) ([]recipe.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "material_id", "per_unit", "unit", "wastage_percent").
		From(recipeLinesTable).
		Where(squirrel.Eq{"recipe_id": recipeID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []recipe.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get recipe lines: %w", err)
	}

	return lines, nil
}

// saveLines replaces a recipe's lines (delete existing + insert new).
func (r *RecipeRepo) saveLines(ctx context.Context, recipeID id.ID, lines []recipe.Line) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + recipeLinesTable + " WHERE recipe_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, recipeID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(recipeLinesTable).
		Columns("line_id", "recipe_id", "line_no", "material_id", "per_unit", "unit", "wastage_percent")

	for _, line := range lines {
		q = q.Values(
			line.LineID, recipeID, line.LineNo, line.MaterialID,
			line.PerUnit, line.Unit, line.WastagePercent,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}
