package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sqlc "github.com/Flarenzy/drinks-api/internal/db/sqlc"
	"github.com/Flarenzy/drinks-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type DrinkRepository struct {
	queries *sqlc.Queries
}

func NewDrinkRepository(queries *sqlc.Queries) *DrinkRepository {
	return &DrinkRepository{queries: queries}
}

func (r *DrinkRepository) List(ctx context.Context) ([]domain.Drink, error) {
	drinks, err := r.queries.ListDrinks(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Drink, 0, len(drinks))
	for _, drink := range drinks {
		d, err := toDomainDrink(drink)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	return out, nil
}

func (r *DrinkRepository) FindByID(ctx context.Context, id int64) (domain.Drink, error) {
	drink, err := r.queries.GetDrinkByID(ctx, id)
	if err != nil {
		return domain.Drink{}, mapError(err)
	}

	return toDomainDrink(drink)
}

func (r *DrinkRepository) Create(ctx context.Context, input domain.CreateDrinkInput) (domain.Drink, error) {
	recipe, err := json.Marshal(input.Recipe)
	if err != nil {
		return domain.Drink{}, fmt.Errorf("encode recipe: %w", err)
	}

	drink, err := r.queries.CreateDrink(ctx, sqlc.CreateDrinkParams{
		Title:  input.Title,
		Recipe: recipe,
	})
	if err != nil {
		return domain.Drink{}, mapError(err)
	}

	return toDomainDrink(drink)
}

func (r *DrinkRepository) Update(ctx context.Context, d domain.Drink) (domain.Drink, error) {
	recipe, err := json.Marshal(d.Recipe)
	if err != nil {
		return domain.Drink{}, fmt.Errorf("encode recipe: %w", err)
	}

	drink, err := r.queries.UpdateDrink(ctx, sqlc.UpdateDrinkParams{
		ID:     d.ID,
		Title:  d.Title,
		Recipe: recipe,
	})
	if err != nil {
		return domain.Drink{}, mapError(err)
	}

	return toDomainDrink(drink)
}

func (r *DrinkRepository) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := r.queries.DeleteDrinkByID(ctx, id)
	if err != nil {
		return false, err
	}

	return deleted > 0, nil
}

func toDomainDrink(drink sqlc.Drink) (domain.Drink, error) {
	var recipe []domain.Ingredient
	if err := json.Unmarshal(drink.Recipe, &recipe); err != nil {
		return domain.Drink{}, fmt.Errorf("decode recipe of drink %d: %w", drink.ID, err)
	}

	return domain.Drink{
		ID:        drink.ID,
		Title:     drink.Title,
		Recipe:    recipe,
		CreatedAt: drink.CreatedAt.Time,
		UpdatedAt: drink.UpdatedAt.Time,
	}, nil
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: a drink with this title already exists", domain.ErrConflict)
	}

	return err
}
