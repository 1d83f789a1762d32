package domain

import (
	"context"
	"log/slog"
)

type loggingDrinkService struct {
	logger *slog.Logger
	next   DrinkService
}

func NewLoggingDrinkService(logger *slog.Logger, next DrinkService) DrinkService {
	if logger == nil || next == nil {
		return next
	}

	return &loggingDrinkService{
		logger: logger,
		next:   next,
	}
}

func (s *loggingDrinkService) ListDrinks(ctx context.Context) ([]Drink, error) {
	drinks, err := s.next.ListDrinks(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list drinks failed", "err", err.Error())
	}
	return drinks, err
}

func (s *loggingDrinkService) CreateDrink(ctx context.Context, input CreateDrinkInput) (Drink, error) {
	drink, err := s.next.CreateDrink(ctx, input)
	if err != nil {
		s.logger.ErrorContext(ctx, "create drink failed", "title", input.Title, "err", err.Error())
		return Drink{}, err
	}

	s.logger.InfoContext(ctx, "drink created", "id", drink.ID, "title", drink.Title)
	return drink, nil
}

func (s *loggingDrinkService) UpdateDrink(ctx context.Context, id int64, input UpdateDrinkInput) (Drink, error) {
	drink, err := s.next.UpdateDrink(ctx, id, input)
	if err != nil {
		s.logger.ErrorContext(ctx, "update drink failed", "id", id, "err", err.Error())
		return Drink{}, err
	}

	s.logger.InfoContext(ctx, "drink updated", "id", drink.ID, "title", drink.Title)
	return drink, nil
}

func (s *loggingDrinkService) DeleteDrink(ctx context.Context, id int64) error {
	err := s.next.DeleteDrink(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "delete drink failed", "id", id, "err", err.Error())
		return err
	}

	s.logger.InfoContext(ctx, "drink deleted", "id", id)
	return nil
}
