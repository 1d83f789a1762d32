package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type drinkService struct {
	drinks   DrinkRepository
	validate *validator.Validate
}

func NewDrinkService(drinks DrinkRepository) DrinkService {
	return &drinkService{
		drinks:   drinks,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *drinkService) ListDrinks(ctx context.Context) ([]Drink, error) {
	return s.drinks.List(ctx)
}

func (s *drinkService) CreateDrink(ctx context.Context, input CreateDrinkInput) (Drink, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := s.check(input); err != nil {
		return Drink{}, err
	}
	return s.drinks.Create(ctx, input)
}

func (s *drinkService) UpdateDrink(ctx context.Context, id int64, input UpdateDrinkInput) (Drink, error) {
	if input.Empty() {
		return Drink{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if input.Recipe != nil && len(input.Recipe) == 0 {
		return Drink{}, fmt.Errorf("%w: recipe must be at least 1", ErrInvalidInput)
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		input.Title = &title
	}
	if err := s.check(input); err != nil {
		return Drink{}, err
	}

	drink, err := s.drinks.FindByID(ctx, id)
	if err != nil {
		return Drink{}, err
	}
	if input.Title != nil {
		drink.Title = *input.Title
	}
	if input.Recipe != nil {
		drink.Recipe = input.Recipe
	}

	return s.drinks.Update(ctx, drink)
}

func (s *drinkService) DeleteDrink(ctx context.Context, id int64) error {
	deleted, err := s.drinks.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *drinkService) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	// Namespace is "CreateDrinkInput.Recipe[0].Parts"; drop the struct name.
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	field = strings.ToLower(field)

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
