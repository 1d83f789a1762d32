package http

import "github.com/Flarenzy/drinks-api/internal/domain"

// IngredientPayload is one recipe line, accepted on writes and returned in the
// long representation.
type IngredientPayload struct {
	Name  string `json:"name" example:"milk"`
	Color string `json:"color" example:"grey"`
	Parts int    `json:"parts" example:"1"`
}

// ShortIngredient hides the ingredient name; it is what the public listing shows.
type ShortIngredient struct {
	Color string `json:"color" example:"grey"`
	Parts int    `json:"parts" example:"1"`
}

type DrinkShort struct {
	ID     int64             `json:"id" example:"1"`
	Title  string            `json:"title" example:"matcha shake"`
	Recipe []ShortIngredient `json:"recipe"`
}

type DrinkLong struct {
	ID     int64               `json:"id" example:"1"`
	Title  string              `json:"title" example:"matcha shake"`
	Recipe []IngredientPayload `json:"recipe"`
}

type DrinksShortResponse struct {
	Success bool         `json:"success" example:"true"`
	Drinks  []DrinkShort `json:"drinks"`
}

type DrinksLongResponse struct {
	Success bool        `json:"success" example:"true"`
	Drinks  []DrinkLong `json:"drinks"`
}

type DeleteDrinkResponse struct {
	Success bool  `json:"success" example:"true"`
	Delete  int64 `json:"delete" example:"1"`
}

// CreateDrinkRequest is the payload accepted when creating a drink.
type CreateDrinkRequest struct {
	Title  string              `json:"title" example:"matcha shake"`
	Recipe []IngredientPayload `json:"recipe"`
}

// UpdateDrinkRequest changes the fields that are present. A missing or null
// recipe leaves the recipe as it is.
type UpdateDrinkRequest struct {
	Title  *string             `json:"title,omitempty" example:"iced matcha"`
	Recipe []IngredientPayload `json:"recipe,omitempty"`
}

// ErrorResponse is the envelope for every failure. Error repeats the HTTP
// status; Code is set for authorization failures only.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   int    `json:"error" example:"404"`
	Message string `json:"message" example:"Not Found"`
	Code    string `json:"code,omitempty" example:"insufficient_permission"`
}

func (r CreateDrinkRequest) toInput() domain.CreateDrinkInput {
	return domain.CreateDrinkInput{
		Title:  r.Title,
		Recipe: toIngredients(r.Recipe),
	}
}

func (r UpdateDrinkRequest) toInput() domain.UpdateDrinkInput {
	return domain.UpdateDrinkInput{
		Title:  r.Title,
		Recipe: toIngredients(r.Recipe),
	}
}

func toIngredients(in []IngredientPayload) []domain.Ingredient {
	if in == nil {
		return nil
	}
	out := make([]domain.Ingredient, 0, len(in))
	for _, i := range in {
		out = append(out, domain.Ingredient{Name: i.Name, Color: i.Color, Parts: i.Parts})
	}
	return out
}

func drinkToShort(d domain.Drink) DrinkShort {
	recipe := make([]ShortIngredient, 0, len(d.Recipe))
	for _, i := range d.Recipe {
		recipe = append(recipe, ShortIngredient{Color: i.Color, Parts: i.Parts})
	}
	return DrinkShort{ID: d.ID, Title: d.Title, Recipe: recipe}
}

func drinkToLong(d domain.Drink) DrinkLong {
	recipe := make([]IngredientPayload, 0, len(d.Recipe))
	for _, i := range d.Recipe {
		recipe = append(recipe, IngredientPayload{Name: i.Name, Color: i.Color, Parts: i.Parts})
	}
	return DrinkLong{ID: d.ID, Title: d.Title, Recipe: recipe}
}

func drinksToShort(drinks []domain.Drink) []DrinkShort {
	out := make([]DrinkShort, 0, len(drinks))
	for _, d := range drinks {
		out = append(out, drinkToShort(d))
	}
	return out
}

func drinksToLong(drinks []domain.Drink) []DrinkLong {
	out := make([]DrinkLong, 0, len(drinks))
	for _, d := range drinks {
		out = append(out, drinkToLong(d))
	}
	return out
}
