package domain

type CreateDrinkInput struct {
	Title  string       `validate:"required,max=80"`
	Recipe []Ingredient `validate:"required,min=1,dive"`
}

// UpdateDrinkInput changes only the fields that are set. A nil Recipe leaves
// the recipe untouched.
type UpdateDrinkInput struct {
	Title  *string      `validate:"omitempty,min=1,max=80"`
	Recipe []Ingredient `validate:"omitempty,min=1,dive"`
}

func (in UpdateDrinkInput) Empty() bool {
	return in.Title == nil && in.Recipe == nil
}
