package domain

import "time"

type Ingredient struct {
	Name  string `json:"name" validate:"required,max=80"`
	Color string `json:"color" validate:"required,max=40"`
	Parts int    `json:"parts" validate:"gte=1,lte=100"`
}

type Drink struct {
	ID        int64
	Title     string
	Recipe    []Ingredient
	CreatedAt time.Time
	UpdatedAt time.Time
}
