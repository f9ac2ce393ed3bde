package models

// RawBomRow is the canonical shape one BOM row must validate against,
// whether supplied directly by the caller or produced by an LLM
// reformatting pass. Struct tags are go-playground/validator/v10 rules,
// grounded on acdtunes-spacetraders' config validation convention.
type RawBomRow struct {
	Qty         int    `json:"qty" validate:"required,min=1"`
	Description string `json:"description" validate:"required"`
	Package     string `json:"package" validate:"required"`
	PossibleMpn string `json:"possible_mpn,omitempty" validate:"omitempty"`
	Notes       string `json:"notes,omitempty" validate:"omitempty"`
}
