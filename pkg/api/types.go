package api

import (
	"github.com/shopspring/decimal"

	"github.com/LastZactionHero/part-finder/pkg/models"
	"github.com/LastZactionHero/part-finder/pkg/store"
)

// bomComponentResponse is one original BOM row, used for the queued and
// error response branches where no match data exists yet.
type bomComponentResponse struct {
	Qty         int    `json:"qty"`
	Description string `json:"description"`
	PossibleMpn string `json:"possible_mpn,omitempty"`
	Package     string `json:"package"`
	Notes       string `json:"notes,omitempty"`
}

// matchedComponentResponse is one BOM row with whatever match
// information is available, per spec.md §6's MatchedComponent field
// list. Distributor-sourced fields are empty/null until a Component is
// linked.
type matchedComponentResponse struct {
	Qty                     int                       `json:"qty"`
	Description             string                    `json:"description"`
	PossibleMpn             string                    `json:"possible_mpn,omitempty"`
	Package                 string                    `json:"package"`
	Notes                   string                    `json:"notes,omitempty"`
	DistributorPartNumber   string                    `json:"distributor_part_number,omitempty"`
	ManufacturerPartNumber  string                    `json:"manufacturer_part_number,omitempty"`
	ManufacturerName        string                    `json:"manufacturer_name,omitempty"`
	DistributorDescription  string                    `json:"distributor_description,omitempty"`
	DatasheetURL            string                    `json:"datasheet_url,omitempty"`
	Price                   *float64                  `json:"price"`
	Availability            string                    `json:"availability,omitempty"`
	MatchStatus             string                    `json:"match_status,omitempty"`
	PotentialMatches        []potentialMatchResponse `json:"potential_matches"`
}

// potentialMatchResponse is one ranked alternative, per spec.md §6's
// PotentialMatch field list.
type potentialMatchResponse struct {
	Rank                    int      `json:"rank"`
	ManufacturerPartNumber  string   `json:"manufacturer_part_number"`
	Reason                  string   `json:"reason,omitempty"`
	SelectionState          string   `json:"selection_state"`
	DistributorPartNumber   string   `json:"distributor_part_number,omitempty"`
	ManufacturerName        string   `json:"manufacturer_name,omitempty"`
	DistributorDescription  string   `json:"distributor_description,omitempty"`
	DatasheetURL            string   `json:"datasheet_url,omitempty"`
	Price                   *float64 `json:"price"`
	Availability            string   `json:"availability,omitempty"`
}

func bomComponentFromItem(item models.BomItem) bomComponentResponse {
	return bomComponentResponse{
		Qty:         item.Qty,
		Description: item.Description,
		Package:     item.Package,
		Notes:       derefOrEmpty(item.Notes),
	}
}

func matchedComponentFromRow(row store.FinishedRow) matchedComponentResponse {
	resp := matchedComponentResponse{
		Qty:         row.Item.Qty,
		Description: row.Item.Description,
		Package:     row.Item.Package,
		Notes:       derefOrEmpty(row.Item.Notes),
	}
	if row.Match != nil {
		resp.MatchStatus = row.Match.Status
	}
	if row.Component != nil {
		resp.DistributorPartNumber = row.Component.DistributorPartNumber
		resp.ManufacturerPartNumber = row.Component.ManufacturerPartNumber
		resp.ManufacturerName = row.Component.ManufacturerName
		resp.DistributorDescription = row.Component.Description
		resp.DatasheetURL = row.Component.DatasheetURL
		resp.Availability = row.Component.Availability
		resp.Price = decimalToFloat(row.Component.UnitPrice)
	}
	return resp
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// decimalToFloat converts Component's fixed-point price to the IEEE
// double the JSON wire format expects, per spec.md §6: "convert
// fixed-point to IEEE double at the boundary".
func decimalToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}
