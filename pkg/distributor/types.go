package distributor

import "github.com/shopspring/decimal"

// PartRecord is the normalized shape of one distributor search result,
// per spec.md §4.3's field table.
type PartRecord struct {
	DistributorPartNumber string
	ManufacturerPartNumber string
	ManufacturerName       string
	Description            string
	DatasheetURL           string
	Price                  *decimal.Decimal
	Availability           string
}

// mouserPriceBreak is one entry of a Mouser part's PriceBreaks array.
type mouserPriceBreak struct {
	Quantity int    `json:"Quantity"`
	Price    string `json:"Price"`
}

// mouserPart is the subset of Mouser's per-part response fields this
// service consumes.
type mouserPart struct {
	MouserPartNumber       string             `json:"MouserPartNumber"`
	ManufacturerPartNumber string             `json:"ManufacturerPartNumber"`
	Manufacturer           string             `json:"Manufacturer"`
	Description            string             `json:"Description"`
	DataSheetURL            string             `json:"DataSheetUrl"`
	PriceBreaks            []mouserPriceBreak `json:"PriceBreaks"`
	AvailabilityInStock    string             `json:"AvailabilityInStock"`
	LeadTime               string             `json:"LeadTime"`
}

// mouserSearchResponse is the wire shape of a Mouser keyword-search
// response, per spec.md §6.
type mouserSearchResponse struct {
	SearchResults struct {
		Parts []mouserPart `json:"Parts"`
	} `json:"SearchResults"`
	Errors []mouserAPIError `json:"Errors"`
}

type mouserAPIError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

type mouserSearchRequest struct {
	SearchByKeywordRequest mouserSearchRequestBody `json:"SearchByKeywordRequest"`
}

type mouserSearchRequestBody struct {
	Keyword                   string      `json:"keyword"`
	Records                   int         `json:"records"`
	StartingRecord            int         `json:"startingRecord"`
	SearchOptions             interface{} `json:"searchOptions"`
	SearchWithYourSignUpLanguage interface{} `json:"searchWithYourSignUpLanguage"`
}
