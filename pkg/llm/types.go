package llm

// PartInfo is the operator-supplied description of one BomItem, the
// input to both prompt families.
type PartInfo struct {
	Qty         int
	Description string
	PossibleMpn string
	Package     string
	Notes       string
}

// BomContextRow is one other line item shown to the model for
// cross-item consistency when ranking candidates — the immutable BOM
// snapshot from spec.md §4.6, never mutated across the run.
type BomContextRow struct {
	Description string
	Package     string
	PossibleMpn string
}

// Candidate is one distributor search result shown to the model when
// choosing the best part.
type Candidate struct {
	ManufacturerPartNumber string
	ManufacturerName       string
	DistributorPartNumber  string
	Description            string
	Price                  string
	Availability           string
	DatasheetURL           string
}
