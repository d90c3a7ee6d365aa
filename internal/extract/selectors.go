package extract

// Page locators for the lab results site
const (
	// ResultTableSelector is the catalog listing table
	ResultTableSelector = "#resultTable"
	// catalogHeaderRows are the header and footer label rows at the top of
	// the listing
	catalogHeaderRows = 2

	SampleNameSelector = "#sample-name"
	NotFoundSelector   = ".page-not-found, .error-404"

	HeaderSelector  = "#sample-details"
	SummarySelector = "#summary-table"
	PotencySelector = "#potency-table"
	TerpeneSelector = "#terpene-table"

	// UnitToggleSelector carries the displayed unit in data-unit
	UnitToggleSelector = "#unit-toggle"
	unitAttr           = "data-unit"
)
