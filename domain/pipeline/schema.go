package pipeline

// Field is the logical name of a canonical project attribute
type Field string

const (
	FieldProjectName           Field = "projectName"
	FieldCodename              Field = "codename"
	FieldOwner                 Field = "owner"
	FieldLocation              Field = "location"
	FieldOverall               Field = "overall"
	FieldThermal               Field = "thermal"
	FieldRedev                 Field = "redev"
	FieldRedevLoad             Field = "redevLoad"
	FieldICScore               Field = "icScore"
	FieldProcess               Field = "process"
	FieldSites                 Field = "numberOfSites"
	FieldCapacity              Field = "capacity"
	FieldTech                  Field = "tech"
	FieldHeatRate              Field = "heatRate"
	FieldCapacityFactor        Field = "capacityFactor"
	FieldLegacyCOD             Field = "legacyCOD"
	FieldPlantCOD              Field = "plantCOD"
	FieldGasReference          Field = "gasReference"
	FieldRedevTier             Field = "redevTier"
	FieldRedevBaseCase         Field = "redevBaseCase"
	FieldRedevCapacity         Field = "redevCapacity"
	FieldRedevTech             Field = "redevTech"
	FieldRedevFuel             Field = "redevFuel"
	FieldRedevHeatRate         Field = "redevHeatRate"
	FieldRedevCOD              Field = "redevCOD"
	FieldRedevLandControl      Field = "redevLandControl"
	FieldRedevStageGate        Field = "redevStageGate"
	FieldRedevLead             Field = "redevLead"
	FieldRedevSupport          Field = "redevSupport"
	FieldContact               Field = "contact"
	FieldISO                   Field = "iso"
	FieldZone                  Field = "zone"
	FieldSiteAcreage           Field = "siteAcreage"
	FieldFuel                  Field = "fuel"
	FieldMarkets               Field = "markets"
	FieldThermalOptimization   Field = "thermalOptimization"
	FieldEnvironmental         Field = "environmentalScore"
	FieldMarketScore           Field = "marketScore"
	FieldInfra                 Field = "infra"
	FieldIX                    Field = "ix"
	FieldCoLocate              Field = "coLocateRepower"
	FieldTransactibility       Field = "transactibility"
	FieldTransactabilityScores Field = "transactabilityScores"
	FieldTransactability       Field = "transactability"
	FieldTransmission          Field = "transmission"
	FieldProjectType           Field = "projectType"
	FieldStatus                Field = "status"
)

// ColumnDef describes how a canonical field is found in a sheet and stored in the database
type ColumnDef struct {
	Field    Field
	Label    string   // Default spreadsheet label, also the detail key
	DBColumn string   // Column in the projects table
	Patterns []string // Lowercase fragments, most specific first
	Numeric  bool     // Stored as NUMERIC
}

var schema = []ColumnDef{
	{FieldProjectName, "Project Name", "project_name", []string{"project name"}, false},
	{FieldCodename, "Project Codename", "project_codename", []string{"project codename"}, false},
	{FieldOwner, "Plant Owner", "plant_owner", []string{"plant owner", "owner"}, false},
	{FieldLocation, "Location", "location", []string{"location"}, false},
	{FieldOverall, "Overall Project Score", "overall_project_score", []string{"overall project score", "overall"}, true},
	{FieldThermal, "Thermal Operating Score", "thermal_operating_score", []string{"thermal operating score", "thermal"}, true},
	{FieldRedev, "Redevelopment Score", "redevelopment_score", []string{"redevelopment score", "redevelopment", "redev"}, true},
	{FieldRedevLoad, "Redevelopment (Load) Score", "redevelopment_load_score", []string{"redevelopment (load) score"}, false},
	{FieldICScore, "I&C Score", "ic_score", []string{"i&c score"}, false},
	{FieldProcess, "Process (P) or Bilateral (B)", "process_type", []string{"process", "bilateral", "p or b"}, false},
	{FieldSites, "Number of Sites", "number_of_sites", []string{"number of sites"}, false},
	{FieldCapacity, "Legacy Nameplate Capacity (MW)", "legacy_nameplate_capacity_mw", []string{"legacy nameplate capacity", "capacity", "mw"}, true},
	{FieldTech, "Tech", "tech", []string{"tech"}, false},
	{FieldHeatRate, "Heat Rate (Btu/kWh)", "heat_rate_btu_kwh", []string{"heat rate", "hr"}, true},
	{FieldCapacityFactor, "2024 Capacity Factor", "capacity_factor_2024", []string{"2024 capacity factor", "capacity factor", "cf"}, false},
	{FieldLegacyCOD, "Legacy COD", "legacy_cod", []string{"legacy cod", "cod", "commissioning year", "year", "legacy"}, false},
	{FieldPlantCOD, "Plant COD", "plant_cod", []string{"plant cod", "plant  cod", "cod (plant)"}, false},
	{FieldGasReference, "Gas Reference", "gas_reference", []string{"gas reference"}, false},
	{FieldRedevTier, "Redev Tier", "redev_tier", []string{"redev tier", "redevelopment tier"}, false},
	{FieldRedevBaseCase, "Redevelopment Base Case", "redevelopment_base_case", []string{"redevelopment base case", "redev base case"}, false},
	{FieldRedevCapacity, "Redev Capacity (MW)", "redev_capacity_mw", []string{"redev capacity"}, true},
	{FieldRedevTech, "Redev Tech", "redev_tech", []string{"redev tech"}, false},
	{FieldRedevFuel, "Redev Fuel", "redev_fuel", []string{"redev fuel"}, false},
	{FieldRedevHeatRate, "Redev Heatrate (Btu/kWh)", "redev_heatrate_btu_kwh", []string{"redev heatrate", "redev heat rate"}, true},
	{FieldRedevCOD, "Redev COD", "redev_cod", []string{"redev cod"}, false},
	{FieldRedevLandControl, "Redev Land Control", "redev_land_control", []string{"redev land control", "land control"}, false},
	{FieldRedevStageGate, "Redev Stage Gate", "redev_stage_gate", []string{"redev stage gate", "stage gate"}, false},
	{FieldRedevLead, "Redev Lead", "redev_lead", []string{"redev lead"}, false},
	{FieldRedevSupport, "Redev Support", "redev_support", []string{"redev support"}, false},
	{FieldContact, "Contact", "contact", []string{"contact"}, false},
	{FieldISO, "ISO", "iso", []string{"iso"}, false},
	{FieldZone, "Zone/Submarket", "zone_submarket", []string{"zone/submarket", "zone"}, false},
	{FieldSiteAcreage, "Site Acreage", "site_acreage", []string{"site acreage"}, false},
	{FieldFuel, "Fuel", "fuel", []string{"fuel"}, false},
	{FieldMarkets, "Markets", "markets", []string{"markets"}, false},
	{FieldThermalOptimization, "Thermal Optimization", "thermal_optimization", []string{"thermal optimization"}, false},
	{FieldEnvironmental, "Environmental Score", "environmental_score", []string{"envionmental score", "environmental score"}, false},
	{FieldMarketScore, "Market Score", "market_score", []string{"market score"}, false},
	{FieldInfra, "Infra", "infra", []string{"infra"}, false},
	{FieldIX, "IX", "ix", []string{"ix"}, false},
	{FieldCoLocate, "Co-Locate/Repower", "co_locate_repower", []string{"co-locate/repower", "co-locate", "repower"}, false},
	{FieldTransactibility, "Transactibility", "transactibility", []string{"transactibility"}, false},
	{FieldTransactabilityScores, "Transactability Scores", "transactability_scores", []string{"transactability scores", "transactability score"}, false},
	{FieldTransactability, "Transactability", "transactability", []string{"transactability", "transactionality"}, false},
	{FieldTransmission, "Transmission Data", "transmission_data", []string{"transmission data", "transmission"}, false},
	{FieldProjectType, "Project Type", "project_type", []string{"project type"}, false},
	{FieldStatus, "Status", "status", []string{"status"}, false},
}

var (
	schemaByField    = make(map[Field]ColumnDef, len(schema))
	schemaByDBColumn = make(map[string]ColumnDef, len(schema))
)

func init() {
	for _, def := range schema {
		schemaByField[def.Field] = def
		schemaByDBColumn[def.DBColumn] = def
	}
}

// Schema returns a copy of the canonical column table in display order
func Schema() []ColumnDef {
	out := make([]ColumnDef, len(schema))
	copy(out, schema)
	return out
}

// Lookup returns the column definition for a field
func Lookup(field Field) (ColumnDef, bool) {
	def, ok := schemaByField[field]
	return def, ok
}

// LookupDBColumn returns the column definition stored under a database column name
func LookupDBColumn(column string) (ColumnDef, bool) {
	def, ok := schemaByDBColumn[column]
	return def, ok
}

// DefaultLabel returns the fallback spreadsheet label for a field
func DefaultLabel(field Field) string {
	return schemaByField[field].Label
}
