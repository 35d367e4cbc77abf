package model

// FeeRecord is one physician fee schedule line. Money fields are integer
// cents; nil means the source column was blank.
type FeeRecord struct {
	Year                int
	Code                string
	Modifier            string
	Locality            string
	Description         string
	StatusCode          string
	QualityProgram      bool
	NonFacilityFeeCents *int64
	FacilityFeeCents    *int64
}

// Columns returns the fee upsert column order.
func (FeeRecord) Columns() []string {
	return []string{
		"year", "code", "modifier", "locality", "description",
		"status_code", "quality_program", "non_facility_fee_cents", "facility_fee_cents",
	}
}

// Values returns the record's values in Columns order.
func (r *FeeRecord) Values() []any {
	return []any{
		r.Year, r.Code, r.Modifier, r.Locality, r.Description,
		r.StatusCode, r.QualityProgram, r.NonFacilityFeeCents, r.FacilityFeeCents,
	}
}

// GPCIRecord is one geographic practice cost index line for a pricing
// locality. The three indices are unit factors, not currency.
type GPCIRecord struct {
	Year         int
	Locality     string
	State        string
	LocalityName string
	WorkGPCI     float64
	PEGPCI       float64
	MPGPCI       float64
}

func (GPCIRecord) Columns() []string {
	return []string{"year", "locality", "state", "locality_name", "work_gpci", "pe_gpci", "mp_gpci"}
}

func (r *GPCIRecord) Values() []any {
	return []any{r.Year, r.Locality, r.State, r.LocalityName, r.WorkGPCI, r.PEGPCI, r.MPGPCI}
}

// ZipLocalityRecord maps one 5-digit ZIP to its carrier and pricing locality.
type ZipLocalityRecord struct {
	Zip5          string
	State         string
	Carrier       string
	Locality      string
	EffectiveYear int
}

func (ZipLocalityRecord) Columns() []string {
	return []string{"zip5", "state", "carrier", "locality", "effective_year"}
}

func (r *ZipLocalityRecord) Values() []any {
	return []any{r.Zip5, r.State, r.Carrier, r.Locality, r.EffectiveYear}
}
