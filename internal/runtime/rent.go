package runtime

// Rent is the storage-cost model. An account is rent exempt, and therefore
// persists indefinitely, when it holds at least MinimumBalance lamports for
// its data length.
type Rent struct {
	// LamportsPerByteYear is the yearly cost of one byte of account storage.
	LamportsPerByteYear uint64 `yaml:"lamports_per_byte_year" json:"lamports_per_byte_year"`

	// ExemptionYears is how many years of rent make an account exempt.
	ExemptionYears uint64 `yaml:"exemption_years" json:"exemption_years"`

	// StorageOverhead is the per-account byte overhead charged on top of
	// the data length.
	StorageOverhead uint64 `yaml:"storage_overhead" json:"storage_overhead"`
}

// DefaultRent returns the default rent parameters.
// A data-less account needs 890880 lamports; a 2-byte account 904800.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: 3480,
		ExemptionYears:      2,
		StorageOverhead:     128,
	}
}

// MinimumBalance returns the rent-exempt minimum for dataLen bytes of data.
func (r Rent) MinimumBalance(dataLen int) uint64 {
	return (r.StorageOverhead + uint64(dataLen)) * r.LamportsPerByteYear * r.ExemptionYears
}
