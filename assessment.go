package imagebot

// LicenseSignal is one evidence point about an image's license status.
type LicenseSignal struct {
	Source  string // "domain", "metadata_stock", "metadata_cc"
	Detail  string
	License ImageLicense
}

// LicenseAssessment combines domain and metadata signals for an accepted
// image. It is informational: selection never depends on it.
type LicenseAssessment struct {
	License     ImageLicense    // Stock > Safe > Unknown
	Attribution string          // credit line from metadata, may be empty
	Signals     []LicenseSignal // never nil
}

// AssessLicense classifies the candidate by host and embedded metadata.
func AssessLicense(c ImageCandidate) LicenseAssessment {
	signals := make([]LicenseSignal, 0, 3) //nolint:mnd // one per signal type

	if l := CheckLicense(c.URL); l != LicenseUnknown {
		signals = append(signals, LicenseSignal{
			Source:  "domain",
			Detail:  extractHost(c.URL),
			License: l,
		})
	}
	if IsStockByMetadata(c.Metadata) {
		signals = append(signals, LicenseSignal{
			Source:  "metadata_stock",
			Detail:  c.Metadata.Attribution(),
			License: LicenseStock,
		})
	}
	if IsCCByMetadata(c.Metadata) {
		signals = append(signals, LicenseSignal{
			Source:  "metadata_cc",
			Detail:  firstNonEmpty(c.Metadata.License, c.Metadata.WebStatement, c.Metadata.UsageTerms, c.Metadata.Rights),
			License: LicenseSafe,
		})
	}

	final := LicenseUnknown
	for _, sig := range signals {
		if sig.License == LicenseStock {
			final = LicenseStock
			break
		}
		if sig.License == LicenseSafe {
			final = LicenseSafe
		}
	}

	return LicenseAssessment{
		License:     final,
		Attribution: c.Metadata.Attribution(),
		Signals:     signals,
	}
}
