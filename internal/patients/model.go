package patients

// PatientRecord is the structured patient data carried through the pipeline.
// Intake produces it from free text; Lookup resolves it against the store.
// Identity is only established by Lookup; nothing in memory is unique.
type PatientRecord struct {
	Name              string `json:"name,omitempty"`
	DOB               string `json:"dob,omitempty"`
	MRN               string `json:"mrn,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Doctor            string `json:"doctor,omitempty"`
	Location          string `json:"location,omitempty"`
	InsuranceCarrier  string `json:"insurance_carrier,omitempty"`
	InsuranceMemberID string `json:"insurance_member_id,omitempty"`
	InsuranceGroup    string `json:"insurance_group,omitempty"`

	// Request holds free text that has not been structured yet. RawText is
	// set instead of the fields above when extraction output was unparsable.
	Request string `json:"request,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}

// Merge overlays parsed fields onto the record, parsed values winning on
// collision. Empty parsed fields leave the existing value in place.
func (p PatientRecord) Merge(parsed PatientRecord) PatientRecord {
	out := p
	if parsed.Name != "" {
		out.Name = parsed.Name
	}
	if parsed.DOB != "" {
		out.DOB = parsed.DOB
	}
	if parsed.MRN != "" {
		out.MRN = parsed.MRN
	}
	if parsed.Email != "" {
		out.Email = parsed.Email
	}
	if parsed.Phone != "" {
		out.Phone = parsed.Phone
	}
	if parsed.Doctor != "" {
		out.Doctor = parsed.Doctor
	}
	if parsed.Location != "" {
		out.Location = parsed.Location
	}
	if parsed.InsuranceCarrier != "" {
		out.InsuranceCarrier = parsed.InsuranceCarrier
	}
	if parsed.InsuranceMemberID != "" {
		out.InsuranceMemberID = parsed.InsuranceMemberID
	}
	if parsed.InsuranceGroup != "" {
		out.InsuranceGroup = parsed.InsuranceGroup
	}
	if parsed.RawText != "" {
		out.RawText = parsed.RawText
	}
	return out
}

// FillEmpty copies fields from other into fields the record has not set.
// Existing values stay authoritative on collision, so what the patient asked
// for survives a lookup that echoes different stored values.
func (p PatientRecord) FillEmpty(other PatientRecord) PatientRecord {
	out := p
	if out.Name == "" {
		out.Name = other.Name
	}
	if out.DOB == "" {
		out.DOB = other.DOB
	}
	if out.MRN == "" {
		out.MRN = other.MRN
	}
	if out.Email == "" {
		out.Email = other.Email
	}
	if out.Phone == "" {
		out.Phone = other.Phone
	}
	if out.Doctor == "" {
		out.Doctor = other.Doctor
	}
	if out.Location == "" {
		out.Location = other.Location
	}
	if out.InsuranceCarrier == "" {
		out.InsuranceCarrier = other.InsuranceCarrier
	}
	if out.InsuranceMemberID == "" {
		out.InsuranceMemberID = other.InsuranceMemberID
	}
	if out.InsuranceGroup == "" {
		out.InsuranceGroup = other.InsuranceGroup
	}
	return out
}

// StoredPatient is a row from the patients table. Dates stay as stored text
// so an unparsable last_visit can still classify as new with a reason.
type StoredPatient struct {
	ID                int64
	MRN               string
	Name              string
	DOB               string
	Email             string
	Phone             string
	InsuranceCarrier  string
	InsuranceMemberID string
	InsuranceGroup    string
	Doctor            string
	PreferredLocation string
	LastVisit         string
}

// Classification is the new-vs-returning determination for a patient.
type Classification string

const (
	ClassificationNew       Classification = "new"
	ClassificationReturning Classification = "returning"
)

// LookupResult is the immutable outcome of resolving a patient against the
// store. Not-found is a normal outcome, not an error.
type LookupResult struct {
	Found          bool           `json:"found"`
	Classification Classification `json:"classification"`
	Reason         string         `json:"reason"`

	MRN               string `json:"mrn,omitempty"`
	Name              string `json:"name,omitempty"`
	DOB               string `json:"dob,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	InsuranceCarrier  string `json:"insurance_carrier,omitempty"`
	InsuranceMemberID string `json:"insurance_member_id,omitempty"`
	InsuranceGroup    string `json:"insurance_group,omitempty"`
	Doctor            string `json:"doctor,omitempty"`
	PreferredLocation string `json:"preferred_location,omitempty"`
	LastVisit         string `json:"last_visit,omitempty"`
}
