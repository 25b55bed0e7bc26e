package reconcile

import "sfproperty/internal/types"

// List caps.
const (
	MaxPermits    = 5
	MaxEvictions  = 10
	MaxComplaints = 10
	MaxBuyouts    = 5
)

const (
	unknown            = "Unknown"
	reasonNotSpecified = "Reason not specified"
)

// evictionReasons maps the eviction notice flag columns to labels, in the
// order labels are listed.
var evictionReasons = []struct {
	label string
	flag  func(*types.EvictionRecord) types.Field
}{
	{"Non-Payment of Rent", func(r *types.EvictionRecord) types.Field { return r.NonPayment }},
	{"Breach of Lease", func(r *types.EvictionRecord) types.Field { return r.Breach }},
	{"Nuisance", func(r *types.EvictionRecord) types.Field { return r.Nuisance }},
	{"Illegal Use", func(r *types.EvictionRecord) types.Field { return r.IllegalUse }},
	{"Failure to Sign Renewal", func(r *types.EvictionRecord) types.Field { return r.FailureToSignRenewal }},
	{"Access Denial", func(r *types.EvictionRecord) types.Field { return r.AccessDenial }},
	{"Unapproved Subtenant", func(r *types.EvictionRecord) types.Field { return r.UnapprovedSubtenant }},
	{"Owner Move-In", func(r *types.EvictionRecord) types.Field { return r.OwnerMoveIn }},
	{"Demolition", func(r *types.EvictionRecord) types.Field { return r.Demolition }},
	{"Capital Improvement", func(r *types.EvictionRecord) types.Field { return r.CapitalImprovement }},
	{"Substantial Rehab", func(r *types.EvictionRecord) types.Field { return r.SubstantialRehab }},
	{"Ellis Act Withdrawal", func(r *types.EvictionRecord) types.Field { return r.EllisActWithdrawal }},
	{"Condo Conversion", func(r *types.EvictionRecord) types.Field { return r.CondoConversion }},
	{"Roommate Same Unit", func(r *types.EvictionRecord) types.Field { return r.RoommateSameUnit }},
	{"Other Cause", func(r *types.EvictionRecord) types.Field { return r.OtherCause }},
	{"Late Payments", func(r *types.EvictionRecord) types.Field { return r.LatePayments }},
	{"Lead Remediation", func(r *types.EvictionRecord) types.Field { return r.LeadRemediation }},
	{"Development Agreement", func(r *types.EvictionRecord) types.Field { return r.Development }},
	{"Good Samaritan Ends", func(r *types.EvictionRecord) types.Field { return r.GoodSamaritanEnds }},
}

// EvictionReasons lists the labels of the flags set on a notice.
func EvictionReasons(r types.EvictionRecord) []string {
	var out []string
	for _, reason := range evictionReasons {
		if reason.flag(&r).Bool() {
			out = append(out, reason.label)
		}
	}
	if len(out) == 0 {
		return []string{reasonNotSpecified}
	}
	return out
}

// date keeps the calendar date of an ISO timestamp.
func date(f types.Field) string {
	v, ok := f.Value()
	if !ok {
		return unknown
	}
	if len(v) > 10 {
		v = v[:10]
	}
	return v
}

// Permits projects permit rows, newest first as the dataset returns them.
func Permits(recs []types.PermitRecord) []types.PermitEntry {
	out := make([]types.PermitEntry, 0, min(len(recs), MaxPermits))
	for _, r := range recs[:min(len(recs), MaxPermits)] {
		out = append(out, types.PermitEntry{
			Description: r.Description.Or("N/A"),
			Status:      r.Status.Or("N/A"),
			FiledDate:   date(r.FiledDate),
			PermitType:  r.PermitType.Or("N/A"),
		})
	}
	return out
}

// Evictions projects eviction notices.
func Evictions(recs []types.EvictionRecord) []types.EvictionEntry {
	out := make([]types.EvictionEntry, 0, min(len(recs), MaxEvictions))
	for _, r := range recs[:min(len(recs), MaxEvictions)] {
		out = append(out, types.EvictionEntry{
			FileDate:           date(r.FileDate),
			EvictionReason:     EvictionReasons(r),
			Neighborhood:       r.Neighborhood.Or(unknown),
			SupervisorDistrict: r.SupervisorDistrict.Or(unknown),
		})
	}
	return out
}

// Complaints projects housing complaints. Complaints without a resolution
// are pending.
func Complaints(recs []types.ComplaintRecord) []types.ComplaintEntry {
	out := make([]types.ComplaintEntry, 0, min(len(recs), MaxComplaints))
	for _, r := range recs[:min(len(recs), MaxComplaints)] {
		out = append(out, types.ComplaintEntry{
			DateFiled:  date(r.DateFiled),
			Category:   r.Category.Or(unknown),
			Type:       r.Type.Or(unknown),
			Status:     r.Status.Or(unknown),
			Resolution: r.Resolution.Or("Pending"),
		})
	}
	return out
}

// Buyouts projects buyout agreement filings.
func Buyouts(recs []types.BuyoutRecord) []types.BuyoutEntry {
	out := make([]types.BuyoutEntry, 0, min(len(recs), MaxBuyouts))
	for _, r := range recs[:min(len(recs), MaxBuyouts)] {
		out = append(out, types.BuyoutEntry{
			FilingDate:   date(r.FilingDate),
			BuyoutAmount: r.BuyoutAmount.Or("Not disclosed"),
			Neighborhood: r.Neighborhood.Or(unknown),
		})
	}
	return out
}
