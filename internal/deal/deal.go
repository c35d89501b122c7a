package deal

import "time"

// RawRecord is an untrusted deal record as fetched from the record store.
// There is no schema guarantee: numeric fields may arrive as numbers or
// numeric strings, and logically equivalent fields may use different names
// depending on which upstream writer produced the record.
type RawRecord map[string]interface{}

// VehicleType classifies the vehicle on a deal
type VehicleType string

const (
	VehicleTypeNew  VehicleType = "New"
	VehicleTypeUsed VehicleType = "Used"
	VehicleTypeCPO  VehicleType = "CertifiedPreOwned"
)

// DealType classifies how the deal was financed
type DealType string

const (
	DealTypeCash    DealType = "Cash"
	DealTypeFinance DealType = "Finance"
	DealTypeLease   DealType = "Lease"
)

// DealStatus is the business state of a deal. Every deal has exactly one.
type DealStatus string

const (
	StatusPending  DealStatus = "Pending"
	StatusFunded   DealStatus = "Funded"
	StatusUnwound  DealStatus = "Unwound"
	StatusDeadDeal DealStatus = "DeadDeal"
)

// Product identifies one of the fixed set of finance/insurance products
// that can be attached to a deal.
type Product string

const (
	ProductServiceContract      Product = "service-contract"
	ProductPrepaidMaintenance   Product = "prepaid-maintenance"
	ProductGapInsurance         Product = "gap-insurance"
	ProductTireAndWheel         Product = "tire-and-wheel"
	ProductAppearanceProtection Product = "appearance-protection"
	ProductOther                Product = "other"
)

// productOrder is the canonical enumeration order for product mix output.
var productOrder = []Product{
	ProductServiceContract,
	ProductPrepaidMaintenance,
	ProductGapInsurance,
	ProductTireAndWheel,
	ProductAppearanceProtection,
	ProductOther,
}

// Deal is the canonical, engine-internal deal entity produced by Normalize.
type Deal struct {
	ID          string      `json:"id"`
	DealNumber  string      `json:"deal_number"`
	StockNumber string      `json:"stock_number"`
	VINSuffix   string      `json:"vin_suffix"`
	VehicleType VehicleType `json:"vehicle_type"`
	DealType    DealType    `json:"deal_type"`
	Status      DealStatus  `json:"status"`
	DealDate    time.Time   `json:"deal_date"`

	FrontEndGross float64 `json:"front_end_gross"`
	BackEndGross  float64 `json:"back_end_gross"`
	TotalGross    float64 `json:"total_gross"`

	// ProductProfits holds per-product profit keyed by the fixed product
	// enumeration; absent products are zero.
	ProductProfits map[Product]float64 `json:"product_profits"`

	PrimaryParticipantID   string `json:"primary_participant_id"`
	SecondaryParticipantID string `json:"secondary_participant_id,omitempty"`
	IsSplitDeal            bool   `json:"is_split_deal"`
	SupervisorID           string `json:"supervisor_id,omitempty"`

	// IsActive is false when the raw record could not be mapped; such deals
	// are retained (never dropped silently) but excluded from metrics.
	IsActive bool   `json:"is_active"`
	Error    string `json:"error,omitempty"`

	// Raw is the original untouched record, retained for traceability and
	// legacy-field access.
	Raw RawRecord `json:"-"`
}

// ProductProfit is one entry of a deal's product mix.
type ProductProfit struct {
	Name   Product `json:"name"`
	Profit float64 `json:"profit"`
}

// MetricFlags are the participation flags derived from a deal's status.
type MetricFlags struct {
	CountsForSold      bool `json:"counts_for_sold"`
	CountsForTracking  bool `json:"counts_for_tracking"`
	CountsForPVR       bool `json:"counts_for_pvr"`
	ExcludeFromMetrics bool `json:"exclude_from_metrics"`
}

// SplitCredit is the credit allocation for one participant on one deal.
type SplitCredit struct {
	HasCredit        bool   `json:"has_credit"`
	CreditPercentage int    `json:"credit_percentage"`
	SplitWithID      string `json:"split_with_id,omitempty"`
}

// Enriched is a Deal plus the derived figures the dashboards consume.
// It is computed fresh on every aggregation call and never persisted.
type Enriched struct {
	Deal
	ProductMix  []ProductProfit `json:"product_mix"`
	MetricFlags MetricFlags     `json:"metric_flags"`
	SplitCredit SplitCredit     `json:"split_credit"`

	AdjustedFrontGross float64 `json:"adjusted_front_gross"`
	AdjustedBackGross  float64 `json:"adjusted_back_gross"`
	AdjustedTotalGross float64 `json:"adjusted_total_gross"`
}

// Enrich derives product mix, metric flags, credit allocation and
// credit-adjusted gross figures for one deal. An empty participantID means
// the caller is not filtering by participant, so the deal keeps full credit.
func Enrich(d Deal, participantID string) Enriched {
	credit := SplitCredit{HasCredit: true, CreditPercentage: 100}
	if participantID != "" {
		credit = AllocateCredit(d, participantID)
	}

	scale := float64(credit.CreditPercentage) / 100

	return Enriched{
		Deal:               d,
		ProductMix:         ProductMix(d),
		MetricFlags:        ClassifyStatus(d.Status),
		SplitCredit:        credit,
		AdjustedFrontGross: d.FrontEndGross * scale,
		AdjustedBackGross:  d.BackEndGross * scale,
		AdjustedTotalGross: d.TotalGross * scale,
	}
}
