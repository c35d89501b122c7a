package deal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// fieldAliases is the ordered field-priority resolution table: for each
// canonical field the current name is tried first, then each known legacy
// alias. This table is the single place upstream schema drift is handled;
// new aliases from older record writers get added here and nowhere else.
var fieldAliases = map[string][]string{
	"id":          {"id", "dealId", "_id"},
	"dealNumber":  {"dealNumber", "dealNo", "deal_number"},
	"stockNumber": {"stockNumber", "stockNo", "stock_number"},
	"vin":         {"vin", "vinNumber", "vehicleVin"},

	"vehicleType":        {"vehicleType", "newUsed", "vehicle_type"},
	"vehicleDescription": {"vehicleDescription", "vehicle", "description"},
	"dealType":           {"dealType", "saleType", "deal_type"},
	"status":             {"status", "dealStatus", "deal_status"},
	"dealDate":           {"dealDate", "soldDate", "date", "deal_date"},

	"frontEndGross": {"frontEndGross", "frontGross", "front_end_gross"},
	"backEndGross":  {"backEndGross", "backGross", "back_end_gross"},
	"totalGross":    {"totalGross", "grossProfit", "total_gross"},

	"serviceContract":      {"vscProfit", "serviceContractProfit", "warrantyProfit"},
	"prepaidMaintenance":   {"ppmProfit", "prepaidMaintenanceProfit", "maintenanceProfit"},
	"gapInsurance":         {"gapProfit", "gapInsuranceProfit"},
	"tireAndWheel":         {"tireWheelProfit", "tireAndWheelProfit"},
	"appearanceProtection": {"appearanceProfit", "appearanceProtectionProfit"},
	"other":                {"otherProfit", "miscProfit"},

	"primaryParticipant":   {"salespersonId", "primarySalespersonId", "userId"},
	"secondaryParticipant": {"secondSalespersonId", "splitSalespersonId"},
	"isSplitDeal":          {"isSplitDeal", "splitDeal"},
	"supervisor":           {"managerId", "supervisorId"},
}

// productFields maps canonical product names onto alias-table keys.
var productFields = map[Product]string{
	ProductServiceContract:      "serviceContract",
	ProductPrepaidMaintenance:   "prepaidMaintenance",
	ProductGapInsurance:         "gapInsurance",
	ProductTireAndWheel:         "tireAndWheel",
	ProductAppearanceProtection: "appearanceProtection",
	ProductOther:                "other",
}

// dateLayouts are the formats historical record writers have used for deal dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// Normalize maps an arbitrary raw record into the canonical Deal shape.
// It is total: every record, however malformed, produces a Deal. Records
// that cannot be mapped at all come back with IsActive=false and the Error
// marker set; callers check that flag rather than rely on errors.
func Normalize(raw RawRecord) (d Deal) {
	defer func() {
		if r := recover(); r != nil {
			d = Deal{
				IsActive:       false,
				Error:          fmt.Sprintf("unmappable record: %v", r),
				ProductProfits: map[Product]float64{},
				Raw:            raw,
			}
		}
	}()

	d = Deal{
		ID:          resolveString(raw, "id"),
		DealNumber:  resolveString(raw, "dealNumber"),
		StockNumber: resolveString(raw, "stockNumber"),
		VINSuffix:   vinSuffix(resolveString(raw, "vin")),
		VehicleType: normalizeVehicleType(resolveString(raw, "vehicleType"), resolveString(raw, "vehicleDescription")),
		DealType:    normalizeDealType(resolveString(raw, "dealType")),
		Status:      normalizeStatus(resolveString(raw, "status")),
		DealDate:    resolveDate(raw, "dealDate"),

		FrontEndGross: resolveNumber(raw, "frontEndGross"),
		BackEndGross:  resolveNumber(raw, "backEndGross"),
		TotalGross:    resolveNumber(raw, "totalGross"),

		PrimaryParticipantID:   resolveString(raw, "primaryParticipant"),
		SecondaryParticipantID: resolveString(raw, "secondaryParticipant"),
		IsSplitDeal:            resolveBool(raw, "isSplitDeal"),
		SupervisorID:           resolveString(raw, "supervisor"),

		IsActive: true,
		Raw:      raw,
	}

	d.ProductProfits = make(map[Product]float64, len(productFields))
	for product, field := range productFields {
		d.ProductProfits[product] = resolveNumber(raw, field)
	}

	// Older writers never stored a total; derive it from the parts.
	if d.TotalGross == 0 {
		d.TotalGross = d.FrontEndGross + d.BackEndGross
	}

	return d
}

// NormalizeAll maps a raw record slice, preserving input order.
func NormalizeAll(raws []RawRecord) []Deal {
	deals := make([]Deal, 0, len(raws))
	for _, raw := range raws {
		deals = append(deals, Normalize(raw))
	}
	return deals
}

// resolve walks the alias list for a canonical field and returns the first
// value present in the record.
func resolve(raw RawRecord, field string) (interface{}, bool) {
	for _, key := range fieldAliases[field] {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func resolveString(raw RawRecord, field string) string {
	v, ok := resolve(raw, field)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

// resolveNumber coerces numbers that may arrive as floats, ints, json.Number
// or numeric strings. Anything non-coercible (e.g. "1,200") defaults to 0 so
// NaN never propagates into the sums downstream.
func resolveNumber(raw RawRecord, field string) float64 {
	v, ok := resolve(raw, field)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func resolveBool(raw RawRecord, field string) bool {
	v, ok := resolve(raw, field)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	case float64:
		return b != 0
	default:
		return false
	}
}

func resolveDate(raw RawRecord, field string) time.Time {
	v, ok := resolve(raw, field)
	if !ok {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed
			}
		}
		return time.Time{}
	case float64:
		// Epoch milliseconds from the oldest writer generation.
		return time.UnixMilli(int64(t)).UTC()
	default:
		return time.Time{}
	}
}

// normalizeVehicleType accepts single-letter codes first and falls back to
// classifying a free-text vehicle description.
func normalizeVehicleType(code, description string) VehicleType {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "N", "NEW":
		return VehicleTypeNew
	case "C", "CPO", "CERTIFIED", "CERTIFIEDPREOWNED":
		return VehicleTypeCPO
	case "U", "USED":
		return VehicleTypeUsed
	}

	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "cpo"), strings.Contains(desc, "certified"):
		return VehicleTypeCPO
	case strings.Contains(desc, "new"):
		return VehicleTypeNew
	default:
		return VehicleTypeUsed
	}
}

func normalizeDealType(s string) DealType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return DealTypeCash
	case "lease":
		return DealTypeLease
	default:
		return DealTypeFinance
	}
}

func normalizeStatus(s string) DealStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "funded":
		return StatusFunded
	case "pending":
		return StatusPending
	case "unwound":
		return StatusUnwound
	case "dead", "deaddeal", "dead_deal":
		return StatusDeadDeal
	default:
		return DealStatus(s)
	}
}

func vinSuffix(vin string) string {
	if len(vin) <= 8 {
		return vin
	}
	return vin[len(vin)-8:]
}
