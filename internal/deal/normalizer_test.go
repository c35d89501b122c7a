package deal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Totality(t *testing.T) {
	t.Run("Empty Record", func(t *testing.T) {
		d := Normalize(RawRecord{})

		assert.True(t, d.IsActive, "empty record should still map to an active deal")
		assert.Empty(t, d.Error)
		assert.Zero(t, d.FrontEndGross)
		assert.NotNil(t, d.ProductProfits)
	})

	t.Run("Nil Record", func(t *testing.T) {
		d := Normalize(nil)
		assert.True(t, d.IsActive)
	})

	t.Run("Null Fields", func(t *testing.T) {
		d := Normalize(RawRecord{
			"dealNumber":    nil,
			"frontEndGross": nil,
			"status":        nil,
		})

		assert.True(t, d.IsActive)
		assert.Empty(t, d.DealNumber)
		assert.Zero(t, d.FrontEndGross)
	})

	t.Run("Wrong Typed Fields", func(t *testing.T) {
		d := Normalize(RawRecord{
			"dealNumber":    []interface{}{"not", "a", "string"},
			"frontEndGross": map[string]interface{}{"nested": true},
			"isSplitDeal":   "maybe",
			"dealDate":      true,
		})

		assert.True(t, d.IsActive)
		assert.Empty(t, d.DealNumber)
		assert.Zero(t, d.FrontEndGross)
		assert.False(t, d.IsSplitDeal)
		assert.True(t, d.DealDate.IsZero())
	})
}

func TestNormalize_FieldAliasPriority(t *testing.T) {
	t.Run("Current Name Wins Over Legacy", func(t *testing.T) {
		d := Normalize(RawRecord{
			"frontEndGross": 2500.0,
			"frontGross":    100.0,
		})
		assert.Equal(t, 2500.0, d.FrontEndGross)
	})

	t.Run("Legacy Alias Used When Current Absent", func(t *testing.T) {
		d := Normalize(RawRecord{"frontGross": 1800.0})
		assert.Equal(t, 1800.0, d.FrontEndGross)
	})

	t.Run("Snake Case Fallback", func(t *testing.T) {
		d := Normalize(RawRecord{"back_end_gross": "950"})
		assert.Equal(t, 950.0, d.BackEndGross)
	})
}

func TestNormalize_NumericCoercion(t *testing.T) {
	t.Run("Numeric String", func(t *testing.T) {
		d := Normalize(RawRecord{"backEndGross": "1200.50"})
		assert.Equal(t, 1200.50, d.BackEndGross)
	})

	t.Run("Integer", func(t *testing.T) {
		d := Normalize(RawRecord{"backEndGross": 900})
		assert.Equal(t, 900.0, d.BackEndGross)
	})

	t.Run("Comma Formatted String Defaults To Zero", func(t *testing.T) {
		d := Normalize(RawRecord{"backEndGross": "1,200"})

		assert.Zero(t, d.BackEndGross, "non-parseable numeric string must not produce NaN")
		assert.False(t, d.BackEndGross != d.BackEndGross, "value must never be NaN")
	})
}

func TestNormalize_VehicleType(t *testing.T) {
	cases := []struct {
		name     string
		record   RawRecord
		expected VehicleType
	}{
		{"Code N", RawRecord{"vehicleType": "N"}, VehicleTypeNew},
		{"Code U", RawRecord{"vehicleType": "U"}, VehicleTypeUsed},
		{"Code C", RawRecord{"vehicleType": "C"}, VehicleTypeCPO},
		{"Lowercase Code", RawRecord{"vehicleType": "n"}, VehicleTypeNew},
		{"Description New", RawRecord{"vehicleDescription": "2026 New Tacoma TRD"}, VehicleTypeNew},
		{"Description CPO", RawRecord{"vehicleDescription": "CPO Camry SE"}, VehicleTypeCPO},
		{"Description Fallback Used", RawRecord{"vehicleDescription": "2019 Corolla LE"}, VehicleTypeUsed},
		{"No Information Defaults Used", RawRecord{}, VehicleTypeUsed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.record).VehicleType)
		})
	}
}

func TestNormalize_Dates(t *testing.T) {
	t.Run("ISO Date", func(t *testing.T) {
		d := Normalize(RawRecord{"dealDate": "2026-08-15"})
		assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), d.DealDate)
	})

	t.Run("US Layout", func(t *testing.T) {
		d := Normalize(RawRecord{"soldDate": "08/15/2026"})
		assert.Equal(t, 2026, d.DealDate.Year())
		assert.Equal(t, time.August, d.DealDate.Month())
	})

	t.Run("Epoch Milliseconds", func(t *testing.T) {
		d := Normalize(RawRecord{"dealDate": float64(time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC).UnixMilli())})
		assert.Equal(t, 15, d.DealDate.Day())
	})

	t.Run("Garbage Date", func(t *testing.T) {
		d := Normalize(RawRecord{"dealDate": "next tuesday"})
		assert.True(t, d.DealDate.IsZero())
	})
}

func TestNormalize_Identity(t *testing.T) {
	d := Normalize(RawRecord{
		"dealId":        7731.0,
		"dealNo":        "D-4402",
		"stockNumber":   "STK881",
		"vin":           "1HGCM82633A004352",
		"salespersonId": "sp-101",
		"managerId":     "mgr-7",
	})

	assert.Equal(t, "7731", d.ID)
	assert.Equal(t, "D-4402", d.DealNumber)
	assert.Equal(t, "STK881", d.StockNumber)
	assert.Equal(t, "3A004352", d.VINSuffix, "VIN suffix is the last 8 characters")
	assert.Equal(t, "sp-101", d.PrimaryParticipantID)
	assert.Equal(t, "mgr-7", d.SupervisorID)
}

func TestNormalize_ShortVIN(t *testing.T) {
	d := Normalize(RawRecord{"vin": "ABC123"})
	assert.Equal(t, "ABC123", d.VINSuffix)
}

func TestNormalize_TotalGrossDerivation(t *testing.T) {
	t.Run("Stored Total Preserved", func(t *testing.T) {
		d := Normalize(RawRecord{"frontEndGross": 1000.0, "backEndGross": 500.0, "totalGross": 1600.0})
		assert.Equal(t, 1600.0, d.TotalGross)
	})

	t.Run("Missing Total Derived From Parts", func(t *testing.T) {
		d := Normalize(RawRecord{"frontEndGross": 1000.0, "backEndGross": 500.0})
		assert.Equal(t, 1500.0, d.TotalGross)
	})
}

func TestNormalize_Status(t *testing.T) {
	cases := map[string]DealStatus{
		"Funded":  StatusFunded,
		"funded":  StatusFunded,
		"PENDING": StatusPending,
		"unwound": StatusUnwound,
		"Dead":    StatusDeadDeal,
		"DeadDeal": StatusDeadDeal,
	}

	for raw, expected := range cases {
		d := Normalize(RawRecord{"status": raw})
		assert.Equal(t, expected, d.Status, "status %q", raw)
	}
}

func TestNormalize_RetainsRawRecord(t *testing.T) {
	raw := RawRecord{"dealNumber": "D-1", "legacyOnlyField": "kept"}
	d := Normalize(raw)

	require.NotNil(t, d.Raw)
	assert.Equal(t, "kept", d.Raw["legacyOnlyField"])
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	deals := NormalizeAll([]RawRecord{
		{"dealNumber": "D-1"},
		{"dealNumber": "D-2"},
		{"dealNumber": "D-3"},
	})

	require.Len(t, deals, 3)
	assert.Equal(t, "D-1", deals[0].DealNumber)
	assert.Equal(t, "D-3", deals[2].DealNumber)
}
