package deal

// ClassifyStatus derives metric participation flags from a deal status.
// Classification is a pure function of status with no other branch:
//
//	Funded   → counts as sold, counts for PVR
//	Pending  → counts for tracking, counts for PVR
//	Unwound  → excluded from metrics
//	DeadDeal → excluded from metrics
//
// Any status outside the known set is excluded rather than guessed at.
func ClassifyStatus(s DealStatus) MetricFlags {
	switch s {
	case StatusFunded:
		return MetricFlags{CountsForSold: true, CountsForPVR: true}
	case StatusPending:
		return MetricFlags{CountsForTracking: true, CountsForPVR: true}
	case StatusUnwound, StatusDeadDeal:
		return MetricFlags{ExcludeFromMetrics: true}
	default:
		return MetricFlags{ExcludeFromMetrics: true}
	}
}
