package quest

// LocationUpdate is one inbound position report. It is handled and discarded;
// nothing stores coordinates beyond the forward they trigger.
type LocationUpdate struct {
	Latitude    float64
	Longitude   float64
	LivePeriod  int // seconds the share keeps updating; 0 for a static pin
	Identity    int64
	DisplayName string
}

// Live reports whether the share is a continuously-updating one. Static pins
// are rejected by the tracker because the backend shows moving travellers,
// and a one-shot pin would go stale immediately.
func (l LocationUpdate) Live() bool {
	return l.LivePeriod > 0
}
