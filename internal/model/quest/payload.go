package quest

// Display-name keys accepted by EventData. Which one a deployment forwards is
// configuration, not contract.
const (
	DisplayFieldUsername  = "username"
	DisplayFieldFirstName = "first_name"
)

// ForwardPayload is the completed tuple handed to the realtime forwarder.
// Built fresh per forward, never stored.
type ForwardPayload struct {
	Latitude    float64
	Longitude   float64
	LivePeriod  int
	Identity    int64
	Quest       string
	DisplayName string
}

// EventData renders the payload as the send_location event body the realtime
// backend expects. live_period is null for a payload without one, and the
// display name is keyed under displayField (username or first_name).
func (p ForwardPayload) EventData(displayField string) map[string]any {
	var livePeriod any
	if p.LivePeriod > 0 {
		livePeriod = p.LivePeriod
	}
	if displayField != DisplayFieldFirstName {
		displayField = DisplayFieldUsername
	}
	return map[string]any{
		"latitude":    p.Latitude,
		"longitude":   p.Longitude,
		"live_period": livePeriod,
		"user_id":     p.Identity,
		"quest":       p.Quest,
		displayField:  p.DisplayName,
	}
}
