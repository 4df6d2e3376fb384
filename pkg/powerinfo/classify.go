package powerinfo

// Classify compares two consecutive snapshots and returns the transitions
// between them, AC edge first, then battery level edge. Identical snapshots
// produce no events, so feeding the same snapshot twice is safe.
//
// The battery comparison is edge-triggered against the threshold: a battery
// that stays below the threshold does not repeat BatteryLow, and crossing
// back above it emits exactly one BatteryNormal. Battery events are only
// considered while a battery is present; AC edges are reported regardless.
func Classify(prev, cur Snapshot, threshold int) []Event {
	var events []Event

	if prev.IsACConnected != cur.IsACConnected {
		if cur.IsACConnected {
			events = append(events, Event{Kind: EventACConnected})
		} else {
			events = append(events, Event{Kind: EventACDisconnected})
		}
	}

	if cur.IsBatteryPresent {
		wasLow := prev.BatteryPercentage <= threshold
		isLow := cur.BatteryPercentage <= threshold

		if !wasLow && isLow {
			events = append(events, Event{Kind: EventBatteryLow, Percentage: cur.BatteryPercentage})
		} else if wasLow && !isLow {
			events = append(events, Event{Kind: EventBatteryNormal, Percentage: cur.BatteryPercentage})
		}
	}

	return events
}

// InitialEvent is the absolute check applied to the very first sample, where
// there is no previous snapshot to diff against. A low battery outranks a
// disconnected adapter. Hosts without a battery never warrant an initial
// event. ok is false when the sample is unremarkable.
func InitialEvent(cur Snapshot, threshold int) (Event, bool) {
	if !cur.IsBatteryPresent {
		return Event{}, false
	}
	if cur.BatteryPercentage <= threshold {
		return Event{Kind: EventBatteryLow, Percentage: cur.BatteryPercentage}, true
	}
	if !cur.IsACConnected {
		return Event{Kind: EventACDisconnected}, true
	}
	return Event{}, false
}
