package quest

import "testing"

func TestNextPermittedTransitions(t *testing.T) {
	cases := []struct {
		name  string
		state State
		event Event
		want  State
	}{
		{"init live location", StateInit, EventLiveLocation, StateLocationShared},
		{"location repeat share", StateLocationShared, EventLiveLocation, StateLocationShared},
		{"location quest text", StateLocationShared, EventQuestText, StateQuestShared},
		{"quest live location", StateQuestShared, EventLiveLocation, StateQuestShared},
		{"quest edit", StateQuestShared, EventEdit, StateLocationShared},
	}

	for _, tc := range cases {
		next, ok := Next(tc.state, tc.event)
		if !ok {
			t.Fatalf("%s: transition unexpectedly rejected", tc.name)
		}
		if next != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, next, tc.want)
		}
	}
}

func TestNextRejectsIllegalTransitions(t *testing.T) {
	cases := []struct {
		name  string
		state State
		event Event
	}{
		{"text before location", StateInit, EventQuestText},
		{"edit before location", StateInit, EventEdit},
		{"edit before quest", StateLocationShared, EventEdit},
		{"text after quest", StateQuestShared, EventQuestText},
	}

	for _, tc := range cases {
		if _, ok := Next(tc.state, tc.event); ok {
			t.Fatalf("%s: transition unexpectedly permitted", tc.name)
		}
	}
}

func TestLocationUpdateLive(t *testing.T) {
	if (LocationUpdate{LivePeriod: 0}).Live() {
		t.Fatal("static pin reported as live")
	}
	if !(LocationUpdate{LivePeriod: 900}).Live() {
		t.Fatal("live share reported as static")
	}
}
