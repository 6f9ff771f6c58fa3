package core

import "testing"

func TestCallSession_CloneIsDeep(t *testing.T) {
	s := NewCallSession("call-1")
	s.PendingInvites["AgentTransfer.1.1.abcd0123"] = "8:acs:agent"
	s.AddedParticipants = []string{"8:acs:agent"}
	s.SetVar("address", "1 Main St")

	clone := s.Clone()
	if clone == s {
		t.Fatal("Clone should be a different pointer")
	}

	clone.PendingInvites["x"] = "y"
	clone.AddedParticipants[0] = "changed"
	clone.SetVar("address", "changed")

	if _, ok := s.PendingInvites["x"]; ok {
		t.Error("original should not see clone's invite")
	}
	if s.AddedParticipants[0] != "8:acs:agent" {
		t.Error("participants slice should be copied")
	}
	if s.Var("address") != "1 Main St" {
		t.Errorf("vars should be copied, got %q", s.Var("address"))
	}
}

func TestCallSession_VarOnNilMap(t *testing.T) {
	s := &CallSession{}
	if s.Var("missing") != "" {
		t.Error("expected empty value")
	}
	s.SetVar("k", "v")
	if s.Var("k") != "v" {
		t.Error("SetVar should initialise the map")
	}
}

func TestParseRecordingState(t *testing.T) {
	cases := map[string]RecordingState{
		"active":   RecordingActive,
		"Inactive": RecordingInactive,
		"paused":   RecordingPaused,
	}
	for in, want := range cases {
		got, ok := ParseRecordingState(in)
		if !ok || got != want {
			t.Errorf("ParseRecordingState(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseRecordingState("bogus"); ok {
		t.Error("unknown state should not parse")
	}
}
