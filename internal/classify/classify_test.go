package classify

import (
	"strings"
	"testing"
)

func TestClassifyPriority(t *testing.T) {
	cases := []struct {
		name string
		want Role
	}{
		{"behaviorLinearTrack.avi", RoleBehaviorLinear},
		{"behaviorHome.avi", RoleBehaviorHome},
		{"miniscope_01.avi", RoleImaging},
		{"2024-01-05T10_30_00_miniscope.avi", RoleImaging},
		{"2024-01-05T10_30_00_behaviorHome.avi", RoleBehaviorHome},
		{"behavior_Linear_cam.avi", RoleUnclassified},
		{"miniscope_behaviorLinear.avi", RoleImaging},
		{"Miniscope.avi", RoleUnclassified},
		{"notes.txt", RoleUnclassified},
		{"/data/miniscope/behaviorHome.avi", RoleBehaviorHome},
	}
	for _, tc := range cases {
		if got := Classify(tc.name); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestSplitPartitionsInInputOrder(t *testing.T) {
	files := []string{
		"/s/miniscope_02.avi",
		"/s/ts.csv",
		"/s/behaviorHome.avi",
		"/s/miniscope_01.avi",
		"/s/readme.md",
	}
	p := Split(files, func(path string) bool { return strings.HasSuffix(path, ".csv") })

	if got := p.Names(RoleImaging); len(got) != 2 || got[0] != "miniscope_02.avi" || got[1] != "miniscope_01.avi" {
		t.Fatalf("imaging order not preserved: %v", got)
	}
	if p.Count(RoleTimestampLog) != 1 || p.Count(RoleBehaviorHome) != 1 || p.Count(RoleUnclassified) != 1 {
		t.Fatalf("unexpected partition: %+v", p)
	}
	if p.Count(RoleBehaviorLinear) != 0 {
		t.Fatal("unexpected behavior_linear files")
	}
	total := 0
	for _, fs := range p {
		total += len(fs)
	}
	if total != len(files) {
		t.Fatalf("partition lost files: %d of %d", total, len(files))
	}
	streams := p.Streams()
	if len(streams) != 2 || streams[0] != RoleImaging || streams[1] != RoleBehaviorHome {
		t.Fatalf("unexpected streams: %v", streams)
	}
}

func TestRoleIsStream(t *testing.T) {
	for _, r := range StreamRoles {
		if !r.IsStream() {
			t.Fatalf("%s should be a stream", r)
		}
	}
	if RoleTimestampLog.IsStream() || RoleUnclassified.IsStream() {
		t.Fatal("non-stream roles reported as streams")
	}
}

func TestRoleTitle(t *testing.T) {
	if got := RoleBehaviorLinear.Title(); got != "Behavior Linear" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := RoleImaging.Title(); got != "Imaging" {
		t.Fatalf("unexpected title %q", got)
	}
}
