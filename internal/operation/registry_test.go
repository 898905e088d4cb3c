package operation

import (
	"errors"
	"testing"
)

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register("Get host date & time", 11, "date", "time")
	r.Register("Get host uptime", 22, "uptime")
	return r
}

func TestRegistry_ByIndex(t *testing.T) {
	r := testRegistry()

	if r.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", r.Size())
	}

	op, err := r.ByIndex(2)
	if err != nil {
		t.Fatalf("ByIndex(2): %v", err)
	}
	if op.Code != 22 {
		t.Errorf("ByIndex(2).Code = %d, want 22", op.Code)
	}

	for _, i := range []int{-1, 0, 3, 100} {
		if _, err := r.ByIndex(i); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ByIndex(%d) error = %v, want ErrOutOfRange", i, err)
		}
	}
}

func TestRegistry_MatchNickname(t *testing.T) {
	r := testRegistry()

	tests := []struct {
		text string
		want []byte
	}{
		{"time", []byte{11}},
		{"TIME", []byte{11}},
		{"Date", []byte{11}},
		{"uptime", []byte{22}},
		{"up", nil},
		{"", nil},
		{" time", nil},
	}
	for _, tc := range tests {
		got := r.MatchNickname(tc.text)
		if len(got) != len(tc.want) {
			t.Errorf("MatchNickname(%q) returned %d ops, want %d", tc.text, len(got), len(tc.want))
			continue
		}
		for i := range got {
			if got[i].Code != tc.want[i] {
				t.Errorf("MatchNickname(%q)[%d].Code = %d, want %d", tc.text, i, got[i].Code, tc.want[i])
			}
		}
	}
}

func TestRegistry_MatchNicknameSharedNickname(t *testing.T) {
	r := testRegistry()
	r.Register("Get host clock", 77, "clock", "Time")

	got := r.MatchNickname("time")
	if len(got) != 2 {
		t.Fatalf("MatchNickname(time) returned %d ops, want 2", len(got))
	}
	if got[0].Code != 11 || got[1].Code != 77 {
		t.Errorf("codes = [%d %d], want [11 77] in registration order", got[0].Code, got[1].Code)
	}
}

func TestRegistry_DescribeAll(t *testing.T) {
	r := testRegistry()

	var idx []int
	var desc []string
	for i, d := range r.DescribeAll() {
		idx = append(idx, i)
		desc = append(desc, d)
	}
	if len(idx) != 2 || idx[0] != 1 || idx[1] != 2 {
		t.Errorf("indices = %v, want [1 2]", idx)
	}
	if desc[0] != "Get host date & time" || desc[1] != "Get host uptime" {
		t.Errorf("descriptions = %v", desc)
	}

	// Stops early when the consumer breaks.
	n := 0
	for range r.DescribeAll() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterated %d times after break, want 1", n)
	}
}

func TestRegistry_RegisterCopiesNicknames(t *testing.T) {
	nicks := []string{"uptime"}
	r := NewRegistry()
	r.Register("Get host uptime", 22, nicks...)
	nicks[0] = "changed"

	if len(r.MatchNickname("uptime")) != 1 {
		t.Error("registered nicknames changed after caller mutated its slice")
	}
}

func TestRegistry_Nicknames(t *testing.T) {
	got := testRegistry().Nicknames()
	want := []string{"date", "time", "uptime"}
	if len(got) != len(want) {
		t.Fatalf("Nicknames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Nicknames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"2", 2, true},
		{"0", 0, true},
		{"2.", 2, true},
		{"(3)", 3, true},
		{"#4!", 4, true},
		{"-3", -3, true},
		{"+5", 5, true},
		{"1,000", 1000, true},
		{"", 0, false},
		{"!!!", 0, false},
		{"-", 0, false},
		{"99th", 0, false},
		{"uptime", 0, false},
		{"1 2", 0, false},
		{"99999999999", 0, false},
		{"2147483647", 2147483647, true},
	}
	for _, tc := range tests {
		got, ok := ParseIndex(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ParseIndex(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
