package curp

import "testing"

func TestIsValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"PELJ000101HDFRPNA1", true},
		{"GALA950315MDFLRN09", true},
		{" pelj000101hdfrpna1 ", true},
		{"PELJ000101HDFRPNA", false},   // too short
		{"PELJ000101HDFRPNA12", false}, // too long
		{"PBLJ000101HDFRPNA1", false},  // second letter must be a vowel or X
		{"PELJ001301HDFRPNA1", false},  // month 13
		{"PELJ000132HDFRPNA1", false},  // day 32
		{"PELJ000101XDFRPNA1", false},  // sex must be H or M
		{"PELJ000101HD1RPNA1", false},  // digit in state
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.in); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// Replacing a character with one outside the alphabet allowed at that
// position must always invalidate the code.
func TestIsValid_PositionSensitive(t *testing.T) {
	base := "PELJ000101HDFRPNA1"
	if !IsValid(base) {
		t.Fatal("base CURP should be valid")
	}

	// A replacement that is illegal at each position.
	illegal := map[int]byte{
		0: '1', 1: 'B', 2: '2', 3: '3',
		4: 'A', 5: 'A', 6: '2', 7: 'A', 8: '4', 9: 'A',
		10: 'X',
		11: '5', 12: '6',
		13: '7', 14: '8', 15: '9',
		16: '-', 17: '*',
	}
	for pos, ch := range illegal {
		b := []byte(base)
		b[pos] = ch
		if IsValid(string(b)) {
			t.Errorf("position %d with %q should be invalid: %s", pos, ch, b)
		}
	}
}

func TestBirthDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PELJ000101HDFRPNA1", "2000-01-01"},
		{"GALA950315MDFLRN09", "1995-03-15"},
		{"ABCD690704HDFRPNA1", "1969-07-04"},
		{"ABCD300101HDFRPNA1", "2030-01-01"},
		{"ABCD310101HDFRPNA1", "1931-01-01"},
		{"ABCD010229HDFRPNA1", ""}, // 2001 is not a leap year
		{"ABCD000229HDFRPNA1", "2000-02-29"},
		{"ABCD001301HDFRPNA1", ""},
		{"ABCDXX0101", ""},
		{"ABCD0001", ""},
	}
	for _, tt := range tests {
		if got := BirthDate(tt.in); got != tt.want {
			t.Errorf("BirthDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PELJ000101HDFRPNA1", "M"},
		{"GALA950315MDFLRN09", "F"},
		{"PELJ000101XDFRPNA1", ""},
		{"PELJ000101", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Sex(tt.in); got != tt.want {
			t.Errorf("Sex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"noisy surroundings", "CURP PELJ000101HDFRPNA1 OTHER TEXT", "PELJ000101HDFRPNA1"},
		{"lowercase", "curp: gala950315mdflrn09", "GALA950315MDFLRN09"},
		{"punctuation inside token", "CURP:PELJ-000101-HDFRPNA1;", "PELJ000101HDFRPNA1"},
		{"embedded in longer run", "XXPELJ000101HDFRPNA1", "PELJ000101HDFRPNA1"},
		{"split by spaces", "PELJ 000101 HDF RPNA1", "PELJ000101HDFRPNA1"},
		{"none", "NOTHING TO SEE HERE 123456789012345678", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Find(tt.in); got != tt.want {
				t.Errorf("Find(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFindWith_ReportsStrategy(t *testing.T) {
	tests := []struct {
		in       string
		strategy string
	}{
		{"CURP PELJ000101HDFRPNA1", "token"},
		{"PELJ 000101 HDFRPNA1", "window"},
	}
	for _, tt := range tests {
		if _, got := FindWith(Strategies, tt.in); got != tt.strategy {
			t.Errorf("FindWith(%q) strategy = %q, want %q", tt.in, got, tt.strategy)
		}
	}

	custom := []Strategy{{Name: "never", Find: func(string) (string, bool) { return "", false }}}
	if v, s := FindWith(custom, "PELJ000101HDFRPNA1"); v != "" || s != "" {
		t.Errorf("custom strategies ignored: %q %q", v, s)
	}
}
