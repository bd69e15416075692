package textproc

import "testing"

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Margherita Pizza", "margherita pizza"},
		{"  MARGHERITA   pizza!! ", "margherita pizza"},
		{"Chef's Special", "chef s special"},
		{"Fish & Chips", "fish chips"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bullet", "• Margherita Pizza", "Margherita Pizza"},
		{"numbering", "3. Garlic Knots", "Garlic Knots"},
		{"dot leader and price", "Margherita Pizza ....... $14.00", "Margherita Pizza"},
		{"trailing dash", "Tiramisu -", "Tiramisu"},
		{"keeps leading quantity", "7 Layer Dip", "7 Layer Dip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanName(tt.in); got != tt.want {
				t.Errorf("CleanName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitNameDescription(t *testing.T) {
	name, desc := SplitNameDescription("Margherita Pizza - tomato, mozzarella, basil")
	if name != "Margherita Pizza" || desc != "tomato, mozzarella, basil" {
		t.Errorf("got (%q, %q)", name, desc)
	}

	name, desc = SplitNameDescription("Pad Thai")
	if name != "Pad Thai" || desc != "" {
		t.Errorf("got (%q, %q), want whole clause as name", name, desc)
	}

	name, desc = SplitNameDescription("Soup of the day: ask your server")
	if name != "Soup of the day" || desc != "ask your server" {
		t.Errorf("got (%q, %q)", name, desc)
	}
}

func TestIsBoilerplate(t *testing.T) {
	boilerplate := []string{
		"123 photos",
		"See all",
		"Menu",
		"Follow us on Instagram",
		"Contact us",
		"Monday - Friday",
		"Copyright 2024",
		"Please verify you are not a robot",
		"11:00 am - 10:00 pm",
		"Hours",
		"Phone: (512) 555-0100",
		"Our Locations",
		"Find us on Google",
		"Get directions",
		"Are you a robot?",
		"",
	}
	for _, s := range boilerplate {
		if !IsBoilerplate(s) {
			t.Errorf("IsBoilerplate(%q) = false, want true", s)
		}
	}

	dishes := []string{
		"Margherita Pizza", "Kids Menu Burger", "Sunday Roast Chicken", "Five Star Nachos",
		"Happy Hours Wings", "Robot Roll", "Location Special Burger", "Google Eyes Cookie",
		"The Address Sandwich", "Verify Spritz",
	}
	for _, s := range dishes {
		if IsBoilerplate(s) {
			t.Errorf("IsBoilerplate(%q) = true, want false", s)
		}
	}
}

func TestIsTitleCase(t *testing.T) {
	if !IsTitleCase("Chicken Tikka Masala") {
		t.Error("expected title case")
	}
	if !IsTitleCase("Fish and Chips") {
		t.Error("connectives should be ignored")
	}
	if IsTitleCase("service was slow") {
		t.Error("lower case sentence is not title case")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("crème brûlée", 5); got != "crème" {
		t.Errorf("Truncate = %q, want rune-safe cut", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
}
