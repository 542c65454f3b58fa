package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/brutaldon/internal/models"
)

func testClients() []*models.Client {
	a := models.NewClient(1, "https://example.social", "client-abc", "secret-xyz")
	a.SetID("c1")
	b := models.NewClient(2, "https://other.social", "client-def", "s")
	b.SetID("c2")
	return []*models.Client{a, b}
}

func TestMask(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{"", "****"},
		{"abcd", "****"},
		{"abcdefgh", "abcd****"},
	}

	for _, tt := range tc {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRows(t *testing.T) {
	t.Run("Clients", func(t *testing.T) {
		rows := ClientRows(testClients(), false)

		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if len(rows[0]) != len(ClientHeaders) {
			t.Errorf("expected %d columns, got %d", len(ClientHeaders), len(rows[0]))
		}
		if rows[0][0] != "1" || rows[0][1] != "https://example.social" || rows[0][3] != "secr****" {
			t.Errorf("unexpected row %v", rows[0])
		}
		if rows[1][3] != "****" {
			t.Errorf("expected short secret fully masked, got %s", rows[1][3])
		}

		revealed := ClientRows(testClients(), true)
		if revealed[0][3] != "secret-xyz" {
			t.Errorf("expected revealed secret, got %s", revealed[0][3])
		}
	})

	t.Run("Accounts", func(t *testing.T) {
		accounts := []*models.Account{
			models.NewAccount(1, "alice@example.com", "token-123456", "c1"),
			models.NewAccount(2, "bob@example.com", "token-654321", "gone"),
		}
		rows := AccountRows(accounts, map[string]string{"c1": "https://example.social"}, false)

		if rows[0][1] != "alice@example.com" || rows[0][2] != "https://example.social" || rows[0][3] != "toke****" {
			t.Errorf("unexpected row %v", rows[0])
		}
		if rows[1][2] != "gone" {
			t.Errorf("expected unknown client ref to fall back to the ref, got %s", rows[1][2])
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ToCSV", func(t *testing.T) {
		data, err := ToCSV(ClientHeaders, ClientRows(testClients(), false))
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "#,Instance,Client ID,Client Secret,Created" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if !strings.HasPrefix(lines[1], "1,https://example.social,client-abc,secr****,") {
			t.Errorf("unexpected first record: %s", lines[1])
		}
	})

	t.Run("ToCSV Quotes Fields", func(t *testing.T) {
		data, err := ToCSV([]string{"a"}, [][]string{{"x,y"}})
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}
		if !strings.Contains(string(data), `"x,y"`) {
			t.Errorf("expected quoted field, got %s", data)
		}
	})

	t.Run("ToTable", func(t *testing.T) {
		out := ToTable(ClientHeaders, ClientRows(testClients(), false))

		for _, want := range []string{"Instance", "https://example.social", "https://other.social", "client-def"} {
			if !strings.Contains(out, want) {
				t.Errorf("table missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "secret-xyz") {
			t.Error("expected secret to be masked")
		}
	})
}

func TestPalette(t *testing.T) {
	for _, out := range []string{OK("done"), Err("failed"), Warn("careful"), Title("Clients"), Hint("try again")} {
		if out == "" {
			t.Error("expected styled output")
		}
	}
	if !strings.Contains(OK("done"), "done") {
		t.Error("expected text to survive styling")
	}
}
