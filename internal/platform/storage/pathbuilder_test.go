package storage

import "testing"

func TestExportObjectPath(t *testing.T) {
	cases := []struct {
		prefix string
		name   string
		want   string
	}{
		{prefix: "exports/orders", name: "2025/03/09/01hx-orders.xlsx", want: "exports/orders/2025/03/09/01hx-orders.xlsx"},
		{prefix: "/exports/", name: "/orders.xlsx", want: "exports/orders.xlsx"},
		{prefix: "", name: "orders.xlsx", want: "orders.xlsx"},
	}
	for _, tc := range cases {
		got, err := ExportObjectPath(tc.prefix, tc.name)
		if err != nil {
			t.Fatalf("ExportObjectPath(%q, %q): %v", tc.prefix, tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("expected %s, got %s", tc.want, got)
		}
	}
}

func TestExportObjectPathRejectsTraversal(t *testing.T) {
	for _, name := range []string{"", "2025/../secrets.xlsx", "2025//orders.xlsx", "2025/..", `2025\orders.xlsx`} {
		if _, err := ExportObjectPath("exports", name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
	if _, err := ExportObjectPath("exp/../orts", "orders.xlsx"); err == nil {
		t.Fatalf("expected error for traversal in prefix")
	}
}
