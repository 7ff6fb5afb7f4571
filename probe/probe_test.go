package probe

import "testing"

func TestScanForWidget(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "widget iframe present",
			html: `<html><body><iframe src="https://buildout.com/plugins/0/inventory?pluginId=123"></iframe></body></html>`,
			want: true,
		},
		{
			name: "host without marker",
			html: `<html><body><iframe src="https://buildout.com/plugins/0/map"></iframe></body></html>`,
			want: false,
		},
		{
			name: "marker without host",
			html: `<html><body><iframe src="https://other.example.com/inventory"></iframe></body></html>`,
			want: false,
		},
		{
			name: "both terms split across iframes",
			html: `<iframe src="https://buildout.com/x"></iframe><iframe src="https://cdn.example.com/inventory"></iframe>`,
			want: false,
		},
		{
			name: "case insensitive",
			html: `<iframe SRC="https://BUILDOUT.com/Inventory?x=1">`,
			want: true,
		},
		{
			name: "no iframes at all",
			html: `<html><body><div>buildout.com inventory</div></body></html>`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanForWidget([]byte(tt.html), "buildout.com", "inventory")
			if got != tt.want {
				t.Errorf("scanForWidget() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeedsBrowser(t *testing.T) {
	longText := ""
	for i := 0; i < 60; i++ {
		longText += "industrial warehouse listings with plenty of detail here. "
	}

	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "spa shell",
			html: `<html><body><div id="root"></div></body></html>`,
			want: true,
		},
		{
			name: "noscript warning",
			html: `<html><body><noscript>Please enable JavaScript to view listings</noscript>` + longText + `</body></html>`,
			want: true,
		},
		{
			name: "static content page",
			html: `<html><body><p>` + longText + `</p></body></html>`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsBrowser([]byte(tt.html)); got != tt.want {
				t.Errorf("needsBrowser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractTitle(t *testing.T) {
	html := `<html><head><title>  King Industrial Realty  </title></head><body></body></html>`
	if got := extractTitle([]byte(html)); got != "King Industrial Realty" {
		t.Errorf("extractTitle() = %q", got)
	}
	if got := extractTitle([]byte(`<html><body>no title</body></html>`)); got != "" {
		t.Errorf("extractTitle() on titleless doc = %q, want empty", got)
	}
}
