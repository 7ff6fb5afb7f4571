package dom

import (
	"errors"
	"testing"
)

const sampleHTML = `
<html><body>
  <div class="grid-item">
    <a href="/plugins/0/inventory?propertyId=111"><h5 class="mb-0">Westside Warehouse</h5></a>
    <img class="image-cover" src="https://img.example.com/111.jpg" alt="warehouse front">
    <div class="secondary-information">Atlanta, GA</div>
  </div>
  <div class="grid-item">
    <h5 class="mb-0">Eastside Flex</h5>
  </div>
</body></html>`

func TestCompile_Invalid(t *testing.T) {
	if _, err := Compile("div[["); err == nil {
		t.Error("Compile accepted a malformed selector")
	}
}

func TestMustCompile_PanicsOnBadSelector(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile did not panic on a malformed selector")
		}
	}()
	MustCompile(":::nope")
}

func TestSnapshot_Find(t *testing.T) {
	snap, err := ParseSnapshot(sampleHTML)
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}

	items, err := snap.Find(MustCompile(".grid-item"))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	// Nested lookup scoped to the first item only.
	titles, err := items[0].Find(MustCompile("h5.mb-0"))
	if err != nil {
		t.Fatalf("nested Find: %v", err)
	}
	if len(titles) != 1 {
		t.Fatalf("len(titles) = %d, want 1", len(titles))
	}
	text, _ := titles[0].Text()
	if text != "Westside Warehouse" {
		t.Errorf("Text() = %q, want Westside Warehouse", text)
	}

	// A miss is an empty slice, never an error.
	missing, err := items[1].Find(MustCompile("img"))
	if err != nil {
		t.Fatalf("Find on miss: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("len(missing) = %d, want 0", len(missing))
	}
}

func TestSnapshotNode_Attr(t *testing.T) {
	snap, _ := ParseSnapshot(sampleHTML)
	imgs, _ := snap.Find(MustCompile("img.image-cover"))
	if len(imgs) != 1 {
		t.Fatalf("len(imgs) = %d, want 1", len(imgs))
	}

	src, ok, err := imgs[0].Attr("src")
	if err != nil || !ok {
		t.Fatalf("Attr(src) = ok=%v err=%v", ok, err)
	}
	if src != "https://img.example.com/111.jpg" {
		t.Errorf("src = %q", src)
	}

	if _, ok, _ := imgs[0].Attr("data-missing"); ok {
		t.Error("Attr reported a missing attribute as present")
	}
}

func TestSnapshotNode_TagName(t *testing.T) {
	snap, _ := ParseSnapshot(sampleHTML)
	anchors, _ := snap.Find(MustCompile("a[href*='propertyId']"))
	if len(anchors) != 1 {
		t.Fatalf("len(anchors) = %d, want 1", len(anchors))
	}
	tag, err := anchors[0].TagName()
	if err != nil {
		t.Fatalf("TagName: %v", err)
	}
	if tag != "a" {
		t.Errorf("TagName = %q, want a", tag)
	}
}

func TestSnapshotNode_Inert(t *testing.T) {
	snap, _ := ParseSnapshot(sampleHTML)
	items, _ := snap.Find(MustCompile(".grid-item"))

	if err := items[0].ScrollIntoView(); err != nil {
		t.Errorf("ScrollIntoView on snapshot = %v, want nil", err)
	}
	if err := items[0].Click(); !errors.Is(err, ErrInert) {
		t.Errorf("Click on snapshot = %v, want ErrInert", err)
	}
}
