package pdf

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaBoxHeight(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected float64
		ok       bool
	}{
		{
			name:     "letter size",
			body:     "<< /Type /Page /MediaBox [0 0 612 792] >>",
			expected: 792,
			ok:       true,
		},
		{
			name:     "non-zero origin",
			body:     "<< /MediaBox [10 20 622 812] >>",
			expected: 792,
			ok:       true,
		},
		{
			name: "missing",
			body: "<< /Type /Page >>",
			ok:   false,
		},
		{
			name: "degenerate",
			body: "<< /MediaBox [0 792 612 0] >>",
			ok:   false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, ok := mediaBoxHeight([]byte(tc.body))
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.expected, h, 0.001)
			}
		})
	}
}

func TestPageHeightPts_FallsBackToParentAndDefault(t *testing.T) {
	objects := map[int][]byte{
		1: []byte("<< /Type /Pages /MediaBox [0 0 595 842] >>"),
		2: []byte("<< /Type /Page /Parent 1 0 R >>"),
	}

	// Page's own body has no MediaBox; falls back to scanning all objects.
	h := pageHeightPts(objects[2], objects)
	assert.InDelta(t, 842, h, 0.001)

	// No MediaBox anywhere; falls back to the US Letter default.
	h = pageHeightPts([]byte("<< /Type /Page >>"), map[int][]byte{2: []byte("<< /Type /Page >>")})
	assert.InDelta(t, defaultPageHeightPts, h, 0.001)
}

func TestUnitSquareBBox_FlipsAgainstPageHeight(t *testing.T) {
	// A figure placed near the top of a 792pt-tall page (cm puts its
	// origin at y=700, height 50) should land near pixel row 0, not at a
	// large negative Y as it would without the page-height translation.
	ctm := [6]float64{100, 0, 0, 50, 50, 700}
	bbox := unitSquareBBox(ctm, 1.0, 792)

	assert.GreaterOrEqual(t, bbox.Min.Y, 0)
	assert.Less(t, bbox.Min.Y, bbox.Max.Y)
	assert.Equal(t, image.Rect(50, 42, 150, 92), bbox)
}

func TestUnitSquareBBox_BottomOfPageLandsNearMaxY(t *testing.T) {
	ctm := [6]float64{100, 0, 0, 50, 50, 0}
	bbox := unitSquareBBox(ctm, 1.0, 792)

	assert.Equal(t, 792, bbox.Max.Y)
	assert.Equal(t, 742, bbox.Min.Y)
}

func TestExtractSourceImage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantMime string
		wantOK   bool
	}{
		{
			name:     "jpeg passthrough",
			body:     "<< /Subtype /Image /Filter /DCTDecode /Length 3 >>\nstream\nabc\nendstream",
			wantMime: "image/jpeg",
			wantOK:   true,
		},
		{
			name:     "jpeg2000 passthrough",
			body:     "<< /Subtype /Image /Filter /JPXDecode /Length 3 >>\nstream\nxyz\nendstream",
			wantMime: "image/jp2",
			wantOK:   true,
		},
		{
			name:   "flate raw bitmap not preserved",
			body:   "<< /Subtype /Image /Filter /FlateDecode /Length 3 >>\nstream\nzzz\nendstream",
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, mime, ok := extractSourceImage([]byte(tc.body))
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantMime, mime)
				assert.NotEmpty(t, data)
			}
		})
	}
}
