package imgpdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCmToInches(t *testing.T) {
	tests := []struct {
		cm   float64
		want float64
	}{
		{2.54, 1.0},
		{0, 0},
		{21.0, 8.2677},
		{29.7, 11.6929},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, cmToInches(tt.cm), 0.001, "cmToInches(%v)", tt.cm)
	}
}

func TestDefaultPageConfig(t *testing.T) {
	d := DefaultPageConfig()
	assert.Equal(t, A4, d.Size)
	assert.Equal(t, Portrait, d.Orientation)
	assert.Equal(t, 1.0, d.Scale)
	assert.True(t, d.PrintBackground)
	assert.Equal(t, Margin{}, d.Margin)
}

func TestUniformMargin(t *testing.T) {
	assert.Equal(t, Margin{Top: 2.5, Right: 2.5, Bottom: 2.5, Left: 2.5}, UniformMargin(2.5))
}

func TestPageConfigResolved_Nil(t *testing.T) {
	var pc *PageConfig
	assert.Equal(t, DefaultPageConfig(), pc.resolved())
}

func TestPageConfigResolved_ZeroValues(t *testing.T) {
	r := (&PageConfig{}).resolved()
	assert.Equal(t, A4, r.Size)
	assert.Equal(t, 1.0, r.Scale)
	assert.Equal(t, Margin{}, r.Margin)
}

func TestPageConfigResolved_PreservesExplicit(t *testing.T) {
	pc := &PageConfig{
		Size:        Letter,
		Orientation: Landscape,
		Scale:       0.5,
		Margin:      Margin{Top: 2, Right: 3, Bottom: 2, Left: 3},
	}
	r := pc.resolved()
	assert.Equal(t, Letter, r.Size)
	assert.Equal(t, Landscape, r.Orientation)
	assert.Equal(t, 0.5, r.Scale)
	assert.Equal(t, 2.0, r.Margin.Top)
}

func TestPaperDimensions_Portrait(t *testing.T) {
	pc := &PageConfig{Size: A4, Orientation: Portrait}
	w, h := pc.paperDimensions()
	// A4 = 21.0 x 29.7 cm = 8.267 x 11.693 inches
	assert.InDelta(t, 8.267, w, 0.01)
	assert.InDelta(t, 11.693, h, 0.01)
}

func TestPaperDimensions_Landscape(t *testing.T) {
	pc := &PageConfig{Size: A4, Orientation: Landscape, Scale: 1.0, Margin: UniformMargin(1.0)}
	w, h := pc.paperDimensions()
	// Landscape swaps width and height.
	assert.InDelta(t, 11.693, w, 0.01)
	assert.InDelta(t, 8.267, h, 0.01)
}

func TestMarginInches(t *testing.T) {
	pc := &PageConfig{
		Size:   A4,
		Scale:  1.0,
		Margin: Margin{Top: 2.54, Right: 5.08, Bottom: 2.54, Left: 5.08},
	}
	top, right, bottom, left := pc.marginInches()
	assert.InDelta(t, 1.0, top, 0.001)
	assert.InDelta(t, 2.0, right, 0.001)
	assert.InDelta(t, 1.0, bottom, 0.001)
	assert.InDelta(t, 2.0, left, 0.001)
}

func TestPageConfigResolved_ClampsScale(t *testing.T) {
	assert.Equal(t, 2.0, (&PageConfig{Scale: 5}).resolved().Scale)
	assert.Equal(t, 0.1, (&PageConfig{Scale: 0.01}).resolved().Scale)
}

func TestPageSizes(t *testing.T) {
	assert.Equal(t, A4, PageSizes["a4"])
	assert.Equal(t, Letter, PageSizes["letter"])
	assert.Len(t, PageSizes, 6)
}
