package topology

// Layout constants, in the renderer's coordinate units. Sections stack
// top to bottom; columns run left to right inside a section.
const (
	sectionWidth  = 850.0
	sectionHeight = 320.0
	sectionGap    = 40.0

	receiverColumnX  = 100.0
	processorColumnX = 350.0
	exporterColumnX  = 600.0

	maxNodeSpacing = 80.0
	columnMargin   = 80.0
)

// sectionTop returns the absolute Y of the index-th section.
func sectionTop(index int) float64 {
	return float64(index) * (sectionHeight + sectionGap)
}

// columnYs centers count nodes around the section's vertical midpoint. The
// spacing shrinks for dense columns so nodes compress instead of spilling
// out of the section.
func columnYs(top float64, count int) []float64 {
	mid := top + sectionHeight/2
	if count <= 1 {
		ys := make([]float64, count)
		for i := range ys {
			ys[i] = mid
		}

		return ys
	}

	spacing := (sectionHeight - columnMargin) / float64(count-1)
	if spacing > maxNodeSpacing {
		spacing = maxNodeSpacing
	}

	first := mid - spacing*float64(count-1)/2

	ys := make([]float64, count)
	for i := range ys {
		ys[i] = first + float64(i)*spacing
	}

	return ys
}
