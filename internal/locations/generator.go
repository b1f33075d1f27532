package locations

// Grid returns every slot of the warehouse in registry order: aisle, side,
// rack letter, level. The result is deterministic.
func Grid() []Location {
	slots := make([]Location, 0, TotalSlots)
	for aisle := 1; aisle <= Aisles; aisle++ {
		for _, side := range []Side{SideLeft, SideRight} {
			for idx, letter := range side.Letters() {
				for level := 1; level <= Levels; level++ {
					slots = append(slots, Location{
						Code:   FormatCode(aisle, letter, level),
						Aisle:  aisle,
						Side:   side,
						Letter: letter,
						Level:  level,
						MapX:   mapX(aisle, side),
						MapY:   idx*50 + level*10,
					})
				}
			}
		}
	}
	return slots
}

func mapX(aisle int, side Side) int {
	x := (aisle - 1) * 100
	if side == SideRight {
		x += 300
	}
	return x
}
