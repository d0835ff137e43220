package rubric

// Category is a behavioral function category: the presumed purpose a
// behavior serves for the student exhibiting it.
type Category string

const (
	CategoryEscape    Category = "escape"
	CategoryAttention Category = "attention"
	CategoryTangible  Category = "tangible"
	CategorySensory   Category = "sensory"
)

// AllCategories returns the categories in canonical display order.
func AllCategories() []Category {
	return []Category{
		CategoryEscape,
		CategoryAttention,
		CategoryTangible,
		CategorySensory,
	}
}

// CategoryDisplayName returns a human-readable name for a category.
func CategoryDisplayName(c Category) string {
	switch c {
	case CategoryEscape:
		return "Escape / Avoidance"
	case CategoryAttention:
		return "Attention"
	case CategoryTangible:
		return "Access to Tangibles"
	case CategorySensory:
		return "Sensory / Automatic"
	default:
		return string(c)
	}
}

// knownCategory reports whether c is one of the fixed function categories.
func knownCategory(c Category) bool {
	switch c {
	case CategoryEscape, CategoryAttention, CategoryTangible, CategorySensory:
		return true
	}
	return false
}

// categoryRank returns the canonical ordering index for a category.
// Used for deterministic tie-breaking in sorts.
func categoryRank(c Category) int {
	for i, cat := range AllCategories() {
		if cat == c {
			return i
		}
	}
	return len(AllCategories())
}

// CategoryRank exposes the canonical ordering index of a category.
func CategoryRank(c Category) int {
	return categoryRank(c)
}
