package rubric

import (
	"fmt"
	"strings"
)

// studentPlaceholder is the token in item prompts replaced by the
// student's name at render time.
const studentPlaceholder = "{{student}}"

// Item is a single assessment statement tagged with the function category
// it provides evidence for.
type Item struct {
	ID       int
	Prompt   string
	Category Category
}

// PromptFor renders the item prompt with the student's name substituted.
func (it Item) PromptFor(studentName string) string {
	return strings.ReplaceAll(it.Prompt, studentPlaceholder, studentName)
}

// Rubric is the fixed catalog of assessment items with precomputed indices.
// Immutable after construction; safe for concurrent reads.
type Rubric struct {
	items      []Item
	byID       map[int]*Item
	byCategory map[Category][]Item
}

// New constructs a Rubric from a slice of items, validating the catalog.
// Item count and the category→item mapping are data, not structural
// constants — synthetic rubrics of any size are accepted.
func New(items []Item) (*Rubric, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("rubric: no items")
	}

	r := &Rubric{
		items:      make([]Item, len(items)),
		byID:       make(map[int]*Item, len(items)),
		byCategory: make(map[Category][]Item),
	}
	copy(r.items, items)

	for i := range r.items {
		it := &r.items[i]
		if it.ID <= 0 {
			return nil, fmt.Errorf("rubric: item %d has non-positive ID", it.ID)
		}
		if _, dup := r.byID[it.ID]; dup {
			return nil, fmt.Errorf("rubric: duplicate item ID %d", it.ID)
		}
		if strings.TrimSpace(it.Prompt) == "" {
			return nil, fmt.Errorf("rubric: item %d has empty prompt", it.ID)
		}
		if !knownCategory(it.Category) {
			return nil, fmt.Errorf("rubric: item %d has unknown category %q", it.ID, it.Category)
		}
		r.byID[it.ID] = it
		r.byCategory[it.Category] = append(r.byCategory[it.Category], *it)
	}

	return r, nil
}

// Items returns all items in catalog order.
func (r *Rubric) Items() []Item {
	out := make([]Item, len(r.items))
	copy(out, r.items)
	return out
}

// Item looks up a single item by ID.
func (r *Rubric) Item(id int) (Item, bool) {
	it, ok := r.byID[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// ItemsFor returns the items tagged with the given category.
func (r *Rubric) ItemsFor(c Category) []Item {
	items := r.byCategory[c]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Len returns the number of items in the catalog.
func (r *Rubric) Len() int {
	return len(r.items)
}

// Categories returns the categories that have at least one item,
// in canonical order.
func (r *Rubric) Categories() []Category {
	var out []Category
	for _, c := range AllCategories() {
		if len(r.byCategory[c]) > 0 {
			out = append(out, c)
		}
	}
	return out
}
