package rubric

// defaultItems is the built-in 21-item functional assessment catalog.
// Items are interleaved across categories the way the instrument is
// presented to the educator.
var defaultItems = []Item{
	{ID: 1, Category: CategoryEscape, Prompt: "The behavior is more likely when {{student}} is asked to complete a difficult or lengthy task."},
	{ID: 2, Category: CategoryAttention, Prompt: "The behavior occurs when adult attention is directed at someone other than {{student}}."},
	{ID: 3, Category: CategoryTangible, Prompt: "The behavior occurs when {{student}} is told they cannot have a desired item or activity."},
	{ID: 4, Category: CategorySensory, Prompt: "The behavior occurs even when {{student}} is alone or unoccupied."},
	{ID: 5, Category: CategoryEscape, Prompt: "The behavior stops once the task or demand is removed."},
	{ID: 6, Category: CategoryAttention, Prompt: "The behavior is typically followed by others talking to, scolding, or redirecting {{student}}."},
	{ID: 7, Category: CategoryTangible, Prompt: "The behavior stops once {{student}} gets the item or activity they wanted."},
	{ID: 8, Category: CategorySensory, Prompt: "The behavior appears rhythmic or repetitive, as though it is satisfying on its own."},
	{ID: 9, Category: CategoryEscape, Prompt: "The behavior occurs during transitions into structured or academic activities."},
	{ID: 10, Category: CategoryAttention, Prompt: "The behavior increases when {{student}} is near peers or adults but receiving little interaction."},
	{ID: 11, Category: CategoryTangible, Prompt: "The behavior occurs when a preferred activity is ended or interrupted."},
	{ID: 12, Category: CategorySensory, Prompt: "The behavior continues at the same intensity even when no one reacts to it."},
	{ID: 13, Category: CategoryEscape, Prompt: "{{student}} is often sent out of the activity or given a break after the behavior."},
	{ID: 14, Category: CategoryAttention, Prompt: "{{student}} looks at or approaches others while engaging in the behavior."},
	{ID: 15, Category: CategoryTangible, Prompt: "The behavior occurs in settings where preferred items are visible but out of reach."},
	{ID: 16, Category: CategorySensory, Prompt: "The behavior is more frequent when the setting is very noisy, crowded, or very quiet."},
	{ID: 17, Category: CategoryEscape, Prompt: "The behavior is more likely when the work is harder than what {{student}} can do independently."},
	{ID: 18, Category: CategoryAttention, Prompt: "The behavior occurs shortly after attention shifts away from {{student}}."},
	{ID: 19, Category: CategoryTangible, Prompt: "{{student}} protests or escalates when asked to share or give up materials."},
	{ID: 20, Category: CategorySensory, Prompt: "{{student}} seems unaware of their surroundings while engaging in the behavior."},
	{ID: 21, Category: CategoryEscape, Prompt: "The behavior rarely occurs during free time or preferred activities."},
}

// Default returns the built-in assessment rubric.
// The catalog is validated at startup; a malformed seed is a programming
// error, so Default panics rather than returning an error.
func Default() *Rubric {
	r, err := New(defaultItems)
	if err != nil {
		panic("rubric: invalid default catalog: " + err.Error())
	}
	return r
}
