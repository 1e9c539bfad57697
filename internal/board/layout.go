package board

import "github.com/google/uuid"

// UnassignedTitle names the column holding tasks without a known category.
const UnassignedTitle = "Unassigned"

// Card is a task as shown on the board.
type Card struct {
	Task
	// Pending is set while an optimistic change to the task is unconfirmed.
	Pending bool
}

// Column is one category's tasks. The unassigned column has a nil Category.
type Column struct {
	Category *Category
	Cards    []Card
}

func (c Column) Unassigned() bool { return c.Category == nil }

func (c Column) Title() string {
	if c.Category == nil {
		return UnassignedTitle
	}
	return c.Category.Title
}

// Board is a read-only partition of the task set by primary category.
type Board struct {
	Columns []Column
}

// Column returns the column for a category id; uuid.Nil selects the
// unassigned column.
func (b Board) Column(categoryID uuid.UUID) (Column, bool) {
	for _, col := range b.Columns {
		if categoryID == uuid.Nil && col.Unassigned() {
			return col, true
		}
		if col.Category != nil && col.Category.ID == categoryID {
			return col, true
		}
	}
	return Column{}, false
}

// Board derives the column layout: one column per category in store order,
// empty ones included, followed by the unassigned column. Every task lands in
// exactly one column.
func (s *Store) Board() Board {
	s.mu.RLock()
	defer s.mu.RUnlock()

	columns := make([]Column, len(s.categories)+1)
	index := make(map[uuid.UUID]int, len(s.categories))
	for i := range s.categories {
		category := s.categories[i]
		columns[i] = Column{Category: &category}
		index[category.ID] = i
	}
	unassigned := len(s.categories)

	for _, t := range s.tasks {
		col := unassigned
		if t.PrimaryCategoryID != nil {
			if i, ok := index[*t.PrimaryCategoryID]; ok {
				col = i
			}
		}
		columns[col].Cards = append(columns[col].Cards, Card{
			Task:    t.clone(),
			Pending: s.pending[TaskKey(t.ID)] > 0,
		})
	}
	return Board{Columns: columns}
}
