package catalog

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
)

// MemoryRepository keeps the catalog in process. It backs the server when no
// database is configured and in tests.
type MemoryRepository struct {
	mu         sync.Mutex
	nextID     uint
	categories map[uint]Category
	lists      map[uint]List
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		categories: make(map[uint]Category),
		lists:      make(map[uint]List),
	}
}

func (m *MemoryRepository) id() uint {
	m.nextID++
	return m.nextID
}

func (m *MemoryRepository) Categories(ctx context.Context) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Category, 0, len(m.categories))
	for _, category := range m.categories {
		category.ListCount = m.countLists(category.ID)
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemoryRepository) Category(ctx context.Context, id uint) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	category.ListCount = m.countLists(id)
	return category, nil
}

func (m *MemoryRepository) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	in, err := normalizeCategory(in)
	if err != nil {
		return Category{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(Slug(in.Name), 0) {
		return Category{}, ErrDuplicateCategory
	}
	category := Category{
		ID:          m.id(),
		Name:        in.Name,
		Slug:        Slug(in.Name),
		Icon:        in.Icon,
		Description: in.Description,
	}
	m.categories[category.ID] = category
	return category, nil
}

func (m *MemoryRepository) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (Category, error) {
	in, err := normalizeCategory(in)
	if err != nil {
		return Category{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	if m.slugTaken(Slug(in.Name), id) {
		return Category{}, ErrDuplicateCategory
	}
	category.Name = in.Name
	category.Slug = Slug(in.Name)
	category.Icon = in.Icon
	category.Description = in.Description
	m.categories[id] = category
	for listID, list := range m.lists {
		if list.CategoryID == id {
			list.CategoryName = category.Name
			m.lists[listID] = list
		}
	}
	category.ListCount = m.countLists(id)
	return category, nil
}

func (m *MemoryRepository) DeleteCategory(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return ErrNotFound
	}
	for listID, list := range m.lists {
		if list.CategoryID == id {
			delete(m.lists, listID)
		}
	}
	delete(m.categories, id)
	return nil
}

func (m *MemoryRepository) Lists(ctx context.Context, categoryID uint) ([]List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]List, 0)
	for _, list := range m.lists {
		if categoryID != 0 && list.CategoryID != categoryID {
			continue
		}
		out = append(out, cloneList(list))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (m *MemoryRepository) List(ctx context.Context, id uint) (List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.lists[id]
	if !ok {
		return List{}, ErrNotFound
	}
	return cloneList(list), nil
}

func (m *MemoryRepository) RandomList(ctx context.Context) (List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	candidates := make([]List, 0)
	for _, list := range m.lists {
		if list.HasItems() {
			candidates = append(candidates, list)
		}
	}
	if len(candidates) == 0 {
		return List{}, ErrNoListsAvailable
	}
	return cloneList(candidates[rand.IntN(len(candidates))]), nil
}

func (m *MemoryRepository) CreateList(ctx context.Context, in ListInput, emptyItems int) (List, error) {
	in, err := normalizeList(in)
	if err != nil {
		return List{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[in.CategoryID]
	if !ok {
		return List{}, ErrNotFound
	}
	list := listFromInput(m.id(), in)
	list.CategoryName = category.Name
	list.Items = make([]Item, 0, emptyItems)
	for rank := 1; rank <= emptyItems; rank++ {
		list.Items = append(list.Items, Item{ID: m.id(), ListID: list.ID, Rank: rank})
	}
	m.lists[list.ID] = list
	return cloneList(list), nil
}

func (m *MemoryRepository) UpdateList(ctx context.Context, id uint, in ListInput) (List, error) {
	in, err := normalizeList(in)
	if err != nil {
		return List{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.lists[id]
	if !ok {
		return List{}, ErrNotFound
	}
	category, ok := m.categories[in.CategoryID]
	if !ok {
		return List{}, ErrNotFound
	}
	list := listFromInput(id, in)
	list.CategoryName = category.Name
	list.Items = existing.Items
	m.lists[id] = list
	return cloneList(list), nil
}

func (m *MemoryRepository) DeleteList(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lists[id]; !ok {
		return ErrNotFound
	}
	delete(m.lists, id)
	return nil
}

func (m *MemoryRepository) AddItem(ctx context.Context, listID uint, in ItemInput) (Item, error) {
	in, err := normalizeItem(in)
	if err != nil {
		return Item{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.lists[listID]
	if !ok {
		return Item{}, ErrNotFound
	}
	if in.Rank == 0 {
		for _, item := range list.Items {
			if item.Rank > in.Rank {
				in.Rank = item.Rank
			}
		}
		in.Rank++
	}
	for _, item := range list.Items {
		if item.Rank == in.Rank {
			return Item{}, ErrDuplicateRank
		}
	}
	item := Item{ID: m.id(), ListID: listID, Rank: in.Rank, Name: in.Name, Details: in.Details, Statistic: in.Statistic}
	list.Items = append(list.Items, item)
	sortItems(list.Items)
	m.lists[listID] = list
	return item, nil
}

func (m *MemoryRepository) UpdateItem(ctx context.Context, id uint, in ItemInput) (Item, error) {
	in, err := normalizeItem(in)
	if err != nil {
		return Item{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for listID, list := range m.lists {
		for i := range list.Items {
			if list.Items[i].ID != id {
				continue
			}
			updated, err := applyItem(list.Items, i, in)
			if err != nil {
				return Item{}, err
			}
			sortItems(list.Items)
			m.lists[listID] = list
			return updated, nil
		}
	}
	return Item{}, ErrNotFound
}

func (m *MemoryRepository) SaveItems(ctx context.Context, listID uint, items []ItemInput) ([]Item, error) {
	for i := range items {
		if _, err := normalizeItem(items[i]); err != nil {
			return nil, ErrItemNameRequired
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.lists[listID]
	if !ok {
		return nil, ErrNotFound
	}
	for _, in := range items {
		in, _ = normalizeItem(in)
		index := -1
		for i := range list.Items {
			if list.Items[i].ID == in.ID {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, ErrItemNotInList
		}
		if _, err := applyItem(list.Items, index, in); err != nil {
			return nil, err
		}
	}
	sortItems(list.Items)
	m.lists[listID] = list
	return append([]Item(nil), list.Items...), nil
}

func (m *MemoryRepository) ReplaceItems(ctx context.Context, listID uint, items []ItemInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.lists[listID]
	if !ok {
		return ErrNotFound
	}
	seen := make(map[int]struct{}, len(items))
	replaced := make([]Item, 0, len(items))
	for _, in := range items {
		if _, dup := seen[in.Rank]; dup {
			return ErrDuplicateRank
		}
		seen[in.Rank] = struct{}{}
		replaced = append(replaced, Item{
			ID:        m.id(),
			ListID:    listID,
			Rank:      in.Rank,
			Name:      in.Name,
			Details:   in.Details,
			Statistic: in.Statistic,
		})
	}
	sortItems(replaced)
	list.Items = replaced
	m.lists[listID] = list
	return nil
}

func (m *MemoryRepository) countLists(categoryID uint) int {
	count := 0
	for _, list := range m.lists {
		if list.CategoryID == categoryID {
			count++
		}
	}
	return count
}

func (m *MemoryRepository) slugTaken(value string, except uint) bool {
	for id, category := range m.categories {
		if id != except && category.Slug == value {
			return true
		}
	}
	return false
}

func applyItem(items []Item, index int, in ItemInput) (Item, error) {
	if in.Rank > 0 {
		for i, other := range items {
			if i != index && other.Rank == in.Rank {
				return Item{}, ErrDuplicateRank
			}
		}
		items[index].Rank = in.Rank
	}
	items[index].Name = in.Name
	items[index].Details = in.Details
	items[index].Statistic = in.Statistic
	return items[index], nil
}

func listFromInput(id uint, in ListInput) List {
	return List{
		ID:            id,
		CategoryID:    in.CategoryID,
		Title:         in.Title,
		Description:   in.Description,
		SourceURL:     in.SourceURL,
		ReferenceInfo: in.ReferenceInfo,
		Year:          in.Year,
	}
}

func cloneList(list List) List {
	list.Items = append([]Item(nil), list.Items...)
	return list
}

func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Rank < items[j].Rank
	})
}
