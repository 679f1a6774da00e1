package catalog

import (
	"context"
	"errors"

	"top-ten/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a Postgres-backed repository, or an in-memory one
// when conn is nil.
func NewRepository(conn *gorm.DB) Repository {
	if conn == nil {
		return NewMemoryRepository()
	}
	return &gormRepository{db: conn}
}

func (r *gormRepository) Categories(ctx context.Context) ([]Category, error) {
	var records []db.Category
	if err := r.db.WithContext(ctx).Order("name asc, id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	var counts []struct {
		CategoryID uint
		Count      int
	}
	if err := r.db.WithContext(ctx).Model(&db.List{}).
		Select("category_id, count(*) as count").
		Group("category_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byCategory := make(map[uint]int, len(counts))
	for _, row := range counts {
		byCategory[row.CategoryID] = row.Count
	}
	out := make([]Category, 0, len(records))
	for _, record := range records {
		category := categoryFromRecord(record)
		category.ListCount = byCategory[record.ID]
		out = append(out, category)
	}
	return out, nil
}

func (r *gormRepository) Category(ctx context.Context, id uint) (Category, error) {
	var record db.Category
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return Category{}, notFound(err)
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&db.List{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return Category{}, err
	}
	category := categoryFromRecord(record)
	category.ListCount = int(count)
	return category, nil
}

func (r *gormRepository) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	in, err := normalizeCategory(in)
	if err != nil {
		return Category{}, err
	}
	record := db.Category{
		Name:        in.Name,
		Slug:        Slug(in.Name),
		Icon:        in.Icon,
		Description: optional(in.Description),
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return Category{}, ErrDuplicateCategory
		}
		return Category{}, err
	}
	return categoryFromRecord(record), nil
}

func (r *gormRepository) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (Category, error) {
	in, err := normalizeCategory(in)
	if err != nil {
		return Category{}, err
	}
	var record db.Category
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return Category{}, notFound(err)
	}
	if err := r.db.WithContext(ctx).Model(&record).Updates(map[string]any{
		"name":        in.Name,
		"slug":        Slug(in.Name),
		"icon":        in.Icon,
		"description": optional(in.Description),
	}).Error; err != nil {
		if isUniqueViolation(err) {
			return Category{}, ErrDuplicateCategory
		}
		return Category{}, err
	}
	return r.Category(ctx, id)
}

func (r *gormRepository) DeleteCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lists := tx.Model(&db.List{}).Select("id").Where("category_id = ?", id)
		if err := tx.Where("list_id IN (?)", lists).Delete(&db.ListItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&db.List{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&db.Category{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *gormRepository) Lists(ctx context.Context, categoryID uint) ([]List, error) {
	query := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Items", orderByRank).
		Order("title asc, id asc")
	if categoryID != 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	var records []db.List
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]List, 0, len(records))
	for _, record := range records {
		out = append(out, listFromRecord(record))
	}
	return out, nil
}

func (r *gormRepository) List(ctx context.Context, id uint) (List, error) {
	var record db.List
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Items", orderByRank).
		First(&record, id).Error; err != nil {
		return List{}, notFound(err)
	}
	return listFromRecord(record), nil
}

func (r *gormRepository) RandomList(ctx context.Context) (List, error) {
	var record db.List
	err := r.db.WithContext(ctx).
		Where("EXISTS (SELECT 1 FROM list_items WHERE list_items.list_id = lists.id AND list_items.name <> '')").
		Order("RANDOM()").
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return List{}, ErrNoListsAvailable
	}
	if err != nil {
		return List{}, err
	}
	return r.List(ctx, record.ID)
}

// CreateList inserts the list and then its empty ranked items in one batch.
// The two inserts are not wrapped in a transaction.
func (r *gormRepository) CreateList(ctx context.Context, in ListInput, emptyItems int) (List, error) {
	in, err := normalizeList(in)
	if err != nil {
		return List{}, err
	}
	if _, err := r.Category(ctx, in.CategoryID); err != nil {
		return List{}, err
	}
	record := listRecord(in)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return List{}, err
	}
	if emptyItems > 0 {
		items := make([]db.ListItem, 0, emptyItems)
		for rank := 1; rank <= emptyItems; rank++ {
			items = append(items, db.ListItem{ListID: record.ID, Rank: rank})
		}
		if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
			return List{}, err
		}
	}
	return r.List(ctx, record.ID)
}

func (r *gormRepository) UpdateList(ctx context.Context, id uint, in ListInput) (List, error) {
	in, err := normalizeList(in)
	if err != nil {
		return List{}, err
	}
	var record db.List
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return List{}, notFound(err)
	}
	if _, err := r.Category(ctx, in.CategoryID); err != nil {
		return List{}, err
	}
	updated := listRecord(in)
	if err := r.db.WithContext(ctx).Model(&record).Updates(map[string]any{
		"category_id":    updated.CategoryID,
		"title":          updated.Title,
		"description":    updated.Description,
		"source_url":     updated.SourceURL,
		"reference_info": updated.ReferenceInfo,
		"year":           updated.Year,
	}).Error; err != nil {
		return List{}, err
	}
	return r.List(ctx, id)
}

func (r *gormRepository) DeleteList(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", id).Delete(&db.ListItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&db.List{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *gormRepository) AddItem(ctx context.Context, listID uint, in ItemInput) (Item, error) {
	in, err := normalizeItem(in)
	if err != nil {
		return Item{}, err
	}
	var list db.List
	if err := r.db.WithContext(ctx).First(&list, listID).Error; err != nil {
		return Item{}, notFound(err)
	}
	if in.Rank == 0 {
		var maxRank int
		if err := r.db.WithContext(ctx).Model(&db.ListItem{}).
			Where("list_id = ?", listID).
			Select("COALESCE(MAX(rank), 0)").
			Scan(&maxRank).Error; err != nil {
			return Item{}, err
		}
		in.Rank = maxRank + 1
	}
	record := itemRecord(listID, in)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return Item{}, ErrDuplicateRank
		}
		return Item{}, err
	}
	return itemFromRecord(record), nil
}

func (r *gormRepository) UpdateItem(ctx context.Context, id uint, in ItemInput) (Item, error) {
	in, err := normalizeItem(in)
	if err != nil {
		return Item{}, err
	}
	var record db.ListItem
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return Item{}, notFound(err)
	}
	if err := r.updateItem(r.db.WithContext(ctx), &record, in); err != nil {
		return Item{}, err
	}
	return itemFromRecord(record), nil
}

// SaveItems updates every given item of a list one by one and stops at the
// first failure.
func (r *gormRepository) SaveItems(ctx context.Context, listID uint, items []ItemInput) ([]Item, error) {
	for i := range items {
		if _, err := normalizeItem(items[i]); err != nil {
			return nil, ErrItemNameRequired
		}
	}
	var records []db.ListItem
	if err := r.db.WithContext(ctx).Where("list_id = ?", listID).Find(&records).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]*db.ListItem, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}
	for _, in := range items {
		record, ok := byID[in.ID]
		if !ok {
			return nil, ErrItemNotInList
		}
		in, _ = normalizeItem(in)
		if err := r.updateItem(r.db.WithContext(ctx), record, in); err != nil {
			return nil, err
		}
	}
	list, err := r.List(ctx, listID)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// ReplaceItems deletes whatever items the list has and inserts the given ones.
func (r *gormRepository) ReplaceItems(ctx context.Context, listID uint, items []ItemInput) error {
	var list db.List
	if err := r.db.WithContext(ctx).First(&list, listID).Error; err != nil {
		return notFound(err)
	}
	if err := r.db.WithContext(ctx).Where("list_id = ?", listID).Delete(&db.ListItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	records := make([]db.ListItem, 0, len(items))
	for _, in := range items {
		records = append(records, itemRecord(listID, in))
	}
	if err := r.db.WithContext(ctx).Create(&records).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRank
		}
		return err
	}
	return nil
}

func (r *gormRepository) updateItem(tx *gorm.DB, record *db.ListItem, in ItemInput) error {
	updates := map[string]any{
		"name":      in.Name,
		"details":   optional(in.Details),
		"statistic": optional(in.Statistic),
	}
	if in.Rank > 0 {
		updates["rank"] = in.Rank
	}
	if err := tx.Model(record).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRank
		}
		return err
	}
	record.Name = in.Name
	record.Details = optional(in.Details)
	record.Statistic = optional(in.Statistic)
	if in.Rank > 0 {
		record.Rank = in.Rank
	}
	return nil
}

func orderByRank(tx *gorm.DB) *gorm.DB {
	return tx.Order("rank asc")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func categoryFromRecord(record db.Category) Category {
	return Category{
		ID:          record.ID,
		Name:        record.Name,
		Slug:        record.Slug,
		Icon:        record.Icon,
		Description: deref(record.Description),
	}
}

func listFromRecord(record db.List) List {
	list := List{
		ID:            record.ID,
		CategoryID:    record.CategoryID,
		CategoryName:  record.Category.Name,
		Title:         record.Title,
		Description:   deref(record.Description),
		SourceURL:     deref(record.SourceURL),
		ReferenceInfo: deref(record.ReferenceInfo),
		Items:         make([]Item, 0, len(record.Items)),
	}
	if record.Year != nil {
		list.Year = *record.Year
	}
	for _, item := range record.Items {
		list.Items = append(list.Items, itemFromRecord(item))
	}
	return list
}

func listRecord(in ListInput) db.List {
	record := db.List{
		CategoryID:    in.CategoryID,
		Title:         in.Title,
		Description:   optional(in.Description),
		SourceURL:     optional(in.SourceURL),
		ReferenceInfo: optional(in.ReferenceInfo),
	}
	if in.Year > 0 {
		year := in.Year
		record.Year = &year
	}
	return record
}

func itemFromRecord(record db.ListItem) Item {
	return Item{
		ID:        record.ID,
		ListID:    record.ListID,
		Rank:      record.Rank,
		Name:      record.Name,
		Details:   deref(record.Details),
		Statistic: deref(record.Statistic),
	}
}

func itemRecord(listID uint, in ItemInput) db.ListItem {
	return db.ListItem{
		ListID:    listID,
		Rank:      in.Rank,
		Name:      in.Name,
		Details:   optional(in.Details),
		Statistic: optional(in.Statistic),
	}
}
