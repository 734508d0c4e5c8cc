// Package views is the read-only query side (component G): parameterized
// fetchers over the denormalized tables the projection runner owns.
// Command services and HTTP handlers read through here; they never
// write to these tables. Grounded on the teacher's
// case/infrastructure/postgres.go listCases dynamic predicate builder,
// generalized across the nine view tables instead of one.
package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Filter is the shared {entityId?, status?, slug?, productId?,
// limit?, offset?} shape every list query accepts; each query only
// honors the subset of fields its underlying table has columns for.
// The zero value of each field means "no predicate", matching the
// rest of this codebase's IsZero-as-absent convention.
type Filter struct {
	EntityID  string `json:"entityId,omitempty"`
	Status    string `json:"status,omitempty"`
	Slug      string `json:"slug,omitempty"`
	ProductID string `json:"productId,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// predicateBuilder accumulates conjunctive WHERE conditions and their
// positional args, then appends ORDER BY/LIMIT/OFFSET. Limit is
// omitted entirely when unset so an offset-only filter still paginates
// correctly instead of silently returning zero rows.
type predicateBuilder struct {
	conditions []string
	args       []any
}

func (b *predicateBuilder) eq(column string, value string) {
	if value == "" {
		return
	}
	b.args = append(b.args, value)
	b.conditions = append(b.conditions, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func (b *predicateBuilder) build(selectClause, fromClause, orderBy string, f Filter) (string, []any) {
	where := ""
	if len(b.conditions) > 0 {
		where = "WHERE " + strings.Join(b.conditions, " AND ")
	}
	query := fmt.Sprintf("%s %s %s ORDER BY %s", selectClause, fromClause, where, orderBy)
	if f.Limit > 0 {
		b.args = append(b.args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(b.args))
	}
	b.args = append(b.args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(b.args))
	return query, b.args
}

type ProductListItem struct {
	ProductID       string
	Slug            string
	Name            string
	Status          string
	FulfillmentType string
	Collections     []byte
	Tags            []byte
	Images          []byte
	PublishedAt     *time.Time
	UpdatedAt       time.Time
}

func (s *Service) ListProducts(ctx context.Context, f Filter) ([]ProductListItem, error) {
	b := &predicateBuilder{}
	b.eq("product_id", f.EntityID)
	b.eq("status", f.Status)
	b.eq("slug", f.Slug)
	query, args := b.build(
		"SELECT product_id, slug, name, status, fulfillment_type, collections, tags, images, published_at, updated_at",
		"FROM product_list_view", "updated_at DESC", f)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []ProductListItem
	for rows.Next() {
		var p ProductListItem
		if err := rows.Scan(&p.ProductID, &p.Slug, &p.Name, &p.Status, &p.FulfillmentType, &p.Collections, &p.Tags, &p.Images, &p.PublishedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type VariantListItem struct {
	VariantID string
	ProductID string
	SKU       string
	Options   []byte
	ListPrice int64
	Inventory int
	Status    string
	Images    []byte
	UpdatedAt time.Time
}

func (s *Service) ListVariants(ctx context.Context, f Filter) ([]VariantListItem, error) {
	b := &predicateBuilder{}
	b.eq("variant_id", f.EntityID)
	b.eq("product_id", f.ProductID)
	b.eq("status", f.Status)
	query, args := b.build(
		"SELECT variant_id, product_id, sku, options, list_price, inventory, status, images, updated_at",
		"FROM variant_list_view", "updated_at DESC", f)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var out []VariantListItem
	for rows.Next() {
		var v VariantListItem
		if err := rows.Scan(&v.VariantID, &v.ProductID, &v.SKU, &v.Options, &v.ListPrice, &v.Inventory, &v.Status, &v.Images, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type CollectionListItem struct {
	CollectionID string
	Slug         string
	Name         string
	Description  string
	Status       string
	Images       []byte
	UpdatedAt    time.Time
}

func (s *Service) ListCollections(ctx context.Context, f Filter) ([]CollectionListItem, error) {
	b := &predicateBuilder{}
	b.eq("collection_id", f.EntityID)
	b.eq("status", f.Status)
	b.eq("slug", f.Slug)
	query, args := b.build(
		"SELECT collection_id, slug, name, description, status, images, updated_at",
		"FROM collection_list_view", "updated_at DESC", f)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []CollectionListItem
	for rows.Next() {
		var c CollectionListItem
		if err := rows.Scan(&c.CollectionID, &c.Slug, &c.Name, &c.Description, &c.Status, &c.Images, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type CollectionProductPosition struct {
	CollectionID string
	ProductID    string
	Position     int
	UpdatedAt    time.Time
}

// ListCollectionProductPositions takes EntityID as the collection id,
// ordered by position ascending since this is a curated order, not a
// feed.
func (s *Service) ListCollectionProductPositions(ctx context.Context, f Filter) ([]CollectionProductPosition, error) {
	b := &predicateBuilder{}
	b.eq("collection_id", f.EntityID)
	b.eq("product_id", f.ProductID)
	query, args := b.build(
		"SELECT collection_id, product_id, position, updated_at",
		"FROM collection_product_positions_view", "position ASC", f)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list collection product positions: %w", err)
	}
	defer rows.Close()

	var out []CollectionProductPosition
	for rows.Next() {
		var p CollectionProductPosition
		if err := rows.Scan(&p.CollectionID, &p.ProductID, &p.Position, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan collection product position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type VariantPosition struct {
	ProductID string
	VariantID string
	Position  int
	UpdatedAt time.Time
}

// ListVariantPositions takes ProductID (the filter's dedicated field,
// since a product's variant ordering is the common lookup direction).
func (s *Service) ListVariantPositions(ctx context.Context, f Filter) ([]VariantPosition, error) {
	b := &predicateBuilder{}
	b.eq("product_id", f.ProductID)
	b.eq("variant_id", f.EntityID)
	query, args := b.build(
		"SELECT product_id, variant_id, position, updated_at",
		"FROM variant_positions_view", "position ASC", f)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list variant positions: %w", err)
	}
	defer rows.Close()

	var out []VariantPosition
	for rows.Next() {
		var p VariantPosition
		if err := rows.Scan(&p.ProductID, &p.VariantID, &p.Position, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan variant position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type SlugRedirect struct {
	Slug       string
	EntityID   string
	EntityType string
	Status     string
	ForwardsTo *string
	CreatedAt  time.Time
}

func (s *Service) ListSlugRedirects(ctx context.Context, f Filter) ([]SlugRedirect, error) {
	b := &predicateBuilder{}
	b.eq("slug", f.Slug)
	b.eq("entity_id", f.EntityID)
	b.eq("status", f.Status)
	query, args := b.build(
		"SELECT slug, entity_id, entity_type, status, forwards_to, created_at",
		"FROM slug_redirects_view", "created_at ASC", f)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list slug redirects: %w", err)
	}
	defer rows.Close()

	var out []SlugRedirect
	for rows.Next() {
		var r SlugRedirect
		if err := rows.Scan(&r.Slug, &r.EntityID, &r.EntityType, &r.Status, &r.ForwardsTo, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan slug redirect: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RedirectChain reconstructs the full chain of slugs an entity has
// held, oldest first (spec.md section 4.I): every released reservation
// for entityId plus, implicitly, its current active one.
func (s *Service) RedirectChain(ctx context.Context, entityID string) ([]SlugRedirect, error) {
	return s.ListSlugRedirects(ctx, Filter{EntityID: entityID})
}

type ScheduleItem struct {
	ScheduleID          string
	TargetAggregateID   string
	TargetAggregateType string
	CommandType         string
	ScheduledFor        time.Time
	Status              string
	RetryCount          int
	NextRetryAt         *time.Time
	ErrorMessage        *string
	UpdatedAt           time.Time
}

func (s *Service) ListSchedules(ctx context.Context, f Filter) ([]ScheduleItem, error) {
	b := &predicateBuilder{}
	b.eq("schedule_id", f.EntityID)
	b.eq("status", f.Status)
	b.eq("target_aggregate_id", f.ProductID)
	query, args := b.build(
		"SELECT schedule_id, target_aggregate_id, target_aggregate_type, command_type, scheduled_for, status, retry_count, next_retry_at, error_message, updated_at",
		"FROM schedules_view", "scheduled_for ASC", f)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// ListDueSchedules is the scheduler's (component H) polling query:
// pending schedules whose retry backoff has elapsed and whose
// scheduledFor has arrived, oldest first, bounded to batchSize so one
// ticker pass cannot run unbounded.
func (s *Service) ListDueSchedules(ctx context.Context, now time.Time, batchSize int) ([]ScheduleItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT schedule_id, target_aggregate_id, target_aggregate_type, command_type, scheduled_for, status, retry_count, next_retry_at, error_message, updated_at
		FROM schedules_view
		WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= $1) AND scheduled_for <= $1
		ORDER BY scheduled_for ASC
		LIMIT $2
	`, now, batchSize)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

func scanSchedules(rows pgx.Rows) ([]ScheduleItem, error) {
	var out []ScheduleItem
	for rows.Next() {
		var item ScheduleItem
		if err := rows.Scan(&item.ScheduleID, &item.TargetAggregateID, &item.TargetAggregateType, &item.CommandType,
			&item.ScheduledFor, &item.Status, &item.RetryCount, &item.NextRetryAt, &item.ErrorMessage, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

type FulfillmentListItem struct {
	FulfillmentID  string
	OrderID        string
	Items          []byte
	Status         string
	TrackingNumber *string
	Carrier        *string
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	UpdatedAt      time.Time
}

func (s *Service) ListFulfillments(ctx context.Context, f Filter) ([]FulfillmentListItem, error) {
	b := &predicateBuilder{}
	b.eq("fulfillment_id", f.EntityID)
	b.eq("order_id", f.ProductID)
	b.eq("status", f.Status)
	query, args := b.build(
		"SELECT fulfillment_id, order_id, items, status, tracking_number, carrier, shipped_at, delivered_at, updated_at",
		"FROM fulfillment_list_view", "updated_at DESC", f)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fulfillments: %w", err)
	}
	defer rows.Close()

	var out []FulfillmentListItem
	for rows.Next() {
		var item FulfillmentListItem
		if err := rows.Scan(&item.FulfillmentID, &item.OrderID, &item.Items, &item.Status, &item.TrackingNumber, &item.Carrier, &item.ShippedAt, &item.DeliveredAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan fulfillment: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

type CatalogueEntry struct {
	ProductID   string
	Slug        string
	Name        string
	Metadata    []byte
	Variants    []byte
	PublishedAt time.Time
	UpdatedAt   time.Time
}

// GetCatalogueEntryBySlug is the storefront's single read: one active
// product plus its embedded active variants, no join required.
func (s *Service) GetCatalogueEntryBySlug(ctx context.Context, slug string) (*CatalogueEntry, error) {
	var c CatalogueEntry
	err := s.pool.QueryRow(ctx, `
		SELECT product_id, slug, name, metadata, variants, published_at, updated_at
		FROM published_catalogue_view WHERE slug = $1
	`, slug).Scan(&c.ProductID, &c.Slug, &c.Name, &c.Metadata, &c.Variants, &c.PublishedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get catalogue entry: %w", err)
	}
	return &c, nil
}
