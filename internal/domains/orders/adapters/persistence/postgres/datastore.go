package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
	"github.com/Apurer/ghadwa-checkout/internal/shared/projection"
)

var (
	_ ports.DataStore   = (*DataStore)(nil)
	_ ports.OrderFinder = (*DataStore)(nil)
)

// OrderNumberSequence backs the human readable GHD-#### numbers.
const OrderNumberSequence = "order_number_seq"

// DataStore persists orders and reads promo codes in PostgreSQL using GORM.
// The schema is owned by the migrations package.
type DataStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Option configures optional collaborators on the data store.
type Option func(*DataStore)

// WithLogger sets the logger used to report promo rows that cannot be read.
func WithLogger(logger *slog.Logger) Option {
	return func(s *DataStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDataStore wires a PostgreSQL-backed data store. Caller manages DB lifecycle.
func NewDataStore(db *gorm.DB, opts ...Option) *DataStore {
	s := &DataStore{db: db, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type orderRecord struct {
	ID            uuid.UUID       `gorm:"primaryKey;column:id;type:uuid"`
	Number        string          `gorm:"column:order_number;size:32;uniqueIndex"`
	VendorID      string          `gorm:"column:chef_id;size:64;index"`
	CustomerName  string          `gorm:"column:customer_name"`
	CustomerPhone string          `gorm:"column:customer_phone;size:20"`
	Address       string          `gorm:"column:delivery_address"`
	Notes         string          `gorm:"column:notes"`
	ItemNames     pq.StringArray  `gorm:"column:item_names;type:text[]"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2)"`
	Discount      decimal.Decimal `gorm:"column:discount;type:numeric(12,2)"`
	Total         decimal.Decimal `gorm:"column:total;type:numeric(12,2)"`
	PromoCode     string          `gorm:"column:promo_code;size:20"`
	Status        string          `gorm:"column:status;type:varchar(32);index"`
	PaymentMethod string          `gorm:"column:payment_method;type:varchar(16)"`
	DeliveryDate  *time.Time      `gorm:"column:delivery_date;type:date"`
	DeliverySlot  string          `gorm:"column:delivery_slot;size:5"`
	CreatedAt     time.Time       `gorm:"column:created_at;index"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID        int64           `gorm:"primaryKey;autoIncrement;column:id"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;index"`
	Position  int             `gorm:"column:position"`
	ProductID string          `gorm:"column:product_id;size:64"`
	Name      string          `gorm:"column:product_name"`
	ImageURL  string          `gorm:"column:product_image"`
	Quantity  int             `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2)"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (orderItemRecord) TableName() string { return "order_items" }

type promoCodeRecord struct {
	Code           string          `gorm:"primaryKey;column:code;size:20"`
	DiscountType   string          `gorm:"column:discount_type;type:varchar(16)"`
	DiscountValue  decimal.Decimal `gorm:"column:discount_value;type:numeric(12,2)"`
	MinOrderAmount decimal.Decimal `gorm:"column:min_order_amount;type:numeric(12,2)"`
	MaxUses        *int            `gorm:"column:max_uses"`
	CurrentUses    int             `gorm:"column:current_uses"`
	ValidFrom      *time.Time      `gorm:"column:valid_from"`
	ValidUntil     *time.Time      `gorm:"column:valid_until"`
	Active         bool            `gorm:"column:is_active"`
}

func (promoCodeRecord) TableName() string { return "promo_codes" }

func (s *DataStore) PromoCodes(ctx context.Context) ([]domain.PromoCode, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []promoCodeRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}
	codes := make([]domain.PromoCode, 0, len(records))
	for i := range records {
		code, err := records[i].toDomain()
		if err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "skipping unreadable promo code",
				slog.String("promo.code", records[i].Code), slog.String("error", err.Error()))
			continue
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// SavePromoCode upserts a promo code. Used by seeding and tests.
func (s *DataStore) SavePromoCode(ctx context.Context, code domain.PromoCode) error {
	if !code.Kind.Valid() {
		return fmt.Errorf("promo code %s: unknown discount type %q", code.Code, code.Kind)
	}
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := toPromoRecord(code)
	return s.db.WithContext(ctx).Save(&record).Error
}

// InsertOrder stores the header and assigns the next number from the order sequence.
func (s *DataStore) InsertOrder(ctx context.Context, order *domain.Order) (string, error) {
	if err := s.ensureDB(); err != nil {
		return "", err
	}
	if order == nil {
		return "", errors.New("order is nil")
	}
	var number string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq int64
		if err := tx.Raw(fmt.Sprintf("SELECT nextval('%s')", OrderNumberSequence)).Scan(&seq).Error; err != nil {
			return err
		}
		number = fmt.Sprintf("GHD-%d", seq)
		record := toOrderRecord(order, number)
		return tx.Create(&record).Error
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

func (s *DataStore) InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []domain.LineItem) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	records := make([]orderItemRecord, 0, len(items))
	for i, item := range items {
		records = append(records, orderItemRecord{
			OrderID:   orderID,
			Position:  i,
			ProductID: item.ProductID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.Total(),
			CreatedAt: now,
		})
	}
	return s.db.WithContext(ctx).Create(&records).Error
}

// FindOrder resolves a UUID or an order number, case-insensitively.
func (s *DataStore) FindOrder(ctx context.Context, ref string) (*projection.Projection[domain.Order], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	ref = strings.TrimSpace(ref)
	query := s.db.WithContext(ctx)
	if id, err := uuid.Parse(ref); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("order_number = ?", strings.ToUpper(ref))
	}
	var record orderRecord
	if err := query.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	var items []orderItemRecord
	if err := s.db.WithContext(ctx).Where("order_id = ?", record.ID).Order("position").Find(&items).Error; err != nil {
		return nil, err
	}
	return record.toProjection(items), nil
}

func (s *DataStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres order data store not configured")
	}
	return nil
}

func toOrderRecord(order *domain.Order, number string) orderRecord {
	rec := orderRecord{
		ID:            order.ID,
		Number:        number,
		VendorID:      order.VendorID,
		CustomerName:  order.Customer.Name,
		CustomerPhone: order.Customer.Phone,
		Address:       order.Customer.Address,
		Notes:         order.Notes,
		ItemNames:     pq.StringArray(order.ItemNames()),
		Subtotal:      order.Subtotal(),
		Discount:      order.Discount,
		Total:         order.Total(),
		PromoCode:     order.PromoCode,
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.CreatedAt,
	}
	if order.Schedule != nil {
		date := order.Schedule.Date
		rec.DeliveryDate = &date
		rec.DeliverySlot = order.Schedule.Slot
	}
	return rec
}

func (r orderRecord) toProjection(items []orderItemRecord) *projection.Projection[domain.Order] {
	order := domain.Order{
		ID:       r.ID,
		Number:   r.Number,
		VendorID: r.VendorID,
		Customer: domain.Customer{
			Name:    r.CustomerName,
			Phone:   r.CustomerPhone,
			Address: r.Address,
		},
		Notes:         r.Notes,
		Discount:      r.Discount,
		PromoCode:     r.PromoCode,
		Status:        domain.Status(r.Status),
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		CreatedAt:     r.CreatedAt,
	}
	if r.DeliveryDate != nil {
		order.Schedule = &domain.Schedule{Date: *r.DeliveryDate, Slot: r.DeliverySlot}
	}
	for _, item := range items {
		order.Items = append(order.Items, domain.LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return &projection.Projection[domain.Order]{
		Entity:   order,
		Metadata: projection.Metadata{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
	}
}

func toPromoRecord(code domain.PromoCode) promoCodeRecord {
	return promoCodeRecord{
		Code:           domain.NormalizePromoCode(code.Code),
		DiscountType:   string(code.Kind),
		DiscountValue:  code.Value,
		MinOrderAmount: code.MinOrderAmount,
		MaxUses:        code.MaxUses,
		CurrentUses:    code.CurrentUses,
		ValidFrom:      code.ValidFrom,
		ValidUntil:     code.ValidUntil,
		Active:         code.Active,
	}
}

// toDomain rejects discount types the evaluator cannot price, so a bad row never
// falls through to a fixed discount.
func (r promoCodeRecord) toDomain() (domain.PromoCode, error) {
	kind := domain.DiscountKind(strings.ToLower(strings.TrimSpace(r.DiscountType)))
	if !kind.Valid() {
		return domain.PromoCode{}, fmt.Errorf("promo code %s: unknown discount type %q", r.Code, r.DiscountType)
	}
	return domain.PromoCode{
		Code:           r.Code,
		Kind:           kind,
		Value:          r.DiscountValue,
		MinOrderAmount: r.MinOrderAmount,
		MaxUses:        r.MaxUses,
		CurrentUses:    r.CurrentUses,
		ValidFrom:      r.ValidFrom,
		ValidUntil:     r.ValidUntil,
		Active:         r.Active,
	}, nil
}
