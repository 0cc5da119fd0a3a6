package migrations

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderNumberStart is the first value of the order number sequence.
const OrderNumberStart = 1001

// Run applies the checkout schema. Adapters never automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.Exec(fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS order_number_seq START %d", OrderNumberStart)).Error; err != nil {
		return err
	}
	return db.AutoMigrate(
		&orderRecord{},
		&orderItemRecord{},
		&promoCodeRecord{},
		&idempotencyRecord{},
	)
}

// Order header schema mirrors the orders Postgres data store.
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

// Idempotency schema mirrors the checkout idempotency store.
type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
}

func (idempotencyRecord) TableName() string { return "checkout_idempotency_keys" }
