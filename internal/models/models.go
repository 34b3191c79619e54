package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Role string

const (
	RoleBuyer       Role = "buyer"
	RoleFarmer      Role = "farmer"
	RoleTransporter Role = "transporter"
	RoleNone        Role = "none"
)

// FarmerStatus tracks admin approval of a farmer application. Only users
// with RoleFarmer carry a meaningful value; approval gates product listing.
type FarmerStatus string

const (
	FarmerNone     FarmerStatus = "NONE"
	FarmerPending  FarmerStatus = "PENDING"
	FarmerApproved FarmerStatus = "APPROVED"
	FarmerDeclined FarmerStatus = "DECLINED"
)

type User struct {
	ID           int64        `db:"id" json:"id"`
	Phone        string       `db:"phone" json:"phone"`
	Name         string       `db:"name" json:"name"`
	Role         Role         `db:"role" json:"role"`
	FarmerStatus FarmerStatus `db:"farmer_status" json:"farmer_status"`
	HubName      string       `db:"hub_name" json:"hub_name,omitempty"`
	HubLat       *float64     `db:"hub_lat" json:"hub_lat,omitempty"`
	HubLng       *float64     `db:"hub_lng" json:"hub_lng,omitempty"`
	HubAccuracy  *float64     `db:"hub_accuracy" json:"hub_accuracy,omitempty"`
	Active       bool         `db:"active" json:"active"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// Product prices are integer minor units; products referenced by an
// order item are deactivated rather than deleted.
type Product struct {
	ID        int64     `db:"id" json:"id"`
	FarmerID  int64     `db:"farmer_user_id" json:"farmer_user_id"`
	Name      string    `db:"name" json:"name"`
	Unit      string    `db:"unit" json:"unit"`
	Price     int64     `db:"price" json:"price"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type OrderStatus string

const (
	OrderNeedsQuotes   OrderStatus = "NEEDS_QUOTES"
	OrderQuoteAccepted OrderStatus = "QUOTE_ACCEPTED"
	OrderInTransit     OrderStatus = "IN_TRANSIT"
	OrderArrived       OrderStatus = "ARRIVED"
	OrderDelivered     OrderStatus = "DELIVERED"
	OrderCancelled     OrderStatus = "CANCELLED"
)

// Terminal reports whether no further lifecycle transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

type Order struct {
	ID              string      `db:"id" json:"id"`
	BuyerID         int64       `db:"buyer_user_id" json:"buyer_user_id"`
	Origin          string      `db:"origin" json:"origin"`
	Destination     string      `db:"destination" json:"destination"`
	Status          OrderStatus `db:"status" json:"status"`
	AcceptedQuoteID *int64      `db:"accepted_quote_id" json:"accepted_quote_id,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
}

// OrderItem is an immutable snapshot taken at placement time; UnitPrice
// never follows later product price changes.
type OrderItem struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   string `db:"order_id" json:"order_id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Quantity  int64  `db:"quantity" json:"quantity"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
}

func (i OrderItem) Subtotal() int64 { return i.Quantity * i.UnitPrice }

type QuoteStatus string

const (
	QuoteSubmitted QuoteStatus = "SUBMITTED"
	QuoteAccepted  QuoteStatus = "ACCEPTED"
	QuoteDeclined  QuoteStatus = "DECLINED"
	QuoteDelivered QuoteStatus = "DELIVERED"
)

type Quote struct {
	ID            int64       `db:"id" json:"id"`
	OrderID       string      `db:"order_id" json:"order_id"`
	TransporterID int64       `db:"transporter_user_id" json:"transporter_user_id"`
	Price         int64       `db:"price" json:"price"`
	ETAHours      int64       `db:"eta_hours" json:"eta_hours"`
	Status        QuoteStatus `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// LocationRole tags a GPS ping row. Only the latest row per (order, role)
// is current; older rows are history and are never mutated.
type LocationRole string

const (
	LocOrigin      LocationRole = "origin"
	LocDropoff     LocationRole = "dropoff"
	LocTransporter LocationRole = "transporter"
)

type OrderLocation struct {
	ID        int64        `db:"id" json:"id"`
	OrderID   string       `db:"order_id" json:"order_id"`
	Role      LocationRole `db:"role" json:"role"`
	Lat       float64      `db:"lat" json:"lat"`
	Lng       float64      `db:"lng" json:"lng"`
	Accuracy  float64      `db:"accuracy" json:"accuracy"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

type OrderMessage struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NotificationKind values double as the event kinds published to Kafka.
type NotificationKind string

const (
	KindNewOrder       NotificationKind = "NEW_ORDER"
	KindQuoteReceived  NotificationKind = "QUOTE_RECEIVED"
	KindQuoteAccepted  NotificationKind = "QUOTE_ACCEPTED"
	KindQuoteDeclined  NotificationKind = "QUOTE_DECLINED"
	KindTripStarted    NotificationKind = "TRIP_STARTED"
	KindTripArrived    NotificationKind = "TRIP_ARRIVED"
	KindOrderDelivered NotificationKind = "ORDER_DELIVERED"
	KindOrderCancelled NotificationKind = "ORDER_CANCELLED"
)

type Notification struct {
	ID        int64            `db:"id" json:"id"`
	UserID    int64            `db:"user_id" json:"user_id"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	Message   string           `db:"message" json:"message"`
	Link      string           `db:"link" json:"link"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

type OTP struct {
	Phone     string    `db:"phone"`
	Code      string    `db:"code"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// LifecycleEvent is the record published to the event stream on every
// order mutation; the notifier worker turns these into SMS alerts.
type LifecycleEvent struct {
	OrderID string           `json:"order_id"`
	Kind    NotificationKind `json:"kind"`
	UserIDs []int64          `json:"user_ids"`
	Message string           `json:"message"`
	At      time.Time        `json:"at"`
}
