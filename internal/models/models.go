package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	SubscriptionFree = "free"
	SubscriptionPro  = "pro"
)

// Account is the durable registry record. The credential is stored as a
// bcrypt hash under the historical "password" field of the registry blob.
type Account struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
	Role         string `json:"role"`
	Subscription string `json:"subscription"`
	LastActive   int64  `json:"lastActive,omitempty"`
}

// User is the credential-stripped session view of an Account.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Subscription string `json:"subscription"`
	LastActive   int64  `json:"lastActive,omitempty"`
}

// SessionUser derives the session view, dropping the credential.
func (a Account) SessionUser() User {
	return User{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Role:         a.Role,
		Subscription: a.Subscription,
		LastActive:   a.LastActive,
	}
}

type Product struct {
	ID            string  `json:"id"`
	OwnerID       string  `json:"owner_id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	CostPrice     float64 `json:"costPrice"`
	SellingPrice  float64 `json:"sellingPrice"`
	StockQuantity int     `json:"stockQuantity"`
	MinStockLevel int     `json:"minStockLevel"`
}

// Sale is an append-only record. Unit price and cost are snapshots taken
// at sale time; later product edits never rewrite sale history.
type Sale struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"owner_id"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	UnitCost    float64 `json:"unitCost"`
	TotalPrice  float64 `json:"totalPrice"`
	TotalProfit float64 `json:"totalProfit"`
	Timestamp   int64   `json:"timestamp"`
}

// NowMillis matches the epoch-milliseconds convention of the stored blobs.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
