package toolsim

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Customer is a canonical support customer record.
type Customer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Tier   string `json:"tier"`
	Status string `json:"status"`
}

// Order is a canonical order record.
type Order struct {
	ID             string      `json:"id"`
	CustomerID     string      `json:"customer_id"`
	Status         string      `json:"status"`
	Total          float64     `json:"total"`
	CreatedAt      string      `json:"created_at"`
	ETA            string      `json:"eta"`
	Items          []OrderItem `json:"items"`
	TrackingNumber string      `json:"tracking_number"`
}

type OrderItem struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

var seedCustomers = []Customer{
	{ID: "1", Name: "Alice Smith", Email: "alice@example.com", Tier: "gold", Status: "active"},
	{ID: "2", Name: "Marcus Lee", Email: "marcus@example.com", Tier: "silver", Status: "active"},
	{ID: "3", Name: "Priya Nair", Email: "priya@example.com", Tier: "platinum", Status: "vip"},
}

var seedOrders = []Order{
	{
		ID: "1001", CustomerID: "1", Status: "delivered", Total: 149.99,
		CreatedAt: "2024-10-05T14:30:00Z", ETA: "2024-10-10",
		Items:          []OrderItem{{Name: "Noise-cancelling headphones", Qty: 1}},
		TrackingNumber: "1Z45A001XZ1001",
	},
	{
		ID: "1002", CustomerID: "1", Status: "processing", Total: 89.50,
		CreatedAt: "2024-10-12T09:18:00Z", ETA: "2024-10-18",
		Items:          []OrderItem{{Name: "Smart home sensor kit", Qty: 1}},
		TrackingNumber: "1Z45A001XZ1002",
	},
	{
		ID: "2001", CustomerID: "2", Status: "shipped", Total: 59.00,
		CreatedAt: "2024-11-01T11:10:00Z", ETA: "2024-11-05",
		Items:          []OrderItem{{Name: "Wireless charger", Qty: 2}},
		TrackingNumber: "1Z45B002XZ2001",
	},
	{
		ID: "3001", CustomerID: "3", Status: "delivered", Total: 249.00,
		CreatedAt: "2024-09-22T16:45:00Z", ETA: "2024-09-27",
		Items:          []OrderItem{{Name: "Smart thermostat bundle", Qty: 1}},
		TrackingNumber: "1Z45C003XZ3001",
	},
}

// seed creates the schema and upserts the canonical customers and orders.
// It is idempotent; reruns refresh existing rows in place.
func seed(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			tier TEXT,
			status TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			customer_id TEXT REFERENCES customers(id),
			status TEXT,
			total NUMERIC(10, 2),
			created_at TIMESTAMPTZ,
			eta DATE,
			items JSONB,
			tracking_number TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_created
			ON orders (customer_id, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seed schema failed on %q: %w", stmt, err)
		}
	}

	for _, c := range seedCustomers {
		_, err := pool.Exec(ctx,
			`INSERT INTO customers (id, name, email, tier, status)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				email = EXCLUDED.email,
				tier = EXCLUDED.tier,
				status = EXCLUDED.status`,
			c.ID, c.Name, c.Email, c.Tier, c.Status,
		)
		if err != nil {
			return fmt.Errorf("seed customer %s: %w", c.ID, err)
		}
	}

	for _, o := range seedOrders {
		items, err := json.Marshal(o.Items)
		if err != nil {
			return fmt.Errorf("marshal order items: %w", err)
		}
		_, err = pool.Exec(ctx,
			`INSERT INTO orders (id, customer_id, status, total, created_at, eta, items, tracking_number)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
			 ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				total = EXCLUDED.total,
				created_at = EXCLUDED.created_at,
				eta = EXCLUDED.eta,
				items = EXCLUDED.items,
				tracking_number = EXCLUDED.tracking_number`,
			o.ID, o.CustomerID, o.Status, o.Total, o.CreatedAt, o.ETA, string(items), o.TrackingNumber,
		)
		if err != nil {
			return fmt.Errorf("seed order %s: %w", o.ID, err)
		}
	}
	return nil
}
