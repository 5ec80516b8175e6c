package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/subvault-dev/subvault-cli/internal/domain"
	"github.com/subvault-dev/subvault-cli/internal/ports"
)

const (
	storeFileMode   = 0o600
	storeDirMode    = 0o700
	tempFilePattern = "billing-*.toml"

	eventBuffer = 8
)

type storeSchema struct {
	Products  []string               `toml:"products"`
	Purchases []purchaseRecordSchema `toml:"purchases"`
}

type purchaseRecordSchema struct {
	PackageName   string `toml:"package_name"`
	PurchaseToken string `toml:"purchase_token"`
	Signature     string `toml:"signature"`
	SignedData    string `toml:"signed_data"`
}

type signedPayload struct {
	PackageName   string `json:"package_name"`
	ProductID     string `json:"product_id"`
	PurchaseToken string `json:"purchase_token"`
	PurchaseTime  string `json:"purchase_time"`
}

// Client is a file-backed stand-in for the platform billing SDK. Purchase
// history lives in a TOML file, most-recent-last, and LaunchBillingFlow
// appends a record there before emitting the purchased event.
type Client struct {
	path        string
	packageName string
	mu          sync.Mutex
	events      chan ports.PurchaseEvent
}

var _ ports.BillingClient = (*Client)(nil)

func NewClient(path, packageName string) *Client {
	return &Client{
		path:        filepath.Clean(path),
		packageName: packageName,
		events:      make(chan ports.PurchaseEvent, eventBuffer),
	}
}

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	schema, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	if len(schema.Products) == 0 {
		return nil, nil
	}
	products := make([]domain.Product, 0, len(schema.Products))
	for _, name := range schema.Products {
		products = append(products, domain.Product(name))
	}
	return products, nil
}

func (c *Client) PurchaseHistory(ctx context.Context) ([]ports.PurchaseRecord, error) {
	schema, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	if len(schema.Purchases) == 0 {
		return nil, nil
	}
	records := make([]ports.PurchaseRecord, 0, len(schema.Purchases))
	for _, record := range schema.Purchases {
		records = append(records, ports.PurchaseRecord{
			PackageName:   record.PackageName,
			PurchaseToken: record.PurchaseToken,
			Signature:     record.Signature,
			SignedData:    record.SignedData,
		})
	}
	return records, nil
}

func (c *Client) PurchaseEvents() <-chan ports.PurchaseEvent {
	return c.events
}

func (c *Client) LaunchBillingFlow(ctx context.Context, planID, externalID string) error {
	if planID == "" {
		return errors.New("plan id is required")
	}

	token := uuid.NewString()
	payload, err := json.Marshal(signedPayload{
		PackageName:   c.packageName,
		ProductID:     planID,
		PurchaseToken: token,
		PurchaseTime:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode purchase payload: %w", err)
	}

	record := purchaseRecordSchema{
		PackageName:   c.packageName,
		PurchaseToken: token,
		Signature:     "local-" + token,
		SignedData:    string(payload),
	}

	c.mu.Lock()
	schema, err := readSchema(c.path)
	if err == nil {
		schema.Purchases = append(schema.Purchases, record)
		err = writeSchema(c.path, schema)
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}

	event := ports.PurchaseEvent{
		Kind:          ports.PurchaseEventPurchased,
		PackageName:   c.packageName,
		PurchaseToken: token,
	}
	select {
	case c.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) read(ctx context.Context) (storeSchema, error) {
	if err := ctx.Err(); err != nil {
		return storeSchema{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return readSchema(c.path)
}

func readSchema(path string) (storeSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return storeSchema{}, nil
		}
		return storeSchema{}, fmt.Errorf("read billing store: %w", err)
	}

	var schema storeSchema
	if err := toml.Unmarshal(data, &schema); err != nil {
		return storeSchema{}, fmt.Errorf("decode billing store: %w", err)
	}
	return schema, nil
}

func writeSchema(path string, schema storeSchema) error {
	data, err := toml.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode billing store: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, storeDirMode); err != nil {
		return fmt.Errorf("create billing store directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp billing store: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("write temp billing store: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close temp billing store: %w", err)
	}
	if err := os.Chmod(tempPath, storeFileMode); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("set billing store permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace billing store: %w", err)
	}
	return nil
}
