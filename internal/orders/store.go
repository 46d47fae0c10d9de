package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/pixelcraft-mc/store-fulfillment/internal/aws"
)

// PaymentIDIndex is the GSI on the orders table keyed by payment_id.
const PaymentIDIndex = "payment_id-index"

var (
	// ErrNotFound indicates no order matched the lookup.
	ErrNotFound = errors.New("order not found")
	// ErrStatusMismatch indicates a conditional status transition failed
	// because the order was not in the expected state.
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
)

// Store encapsulates operations on the orders and order_items tables.
type Store struct {
	client     aws.DynamoDBAPI
	table      string
	itemsTable string
	nowFunc    func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, ordersTable, itemsTable string) *Store {
	return &Store{
		client:     client,
		table:      ordersTable,
		itemsTable: itemsTable,
		nowFunc:    time.Now,
	}
}

// CreateWithItems persists an order and its line items as one logical unit.
// The order row is written first; the items go in a single TransactWriteItems
// call. If the item write fails the order row is deleted before the error is
// returned, so no orphan order without items is ever readable. DynamoDB has no
// cross-call transaction spanning both writes, hence the compensating delete.
func (s *Store) CreateWithItems(ctx context.Context, order Order, items []OrderItem) error {
	now := s.nowFunc()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.table,
		Item:                orderMap,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	})
	if err != nil {
		return fmt.Errorf("put order: %w", err)
	}

	transactItems := make([]types.TransactWriteItem, 0, len(items))
	for i := range items {
		items[i].OrderID = order.OrderID
		items[i].ItemIndex = i
		itemMap, merr := attributevalue.MarshalMap(items[i])
		if merr != nil {
			s.rollbackOrder(ctx, order.OrderID)
			return fmt.Errorf("marshal order item: %w", merr)
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName: &s.itemsTable,
				Item:      itemMap,
			},
		})
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		s.rollbackOrder(ctx, order.OrderID)
		return fmt.Errorf("put order items: %w", err)
	}
	return nil
}

// rollbackOrder is the compensating delete for a failed item write.
// Best-effort: a failed delete is logged, the original error still surfaces.
func (s *Store) rollbackOrder(ctx context.Context, orderID string) {
	_, derr := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.table,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if derr != nil {
		log.Printf("[orders] rollback delete failed for order=%s: %v", orderID, derr)
	}
}

// Get fetches an order by order_id. Returns ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.table,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// GetByPaymentID looks up the order linked to a gateway payment reference via
// the payment_id GSI. Exact string match, at most one row expected.
func (s *Store) GetByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.table,
		IndexName:              awsString(PaymentIDIndex),
		KeyConditionExpression: awsString("payment_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: paymentID},
		},
		Limit: awsInt32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query by payment_id: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, ErrNotFound
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Items[0], &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// SetStatus unconditionally sets the order status. Safe to call twice with
// the same target value.
func (s *Store) SetStatus(ctx context.Context, orderID, status string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.table,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new": &types.AttributeValueMemberS{Value: status},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// TransitionStatus conditionally updates the order status from expected to
// next. Returns ErrStatusMismatch if the order is not in the expected state,
// which is how concurrent webhook deliveries lose the claim race.
func (s *Store) TransitionStatus(ctx context.Context, orderID, expected, next string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.table,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: next},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":expected": &types.AttributeValueMemberS{Value: expected},
		},
		ConditionExpression: awsString("#s = :expected"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrStatusMismatch
		}
		// some SDK paths surface the failure as a generic API error
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrStatusMismatch
		}
		return fmt.Errorf("transition status: %w", err)
	}
	return nil
}

// SetPaymentID links the gateway-issued payment reference to the order.
func (s *Store) SetPaymentID(ctx context.Context, orderID, paymentID string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.table,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET payment_id = :pid, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: paymentID},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("set payment_id: %w", err)
	}
	return nil
}

// ListItems returns the order's line items in checkout submission order.
// The items table sorts by item_id (uuid), so rows are re-sorted here by the
// item_index persisted at creation.
func (s *Store) ListItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.itemsTable,
		KeyConditionExpression: awsString("order_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	items := make([]OrderItem, 0, len(out.Items))
	for _, raw := range out.Items {
		var it OrderItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, fmt.Errorf("unmarshal order item: %w", err)
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemIndex < items[j].ItemIndex })
	return items, nil
}

func awsString(s string) *string { return &s }
func awsInt32(n int32) *int32    { return &n }
