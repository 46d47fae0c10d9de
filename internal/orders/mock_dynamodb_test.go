package orders

import (
	"context"
	"errors"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory DynamoDB covering the calls the store
// makes. Items live per table keyed by order_id, with order items keyed by
// order_id + "/" + item_id. Not production-grade, just enough for the tests.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	failTransact bool
	failPut      bool
	failDelete   bool

	putCalls      int
	deleteCalls   int
	transactCalls int
	queryCalls    int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func (m *mockDynamo) ensureTable(tbl string) {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
}

func itemKey(item map[string]types.AttributeValue) (string, error) {
	oid, ok := item["order_id"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("no order_id in item")
	}
	if iid, ok := item["item_id"].(*types.AttributeValueMemberS); ok {
		return oid.Value + "/" + iid.Value, nil
	}
	return oid.Value, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.failPut {
		return nil, errors.New("injected put failure")
	}
	table := *params.TableName
	m.ensureTable(table)
	pk, err := itemKey(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(order_id)" {
		if _, exists := m.tables[table][pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.tables[table][pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	pk, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[table][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.failDelete {
		return nil, errors.New("injected delete failure")
	}
	table := *params.TableName
	m.ensureTable(table)
	pk, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}
	delete(m.tables[table], pk)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	pk, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := m.tables[table][pk]
	if !exists {
		return nil, errors.New("item not found")
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "#s = :expected" {
		curr, ok := item["status"].(*types.AttributeValueMemberS)
		if !ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
		expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value
		if curr.Value != expected {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	if v, ok := params.ExpressionAttributeValues[":new"]; ok {
		item["status"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":pid"]; ok {
		item["payment_id"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		item["updated_at"] = v
	}
	m.tables[table][pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	table := *params.TableName
	m.ensureTable(table)

	var out []map[string]types.AttributeValue
	if params.IndexName != nil && *params.IndexName == PaymentIDIndex {
		want := params.ExpressionAttributeValues[":pid"].(*types.AttributeValueMemberS).Value
		for _, item := range m.tables[table] {
			if pid, ok := item["payment_id"].(*types.AttributeValueMemberS); ok && pid.Value == want {
				out = append(out, item)
			}
		}
	} else {
		want := params.ExpressionAttributeValues[":oid"].(*types.AttributeValueMemberS).Value
		for _, item := range m.tables[table] {
			if oid, ok := item["order_id"].(*types.AttributeValueMemberS); ok && oid.Value == want {
				out = append(out, item)
			}
		}
	}
	return &dyn.QueryOutput{Items: out}, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactCalls++
	if m.failTransact {
		return nil, errors.New("injected transact failure")
	}
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			table := *p.TableName
			m.ensureTable(table)
			pk, err := itemKey(p.Item)
			if err != nil {
				return nil, err
			}
			m.tables[table][pk] = p.Item
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}
