package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    OrderStatus
		wantErr bool
	}{
		{"pending", OrderPending, false},
		{" Ready ", OrderReady, false},
		{"CANCELLED", OrderCancelled, false},
		{"shipped", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrderStatus(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransitionTo(OrderConfirmed))
	assert.True(t, OrderReady.CanTransitionTo(OrderCompleted))
	assert.False(t, OrderCompleted.CanTransitionTo(OrderPending))
	assert.False(t, OrderCancelled.CanTransitionTo(OrderReady))
	assert.False(t, OrderPending.CanTransitionTo(OrderCompleted))

	assert.True(t, OrderCompleted.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderPreparing.Terminal())
}

func TestLineItemValidate(t *testing.T) {
	require.NoError(t, LineItem{Name: "Kopi Susu", Quantity: 1, UnitPrice: 0}.Validate())
	assert.ErrorIs(t, LineItem{Name: "Kopi", Quantity: 0, UnitPrice: 1}.Validate(), ErrInvalidQuantity)
	assert.ErrorIs(t, LineItem{Name: "Kopi", Quantity: 1, UnitPrice: -5}.Validate(), ErrInvalidPrice)
	assert.ErrorIs(t, LineItem{Name: " ", Quantity: 1}.Validate(), ErrMissingName)
}

func TestLineItemsTotal(t *testing.T) {
	items := []LineItem{
		{Name: "Kopi Susu", Quantity: 2, UnitPrice: 18000},
		{Name: "Croissant", Quantity: 1, UnitPrice: 25000},
	}
	assert.Equal(t, int64(61000), LineItemsTotal(items))
	assert.Equal(t, int64(0), LineItemsTotal(nil))
}

func TestOrderDisplayNumber(t *testing.T) {
	assert.Equal(t, "ORD-0042", Order{ID: 42, OrderNumber: "ORD-0042"}.DisplayNumber())
	assert.Equal(t, "42", Order{ID: 42}.DisplayNumber())
}

func TestOrderJSONUsesColumnNames(t *testing.T) {
	data, err := json.Marshal(Order{ID: 1, TotalAmount: 5000, Status: OrderPending})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_amount":5000`)
	assert.NotContains(t, string(data), `"totalAmount"`)
}

func TestNewOrderValidate(t *testing.T) {
	valid := NewOrder{CustomerName: "Sari", Total: 18000, Items: []LineItem{{Name: "Kopi", Quantity: 1, UnitPrice: 18000}}}
	require.NoError(t, valid.Validate())

	noName := valid
	noName.CustomerName = ""
	assert.ErrorIs(t, noName.Validate(), ErrMissingCustomer)

	badItem := valid
	badItem.Items = []LineItem{{Name: "Kopi", Quantity: 0}}
	assert.ErrorIs(t, badItem.Validate(), ErrInvalidQuantity)
}
