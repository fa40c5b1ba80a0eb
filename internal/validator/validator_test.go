package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type cardInput struct {
	Number string `validate:"card_number"`
	Expiry string `validate:"card_expiry"`
	CVV    string `validate:"cvv"`
}

func TestCardValidation(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		input   cardInput
		wantErr bool
	}{
		{
			name:  "valid card",
			input: cardInput{Number: "4242424242424242", Expiry: "12/30", CVV: "123"},
		},
		{
			name:  "valid card with spaces and 4 digit cvv",
			input: cardInput{Number: "4242 4242 4242 4242", Expiry: "01/29", CVV: "1234"},
		},
		{
			name:    "number too short",
			input:   cardInput{Number: "424242424242", Expiry: "12/30", CVV: "123"},
			wantErr: true,
		},
		{
			name:    "number with letters",
			input:   cardInput{Number: "4242abcd42424242", Expiry: "12/30", CVV: "123"},
			wantErr: true,
		},
		{
			name:    "expiry in the past",
			input:   cardInput{Number: "4242424242424242", Expiry: "01/20", CVV: "123"},
			wantErr: true,
		},
		{
			name:    "expiry month out of range",
			input:   cardInput{Number: "4242424242424242", Expiry: "13/30", CVV: "123"},
			wantErr: true,
		},
		{
			name:    "expiry without slash",
			input:   cardInput{Number: "4242424242424242", Expiry: "1230", CVV: "123"},
			wantErr: true,
		},
		{
			name:    "cvv too long",
			input:   cardInput{Number: "4242424242424242", Expiry: "12/30", CVV: "12345"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type seatInput struct {
	Number string `validate:"seat_number"`
}

func TestSeatNumberValidation(t *testing.T) {
	v := NewValidator()

	valid := []string{"A1", "B12", "Z9"}
	for _, number := range valid {
		assert.NoError(t, v.Struct(seatInput{Number: number}), number)
	}

	invalid := []string{"", "1A", "a1", "A123", "AA1"}
	for _, number := range invalid {
		assert.Error(t, v.Struct(seatInput{Number: number}), number)
	}
}
