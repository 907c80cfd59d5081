package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{25000, "Rp 25.000"},
		{1250000, "Rp 1.250.000"},
		{-18000, "-Rp 18.000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Currency(tt.amount), "Currency(%d)", tt.amount)
	}
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "1.000", Number(1000))
	assert.Equal(t, "12", Number(12))
}

func TestDate(t *testing.T) {
	d := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "Rabu, 1 Mei 2024", Date(d))

	d = time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Minggu, 31 Desember 2023", Date(d))
}

func TestTime(t *testing.T) {
	assert.Equal(t, "09.05", Time(time.Date(2024, 5, 1, 9, 5, 0, 0, time.UTC)))
	assert.Equal(t, "21.30", Time(time.Date(2024, 5, 1, 21, 30, 0, 0, time.UTC)))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("kasir@cafe.id"))
	assert.False(t, ValidEmail("kasir@cafe"))
	assert.False(t, ValidEmail("kasir cafe@x.id"))
	assert.False(t, ValidEmail(""))
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("081234567890"))
	assert.True(t, ValidPhone("0812-3456-7890"))
	assert.True(t, ValidPhone("+6281234567890"))
	assert.False(t, ValidPhone("12345"))
	assert.False(t, ValidPhone("08123456789012"))
	assert.False(t, ValidPhone("08abc4567890"))
}
