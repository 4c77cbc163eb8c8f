package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/ferrepos-core/internal/domain/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAverageCostPromedioPonderado(t *testing.T) {
	// 10 unidades a $100 más 10 entrantes a $200 = promedio $150
	got := ledger.AverageCost(d("10"), d("100"), d("10"), d("200"))
	assert.True(t, got.Equal(d("150")), "got %s", got)
}

func TestAverageCostPrimeraEntrada(t *testing.T) {
	// Sin stock previo, el promedio es el costo de la entrada
	got := ledger.AverageCost(d("0"), d("0"), d("5"), d("1234.56"))
	assert.True(t, got.Equal(d("1234.56")), "got %s", got)
}

func TestAverageCostSinCantidades(t *testing.T) {
	got := ledger.AverageCost(d("0"), d("0"), d("0"), d("100"))
	assert.True(t, got.IsZero())
}
