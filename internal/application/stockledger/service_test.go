package stockledger_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ferrepos-core/internal/application/stockledger"
	"github.com/jhoicas/ferrepos-core/internal/domain"
	"github.com/jhoicas/ferrepos-core/internal/domain/entity"
	"github.com/jhoicas/ferrepos-core/pkg/logger"
)

const (
	productA   = "prod-a"
	locCentral = "suc-central"
	locNorte   = "suc-norte"
	actor      = "user-1"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newLedger(t *testing.T) (*stockledger.Service, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := stockledger.NewService(
		&memTxRunner{store},
		&memStockRepo{store},
		&memMovementRepo{store},
		logger.Nop(),
	)
	return svc, store
}

// seed deja existencias iniciales vía una entrada normal del ledger.
func seed(t *testing.T, svc *stockledger.Service, productID, locationID, qty, cost string) {
	t.Helper()
	unitCost := dec(cost)
	_, err := svc.RecordMovement(context.Background(), stockledger.MovementInput{
		ProductID:  productID,
		LocationID: locationID,
		Kind:       entity.MovementInflow,
		Quantity:   dec(qty),
		UnitCost:   &unitCost,
		Reference:  "OC-SEED",
		ActorID:    actor,
	})
	require.NoError(t, err)
}

func TestRecordMovementEntradaYSalida(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	seed(t, svc, productA, locCentral, "10", "100")

	mov, err := svc.RecordMovement(ctx, stockledger.MovementInput{
		ProductID:  productA,
		LocationID: locCentral,
		Kind:       entity.MovementOutflow,
		Quantity:   dec("4"),
		Reference:  "GUIA-1",
		ActorID:    actor,
	})
	require.NoError(t, err)

	assert.True(t, mov.Quantity.Equal(dec("-4")), "la salida queda con signo negativo")
	assert.True(t, mov.QuantityBefore.Equal(dec("10")))
	assert.True(t, mov.QuantityAfter.Equal(dec("6")))

	avail, err := svc.GetAvailability(ctx, productA, locCentral)
	require.NoError(t, err)
	assert.True(t, avail.OnHand.Equal(dec("6")))
}

func TestRecordMovementRechazaStockNegativo(t *testing.T) {
	svc, _ := newLedger(t)
	seed(t, svc, productA, locCentral, "3", "100")

	_, err := svc.RecordMovement(context.Background(), stockledger.MovementInput{
		ProductID:  productA,
		LocationID: locCentral,
		Kind:       entity.MovementSale,
		Quantity:   dec("5"),
		ActorID:    actor,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), productA, "el error nombra al producto")

	avail, err := svc.GetAvailability(context.Background(), productA, locCentral)
	require.NoError(t, err)
	assert.True(t, avail.OnHand.Equal(dec("3")), "la existencia no cambió")
}

func TestRecordMovementRecalculaCostoPromedio(t *testing.T) {
	svc, store := newLedger(t)
	seed(t, svc, productA, locCentral, "10", "100")
	seed(t, svc, productA, locCentral, "10", "200")

	stock := store.stocks[stockKey(productA, locCentral)]
	assert.True(t, stock.AverageCost.Equal(dec("150")), "got %s", stock.AverageCost)
}

func TestRecordMovementValidaciones(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, stockledger.MovementInput{
		ProductID: productA, LocationID: locCentral, Kind: "teletransporte",
		Quantity: dec("1"), ActorID: actor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.RecordMovement(ctx, stockledger.MovementInput{
		ProductID: productA, LocationID: locCentral, Kind: entity.MovementInflow,
		Quantity: dec("-1"), ActorID: actor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.RecordMovement(ctx, stockledger.MovementInput{
		ProductID: productA, LocationID: locCentral, Kind: entity.MovementAdjustment,
		Quantity: decimal.Zero, ActorID: actor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "un ajuste de cero no ensucia el ledger")
}

func TestVentasConcurrentesNoSobrevenden(t *testing.T) {
	svc, _ := newLedger(t)
	seed(t, svc, productA, locCentral, "10", "100")

	var sold, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordMovement(context.Background(), stockledger.MovementInput{
				ProductID:  productA,
				LocationID: locCentral,
				Kind:       entity.MovementSale,
				Quantity:   dec("1"),
				ActorID:    actor,
			})
			if err == nil {
				sold.Add(1)
			} else {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), sold.Load(), "se venden exactamente las existencias")
	assert.Equal(t, int64(15), rejected.Load())

	avail, err := svc.GetAvailability(context.Background(), productA, locCentral)
	require.NoError(t, err)
	assert.True(t, avail.OnHand.IsZero())
}

func TestTransferMueveEntreSucursales(t *testing.T) {
	svc, store := newLedger(t)
	ctx := context.Background()
	seed(t, svc, productA, locCentral, "10", "100")

	ref, err := svc.Transfer(ctx, stockledger.TransferInput{
		ProductID:      productA,
		FromLocationID: locCentral,
		ToLocationID:   locNorte,
		Quantity:       dec("4"),
		ActorID:        actor,
	})
	require.NoError(t, err)
	require.NotEmpty(t, ref)

	origin, _ := svc.GetAvailability(ctx, productA, locCentral)
	dest, _ := svc.GetAvailability(ctx, productA, locNorte)
	assert.True(t, origin.OnHand.Equal(dec("6")))
	assert.True(t, dest.OnHand.Equal(dec("4")))

	// Dos asientos comparten la misma referencia
	var withRef int
	for _, m := range store.movements {
		if m.Reference == ref {
			withRef++
		}
	}
	assert.Equal(t, 2, withRef)
}

func TestTransferInsuficienteNoMueveNada(t *testing.T) {
	svc, store := newLedger(t)
	seed(t, svc, productA, locCentral, "2", "100")
	before := len(store.movements)

	_, err := svc.Transfer(context.Background(), stockledger.TransferInput{
		ProductID:      productA,
		FromLocationID: locCentral,
		ToLocationID:   locNorte,
		Quantity:       dec("5"),
		ActorID:        actor,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Len(t, store.movements, before, "ningún asiento en ninguna sucursal")
}

func TestTransferMismaSucursal(t *testing.T) {
	svc, _ := newLedger(t)
	_, err := svc.Transfer(context.Background(), stockledger.TransferInput{
		ProductID:      productA,
		FromLocationID: locCentral,
		ToLocationID:   locCentral,
		Quantity:       dec("1"),
		ActorID:        actor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjustRegistraElDelta(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	seed(t, svc, productA, locCentral, "10", "100")

	// El conteo físico encontró 7: delta -3
	mov, err := svc.Adjust(ctx, stockledger.AdjustInput{
		ProductID:       productA,
		LocationID:      locCentral,
		CountedQuantity: dec("7"),
		ActorID:         actor,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementAdjustment, mov.Kind)
	assert.True(t, mov.Quantity.Equal(dec("-3")))

	avail, _ := svc.GetAvailability(ctx, productA, locCentral)
	assert.True(t, avail.OnHand.Equal(dec("7")))

	// Contar lo mismo que hay no genera asiento
	_, err = svc.Adjust(ctx, stockledger.AdjustInput{
		ProductID:       productA,
		LocationID:      locCentral,
		CountedQuantity: dec("7"),
		ActorID:         actor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReconcileLedgerCuadraConExistencias(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()
	seed(t, svc, productA, locCentral, "10", "100")

	_, err := svc.RecordMovement(ctx, stockledger.MovementInput{
		ProductID: productA, LocationID: locCentral,
		Kind: entity.MovementSale, Quantity: dec("3"), ActorID: actor,
	})
	require.NoError(t, err)
	_, err = svc.RecordMovement(ctx, stockledger.MovementInput{
		ProductID: productA, LocationID: locCentral,
		Kind: entity.MovementReturn, Quantity: dec("1"), ActorID: actor,
	})
	require.NoError(t, err)

	rec, err := svc.Reconcile(ctx, productA, locCentral)
	require.NoError(t, err)
	assert.True(t, rec.Balanced, "suma del ledger %s vs existencia %s", rec.LedgerSum, rec.OnHand)
	assert.True(t, rec.OnHand.Equal(dec("8")))
}
