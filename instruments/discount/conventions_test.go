package discount

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvelib/marketdata"
	"github.com/meenmo/curvelib/rates"
)

func TestNodesFromQuoteSet(t *testing.T) {
	t.Parallel()

	nodes, err := USD.Nodes(marketdata.USDDiscountSample)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	dep, ok := nodes[0].(rates.DepositDefinition)
	require.True(t, ok)
	require.Equal(t, "1M", dep.Label)
	require.Equal(t, "ACT/360", dep.DayCount)
	require.Equal(t, 0.005, dep.Rate)

	swp, ok := nodes[2].(rates.SwapDefinition)
	require.True(t, ok)
	require.Equal(t, "5Y", swp.Label)
	require.Equal(t, 6, swp.FixedFreqMonths)
	require.Equal(t, 0.015, swp.Rate)

	for _, n := range nodes {
		require.Equal(t, "USD", n.NodeCurrency())
		require.Equal(t, 2, n.NodeSpotLag())
	}
}

func TestNodesCurrencyMismatch(t *testing.T) {
	t.Parallel()

	_, err := EUR.Nodes(marketdata.USDDiscountSample)
	require.Error(t, err)
}

func TestByCurrency(t *testing.T) {
	t.Parallel()

	m, ok := ByCurrency("EUR")
	require.True(t, ok)
	require.Equal(t, "eur-disc", m.CurveName)

	_, ok = ByCurrency("XXX")
	require.False(t, ok)
}

func TestPresetBootstrapsSample(t *testing.T) {
	t.Parallel()

	nodes, err := USD.Nodes(marketdata.USDDiscountSample)
	require.NoError(t, err)

	df, err := rates.Bootstrapper{}.Bootstrap(USD.Definition(), nodes, marketdata.SampleDate, rates.Options{})
	require.NoError(t, err)
	require.Equal(t, "usd-disc", df.Curve().Name())
	require.Equal(t, "USD", df.Currency())
}
