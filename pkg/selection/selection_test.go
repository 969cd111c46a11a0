package selection

import (
	"testing"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/fields"
	"github.com/stretchr/testify/require"
)

func TestCallSelectionMatch(t *testing.T) {
	t.Parallel()

	call := archive.Call{Name: "Balances.transfer"}

	require.True(t, CallSelection{Name: "Balances.transfer"}.Match(call))
	require.True(t, CallSelection{Name: "*"}.Match(call))
	require.False(t, CallSelection{Name: "Balances.deposit"}.Match(call))
}

func TestEvmLogSelectionMatch(t *testing.T) {
	t.Parallel()

	log := archive.EvmLog{
		Args: []byte(`{"address":"0xabc","topics":["0x1","0x2"]}`),
	}

	t.Run("wildcard contract, no filter", func(t *testing.T) {
		t.Parallel()
		s := EvmLogSelection{Contract: "*"}
		require.True(t, s.Match(log))
	})

	t.Run("exact contract match", func(t *testing.T) {
		t.Parallel()
		s := EvmLogSelection{Contract: "0xabc"}
		require.True(t, s.Match(log))
	})

	t.Run("contract mismatch", func(t *testing.T) {
		t.Parallel()
		s := EvmLogSelection{Contract: "0xdef"}
		require.False(t, s.Match(log))
	})

	t.Run("topic filter AND across positions, OR within a position", func(t *testing.T) {
		t.Parallel()
		s := EvmLogSelection{
			Contract: "*",
			Filter:   [][]string{{"0x1", "0x9"}, {"0x2"}},
		}
		require.True(t, s.Match(log))
	})

	t.Run("empty inner filter position matches anything", func(t *testing.T) {
		t.Parallel()
		s := EvmLogSelection{
			Contract: "*",
			Filter:   [][]string{{}, {"0x2"}},
		}
		require.True(t, s.Match(log))
	})

	t.Run("topic filter mismatch", func(t *testing.T) {
		t.Parallel()
		s := EvmLogSelection{
			Contract: "*",
			Filter:   [][]string{{"0xnope"}},
		}
		require.False(t, s.Match(log))
	})
}

func TestEthTransactSelectionMatch(t *testing.T) {
	t.Parallel()

	call := archive.Call{
		Args: []byte(`{"transaction":{"action":{"value":"0xcontract"}}}`),
	}
	require.True(t, EthTransactSelection{Contract: "0xcontract"}.Match(call))
	require.False(t, EthTransactSelection{Contract: "0xother"}.Match(call))

	nested := archive.Call{
		Args: []byte(`{"transaction":{"value":{"action":{"value":"0xnested"}}}}`),
	}
	require.True(t, EthTransactSelection{Contract: "0xnested"}.Match(nested))
}

func TestContractsEventSelectionMatch(t *testing.T) {
	t.Parallel()
	event := archive.Event{Args: []byte(`{"contract":"5Contract"}`)}
	require.True(t, ContractsEventSelection{Contract: "5Contract"}.Match(event))
	require.False(t, ContractsEventSelection{Contract: "5Other"}.Match(event))
}

func TestGearSelections(t *testing.T) {
	t.Parallel()

	enqueued := archive.Event{Args: []byte(`{"destination":"prog1"}`)}
	require.True(t, GearMessageEnqueuedSelection{Program: "prog1"}.Match(enqueued))
	require.False(t, GearMessageEnqueuedSelection{Program: "prog2"}.Match(enqueued))

	sent := archive.Event{Args: []byte(`{"message":{"source":"prog1"}}`)}
	require.True(t, GearUserMessageSentSelection{Program: "prog1"}.Match(sent))
	require.False(t, GearUserMessageSentSelection{Program: "prog2"}.Match(sent))
}

func TestAcalaEvmEventSelectionMatch(t *testing.T) {
	t.Parallel()

	event := archive.Event{
		Args: []byte(`{"logs":[{"address":"0xabc","topics":["0x1"]}]}`),
	}

	t.Run("bare contract match when no log filters given", func(t *testing.T) {
		t.Parallel()
		s := AcalaEvmEventSelection{Contract: "0xabc"}
		require.True(t, s.LogsEmpty())
		require.True(t, s.Match(event))
	})

	t.Run("log filter with topic must also match", func(t *testing.T) {
		t.Parallel()
		s := AcalaEvmEventSelection{
			Contract: "0xabc",
			Logs:     []AcalaEvmLog{{Filter: [][]string{{"0x1"}}}},
		}
		require.False(t, s.LogsEmpty())
		require.True(t, s.Match(event))
	})

	t.Run("log filter with mismatching topic fails", func(t *testing.T) {
		t.Parallel()
		s := AcalaEvmEventSelection{
			Contract: "0xabc",
			Logs:     []AcalaEvmLog{{Filter: [][]string{{"0xnope"}}}},
		}
		require.False(t, s.Match(event))
	})
}

func TestSelectionsCarryFieldPayload(t *testing.T) {
	t.Parallel()

	s := EventSelection{Name: "*", Data: fields.NewEventDataSelection(true)}
	require.True(t, s.Data.Event.Any())
}
