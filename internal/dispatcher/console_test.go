package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chrissnell/vantaged/internal/network"
	"github.com/chrissnell/vantaged/internal/protocol"
	"github.com/chrissnell/vantaged/internal/transport"
)

func scriptedFake(script map[string][]byte) *transport.Fake {
	return transport.NewFake(func(written []byte) []byte {
		if reply, ok := script[string(written)]; ok {
			return reply
		}
		return nil
	})
}

func TestQueryFirmwareEndToEnd(t *testing.T) {
	fake := scriptedFake(map[string][]byte{
		"\n":    []byte("\n\r"),
		"VER\n": []byte("\n\rOK\n\rApr 27 2023\n\r"),
	})
	eng := protocol.New(fake, testLogger())

	d := New(testLogger())
	RegisterConsoleHandlers(d, ConsoleDeps{Engine: eng})
	d.Start(context.Background())

	resp := d.Dispatch(context.Background(), Request{Command: "query-firmware"})
	require.Equal(t, ResultSuccess, resp.Result)
	require.Equal(t, "Apr 27 2023", resp.Data.(map[string]string)["firmwareDate"])
}

func TestBacklightMissingStateArgument(t *testing.T) {
	d := New(testLogger())
	RegisterConsoleHandlers(d, ConsoleDeps{Engine: protocol.New(transport.NewFake(nil), testLogger())})
	d.Start(context.Background())

	resp := d.Dispatch(context.Background(), Request{Command: "backlight"})
	require.Equal(t, ResultFailure, resp.Result)
	require.Contains(t, resp.Data.(map[string]string)["error"], "missing state")
}

func TestBacklightInvalidStateArgument(t *testing.T) {
	d := New(testLogger())
	RegisterConsoleHandlers(d, ConsoleDeps{Engine: protocol.New(transport.NewFake(nil), testLogger())})
	d.Start(context.Background())

	resp := d.Dispatch(context.Background(), Request{Command: "backlight", Arguments: Arguments{{"state": "dim"}}})
	require.Equal(t, ResultFailure, resp.Result)
	require.Contains(t, resp.Data.(map[string]string)["error"], "invalid state")
}

func TestUpdateArchivePeriodRejectsNonNumericPeriod(t *testing.T) {
	d := New(testLogger())
	RegisterConsoleHandlers(d, ConsoleDeps{Engine: protocol.New(transport.NewFake(nil), testLogger())})
	d.Start(context.Background())

	resp := d.Dispatch(context.Background(), Request{Command: "update-archive-period", Arguments: Arguments{{"period": "often"}}})
	require.Equal(t, ResultFailure, resp.Result)
	require.Contains(t, resp.Data.(map[string]string)["error"], "not a number")
}

func TestQueryNetworkOnlyRegisteredWhenInventoryPresent(t *testing.T) {
	eng := protocol.New(transport.NewFake(nil), testLogger())

	withoutInventory := New(testLogger())
	RegisterConsoleHandlers(withoutInventory, ConsoleDeps{Engine: eng})
	withoutInventory.Start(context.Background())
	resp := withoutInventory.Dispatch(context.Background(), Request{Command: "query-network"})
	require.Equal(t, ResultFailure, resp.Result)

	inv := &network.Inventory{}
	inv.Stations[0] = network.Station{Type: network.Anemometer, Channel: 1}
	withInventory := New(testLogger())
	RegisterConsoleHandlers(withInventory, ConsoleDeps{Engine: eng, Inventory: inv})
	withInventory.Start(context.Background())
	resp = withInventory.Dispatch(context.Background(), Request{Command: "query-network"})
	require.Equal(t, ResultSuccess, resp.Result)
}
