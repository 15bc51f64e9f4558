package drive

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestPortOptions_Normalize_Defaults(t *testing.T) {
	got, err := PortOptions{}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, 115200, got.BaudRate)
	assert.Equal(t, 8, got.DataBits)
	assert.Equal(t, 1, got.StopBits)
	assert.Equal(t, "N", got.Parity)
	assert.Equal(t, time.Second, got.ReadTimeout)
}

func TestPortOptions_Normalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"data bits", PortOptions{DataBits: 9}},
		{"stop bits", PortOptions{StopBits: 3}},
		{"parity", PortOptions{Parity: "mark"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Normalize()
			assert.Error(t, err)
		})
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	mode, err := PortOptions{StopBits: 2, Parity: "even"}.SerialMode()
	require.NoError(t, err)

	assert.Equal(t, 115200, mode.BaudRate)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
	assert.Equal(t, serial.EvenParity, mode.Parity)
}

func TestDriver_Start(t *testing.T) {
	port := NewFakePort()
	d := NewDriver(port)

	require.NoError(t, d.Start())
	assert.Equal(t, []byte{128, 131}, port.Written())
}

func TestDriver_Drive(t *testing.T) {
	port := NewFakePort()
	d := NewDriver(port)

	require.NoError(t, d.Drive(0, 50))
	assert.Equal(t, EncodeDrive(0, 50), port.LastWrite())
	assert.Equal(t, uint64(1), d.Stats().Commands)
}

func TestDriver_Mode(t *testing.T) {
	port := NewFakePort()
	d := NewDriver(port)

	require.NoError(t, d.Mode("beep"))
	assert.Equal(t, []byte{140, 3, 1, 64, 16, 141, 3}, port.LastWrite())

	err := d.Mode("warp")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestDriver_Heading(t *testing.T) {
	port := NewFakePort()
	port.Respond([]byte{0xFF, 0xFB})
	d := NewDriver(port)

	h, err := d.Heading()
	require.NoError(t, err)
	assert.Equal(t, int16(-5), h.Degrees)
	assert.Equal(t, []byte{142, 20}, port.LastWrite())
	assert.Equal(t, uint64(1), d.Stats().HeadingReads)
}

func TestDriver_HeadingShortRead(t *testing.T) {
	port := NewFakePort()
	port.Respond([]byte{0x05})
	d := NewDriver(port)

	_, err := d.Heading()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShortRead)

	var de *DecodeError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, uint64(1), d.Stats().Failures)
}

func TestDriver_HeadingTimeout(t *testing.T) {
	d := NewDriver(NewFakePort())

	_, err := d.Heading()
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestDriver_HeadingLateByteAfterShortRead(t *testing.T) {
	port := NewFakePort()
	port.Respond([]byte{0xFF})
	d := NewDriver(port)

	_, err := d.Heading()
	require.ErrorIs(t, err, ErrShortRead)

	// The rest of the first reply turns up before the next query
	port.Arrive([]byte{0xFB})
	port.AutoHeading = []byte{0x00, 0x05}

	h, err := d.Heading()
	require.NoError(t, err)
	assert.Equal(t, int16(5), h.Degrees)
	assert.Equal(t, uint64(1), d.Stats().HeadingReads)
}

func TestDriver_HeadingFlushesBeforeQuery(t *testing.T) {
	port := NewFakePort()
	port.Arrive([]byte{0x7F, 0x7F, 0x7F})
	port.Respond([]byte{0x00, 0x0A})
	d := NewDriver(port)

	h, err := d.Heading()
	require.NoError(t, err)
	assert.Equal(t, int16(10), h.Degrees)
	assert.GreaterOrEqual(t, port.Flushes, 1)
}

func TestDriver_WriteError(t *testing.T) {
	port := NewFakePort()
	port.WriteError = errors.New("unplugged")
	d := NewDriver(port)

	err := d.Drive(100, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unplugged")
	assert.Equal(t, uint64(1), d.Stats().Failures)
}

func TestDriver_CloseStopsAndIsIdempotent(t *testing.T) {
	port := NewFakePort()
	d := NewDriver(port)

	require.NoError(t, d.Drive(200, 0))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.Equal(t, EncodeDrive(0, 0), port.LastWrite())
	assert.True(t, port.Closed)
	assert.ErrorIs(t, d.Drive(1, 1), ErrClosed)
}

func TestDriver_ConcurrentAccessDoesNotInterleave(t *testing.T) {
	port := NewFakePort()
	port.AutoHeading = []byte{0x00, 0x01}
	d := NewDriver(port)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = d.Drive(100, 10)
		}()
		go func() {
			defer wg.Done()
			h, err := d.Heading()
			assert.NoError(t, err)
			assert.Equal(t, int16(1), h.Degrees)
		}()
	}
	wg.Wait()

	// Every write is a whole command
	for _, w := range port.Writes {
		if len(w) != 5 && len(w) != 2 {
			t.Fatalf("unexpected write %v", w)
		}
	}
	assert.Equal(t, uint64(20), d.Stats().HeadingReads)
}
