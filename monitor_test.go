package kinetic

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryOutputStream(t *testing.T) {
	var buf bytes.Buffer

	env := minimalEnv()
	sys, err := BuildSystem(env, DirectSum{})
	require.NoError(t, err)

	mon := NewBinaryOutput(&buf, Every(2, 0))
	integ := NewVelocityVerlet(sys, mon)
	require.NoError(t, integ.RunForSteps(0.1, 4))
	require.NoError(t, mon.Err())

	r := bytes.NewReader(buf.Bytes())

	var magic, version uint32
	require.NoError(t, binary.Read(r, binary.LittleEndian, &magic))
	require.NoError(t, binary.Read(r, binary.LittleEndian, &version))
	assert.Equal(t, snapshotMagic, magic)
	assert.Equal(t, snapshotVersion, version)

	var runID [16]byte
	require.NoError(t, binary.Read(r, binary.LittleEndian, &runID))
	assert.NotEqual(t, [16]byte{}, runID, "run id must be set")

	var dt float64
	var steps uint64
	require.NoError(t, binary.Read(r, binary.LittleEndian, &dt))
	require.NoError(t, binary.Read(r, binary.LittleEndian, &steps))
	assert.Equal(t, 0.1, dt)
	assert.Equal(t, uint64(4), steps)

	// trigger fires on steps 0 and 2: two frames of two particles
	for frame := 0; frame < 2; frame++ {
		var step uint64
		var tm float64
		var count uint64
		require.NoError(t, binary.Read(r, binary.LittleEndian, &step))
		require.NoError(t, binary.Read(r, binary.LittleEndian, &tm))
		require.NoError(t, binary.Read(r, binary.LittleEndian, &count))
		assert.Equal(t, uint64(2), count)

		// 2 particles * (4+2+2 bytes header + 10 float64s)
		particleBytes := make([]byte, 2*(4+2+2+10*8))
		_, err := r.Read(particleBytes)
		require.NoError(t, err)
	}

	assert.Zero(t, r.Len(), "no trailing bytes expected")
}

type recordingLogger struct {
	nopLogger
	infos int
}

func (l *recordingLogger) Infof(format string, args ...any) { l.infos++ }

func TestTerminalAndProgressMonitors(t *testing.T) {
	env := minimalEnv()
	sys, err := BuildSystem(env, DirectSum{})
	require.NoError(t, err)

	log := &recordingLogger{}
	integ := NewVelocityVerlet(sys,
		NewTerminalOutput(log, Every(1, 0)),
		NewProgressMonitor(log, Every(5, 0)),
	)
	require.NoError(t, integ.RunForSteps(0.1, 10))

	// 10 terminal lines + progress at steps 0 and 5
	assert.Equal(t, 12, log.infos)
}

func TestMonitorBaseDefaults(t *testing.T) {
	m := MonitorBase{}
	if !m.Trigger()(TriggerContext{}) {
		t.Errorf("nil trigger defaults to Always")
	}
	// the no-op hooks must be callable
	m.Init(0.1, 0, 1, 10)
	m.BeforeStep(nil)
	m.Record(nil)
	m.Finalize()
}
