package kinetic

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// Monitor observes the simulation without mutating it. Record runs after
// each triggered step; BeforeStep before it.
type Monitor interface {
	Trigger() Trigger
	Init(dt, tStart, tEnd float64, steps int)
	BeforeStep(sys *System)
	Record(sys *System)
	Finalize()
}

// MonitorBase provides no-op hooks so concrete monitors only implement
// what they observe.
type MonitorBase struct {
	Trig Trigger
}

func (m MonitorBase) Trigger() Trigger {
	if m.Trig == nil {
		return Always()
	}
	return m.Trig
}

func (MonitorBase) Init(dt, tStart, tEnd float64, steps int) {}
func (MonitorBase) BeforeStep(*System)                       {}
func (MonitorBase) Record(*System)                           {}
func (MonitorBase) Finalize()                                {}

// TerminalOutput logs a compact state line through the engine logger.
type TerminalOutput struct {
	MonitorBase
	Log Logger
}

func NewTerminalOutput(log Logger, trigger Trigger) *TerminalOutput {
	return &TerminalOutput{MonitorBase: MonitorBase{Trig: trigger}, Log: log}
}

func (m *TerminalOutput) Record(sys *System) {
	m.Log.Infof("step %d  t=%.6g  particles=%d", sys.Step(), sys.Time(), sys.Size())
}

// ProgressMonitor logs completion percentage.
type ProgressMonitor struct {
	MonitorBase
	Log   Logger
	steps int
}

func NewProgressMonitor(log Logger, trigger Trigger) *ProgressMonitor {
	return &ProgressMonitor{MonitorBase: MonitorBase{Trig: trigger}, Log: log}
}

func (m *ProgressMonitor) Init(dt, tStart, tEnd float64, steps int) {
	m.steps = steps
}

func (m *ProgressMonitor) Record(sys *System) {
	if m.steps == 0 {
		return
	}
	pct := 100.0 * float64(sys.Step()+1) / float64(m.steps)
	m.Log.Infof("progress %5.1f%% (step %d/%d)", pct, sys.Step()+1, m.steps)
}

const (
	snapshotMagic   = uint32(0x4b494e45) // "KINE"
	snapshotVersion = uint32(1)
)

// BinaryOutput writes fixed-layout little-endian snapshots of all
// particles on every triggered step. Each run is tagged with a fresh
// uuid in the stream header.
type BinaryOutput struct {
	MonitorBase

	w     io.Writer
	buf   *bufio.Writer
	file  *os.File
	runID uuid.UUID
	dt    float64
	steps int
	err   error
}

func NewBinaryOutput(w io.Writer, trigger Trigger) *BinaryOutput {
	return &BinaryOutput{
		MonitorBase: MonitorBase{Trig: trigger},
		w:           w,
		runID:       uuid.New(),
	}
}

// NewBinaryOutputFile writes snapshots to path, truncating it.
func NewBinaryOutputFile(path string, trigger Trigger) (*BinaryOutput, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create snapshot file: %w", err)
	}
	m := NewBinaryOutput(f, trigger)
	m.file = f
	return m, nil
}

func (m *BinaryOutput) Init(dt, tStart, tEnd float64, steps int) {
	m.dt = dt
	m.steps = steps
	m.buf = bufio.NewWriter(m.w)

	m.write(snapshotMagic)
	m.write(snapshotVersion)
	id := m.runID
	m.writeBytes(id[:])
	m.write(m.dt)
	m.write(uint64(m.steps))
}

func (m *BinaryOutput) Record(sys *System) {
	if m.err != nil {
		return
	}

	records := sys.ExportParticles()
	m.write(uint64(sys.Step()))
	m.write(sys.Time())
	m.write(uint64(len(records)))
	for _, r := range records {
		m.write(uint32(r.ID))
		m.write(uint16(r.Type))
		m.write(uint16(r.State))
		m.write(r.Mass)
		m.writeVec(r.Position)
		m.writeVec(r.Velocity)
		m.writeVec(r.Force)
	}
}

func (m *BinaryOutput) Finalize() {
	if m.buf != nil {
		if err := m.buf.Flush(); err != nil && m.err == nil {
			m.err = err
		}
	}
	if m.file != nil {
		_ = m.file.Close()
	}
}

// Err reports the first write failure, if any.
func (m *BinaryOutput) Err() error { return m.err }

func (m *BinaryOutput) write(v any) {
	if m.err != nil {
		return
	}
	m.err = binary.Write(m.buf, binary.LittleEndian, v)
}

func (m *BinaryOutput) writeBytes(b []byte) {
	if m.err != nil {
		return
	}
	_, m.err = m.buf.Write(b)
}

func (m *BinaryOutput) writeVec(v [3]float64) {
	m.write(v[0])
	m.write(v[1])
	m.write(v[2])
}
