package asm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Binary artifact file format
// ============================
//
// Header (8 bytes):
//   - Magic number: "STC\x00" (4 bytes)
//   - Version major/minor/patch: uint8 x3
//   - Reserved: uint8
//
// Body: a sequence of typed, length-prefixed segments:
//   - tag: uint8 (segTask, segDebug)
//   - length: uint32 little-endian
//   - payload: length bytes
//
// The CODE segment carries no tag byte: it is written immediately after
// the header as a bare length-prefixed blob, always present and always
// first, so readers can locate task/debug data without scanning past an
// unbounded code stream.
//
// Grounded on the teacher's internal/bytecode/serializer.go magic +
// version + length-prefixed-segment idiom, generalized from one "chunk"
// blob to this format's CODE/TASK/DEBUG segment set.
const (
	MagicNumber = "STC\x00"

	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
)

type segmentTag uint8

const (
	segTask segmentTag = iota + 1
	segDebug
)

// ArtifactVersion identifies the binary artifact format revision.
type ArtifactVersion struct {
	Major, Minor, Patch uint8
}

func (v ArtifactVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsCompatible reports whether this reader's version can load an
// artifact written at other: major must match exactly, and this reader
// must not be older than the artifact it's loading.
func (v ArtifactVersion) IsCompatible(other ArtifactVersion) bool {
	if v.Major != other.Major {
		return false
	}
	return other.Minor <= v.Minor
}

// CurrentArtifactVersion returns the version this package writes.
func CurrentArtifactVersion() ArtifactVersion {
	return ArtifactVersion{Major: VersionMajor, Minor: VersionMinor, Patch: VersionPatch}
}

// TaskRecord is one entry of a project's TASK segment: a scheduled
// execution unit bound to one entry program's relocated entry point.
type TaskRecord struct {
	ID                 string
	Type               string
	Priority           int32
	IntervalMicros     int32
	EntryPoint         int32
	StackSize          int32
}

// Artifact is the fully assembled, relocated output ready to serialize:
// CODE plus an optional TASK table and optional DEBUG map.
type Artifact struct {
	Code     []byte
	Tasks    []TaskRecord
	DebugMap []DebugEntry // PC is relative to the final, relocated CODE segment.
}

// Serializer writes and reads the binary artifact format.
type Serializer struct {
	version ArtifactVersion
}

// NewSerializer returns a Serializer at the current artifact version.
func NewSerializer() *Serializer {
	return &Serializer{version: CurrentArtifactVersion()}
}

// Write encodes art as a binary artifact.
func (s *Serializer) Write(art *Artifact) ([]byte, error) {
	buf := new(bytes.Buffer)

	if err := s.writeHeader(buf); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := writeBlob(buf, art.Code); err != nil {
		return nil, fmt.Errorf("failed to write code segment: %w", err)
	}

	if len(art.Tasks) > 0 {
		payload, err := encodeTasks(art.Tasks)
		if err != nil {
			return nil, fmt.Errorf("failed to encode task segment: %w", err)
		}
		if err := writeSegment(buf, segTask, payload); err != nil {
			return nil, fmt.Errorf("failed to write task segment: %w", err)
		}
	}

	if len(art.DebugMap) > 0 {
		payload := encodeDebugMap(art.DebugMap)
		if err := writeSegment(buf, segDebug, payload); err != nil {
			return nil, fmt.Errorf("failed to write debug segment: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// Read decodes a binary artifact produced by Write.
func (s *Serializer) Read(data []byte) (*Artifact, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("artifact too short: expected at least 8 bytes, got %d", len(data))
	}

	r := bytes.NewReader(data)
	version, err := s.readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if !s.version.IsCompatible(version) {
		return nil, fmt.Errorf("incompatible artifact version: have %s, artifact is %s", s.version, version)
	}

	code, err := readBlob(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read code segment: %w", err)
	}
	art := &Artifact{Code: code}

	for {
		tag, payload, err := readSegment(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read segment: %w", err)
		}
		switch segmentTag(tag) {
		case segTask:
			tasks, err := decodeTasks(payload)
			if err != nil {
				return nil, fmt.Errorf("failed to decode task segment: %w", err)
			}
			art.Tasks = tasks
		case segDebug:
			art.DebugMap = decodeDebugMap(payload)
		default:
			return nil, fmt.Errorf("unknown segment tag %d", tag)
		}
	}

	return art, nil
}

func (s *Serializer) writeHeader(w io.Writer) error {
	if _, err := w.Write([]byte(MagicNumber)); err != nil {
		return err
	}
	for _, b := range []uint8{s.version.Major, s.version.Minor, s.version.Patch, 0} {
		if err := binary.Write(w, binary.LittleEndian, b); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readHeader(r io.Reader) (ArtifactVersion, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return ArtifactVersion{}, err
	}
	if string(magic) != MagicNumber {
		return ArtifactVersion{}, fmt.Errorf("bad magic number: %q", magic)
	}
	var rest [4]byte
	if _, err := io.ReadFull(r, rest[:]); err != nil {
		return ArtifactVersion{}, err
	}
	return ArtifactVersion{Major: rest[0], Minor: rest[1], Patch: rest[2]}, nil
}

func writeSegment(w io.Writer, tag segmentTag, payload []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint8(tag)); err != nil {
		return err
	}
	return writeBlob(w, payload)
}

func readSegment(r io.Reader) (uint8, []byte, error) {
	var tag uint8
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return 0, nil, err
	}
	payload, err := readBlob(r)
	return tag, payload, err
}

func writeBlob(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readBlob(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	return writeBlob(buf, []byte(s))
}

func readString(r io.Reader) (string, error) {
	data, err := readBlob(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encodeTasks(tasks []TaskRecord) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(tasks))); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if err := writeString(buf, t.ID); err != nil {
			return nil, err
		}
		if err := writeString(buf, t.Type); err != nil {
			return nil, err
		}
		for _, v := range []int32{t.Priority, t.IntervalMicros, t.EntryPoint, t.StackSize} {
			if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

func decodeTasks(data []byte) ([]TaskRecord, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	tasks := make([]TaskRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err := readString(r)
		if err != nil {
			return nil, err
		}
		typ, err := readString(r)
		if err != nil {
			return nil, err
		}
		var priority, interval, entry, stack int32
		for _, v := range []*int32{&priority, &interval, &entry, &stack} {
			if err := binary.Read(r, binary.LittleEndian, v); err != nil {
				return nil, err
			}
		}
		tasks = append(tasks, TaskRecord{
			ID: id, Type: typ, Priority: priority,
			IntervalMicros: interval, EntryPoint: entry, StackSize: stack,
		})
	}
	return tasks, nil
}

func encodeDebugMap(entries []DebugEntry) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint32(len(entries)))
	for _, e := range entries {
		binary.Write(buf, binary.LittleEndian, int32(e.PC))
		binary.Write(buf, binary.LittleEndian, int32(e.Line))
	}
	return buf.Bytes()
}

func decodeDebugMap(data []byte) []DebugEntry {
	r := bytes.NewReader(data)
	var count uint32
	if binary.Read(r, binary.LittleEndian, &count) != nil {
		return nil
	}
	entries := make([]DebugEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var pc, ln int32
		if binary.Read(r, binary.LittleEndian, &pc) != nil || binary.Read(r, binary.LittleEndian, &ln) != nil {
			break
		}
		entries = append(entries, DebugEntry{PC: int(pc), Line: int(ln)})
	}
	return entries
}
