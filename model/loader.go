package model

import (
	"database/sql"
	"encoding/binary"
	"math"

	"github.com/mocsim/mocsim/mocerr"
	"github.com/mocsim/mocsim/vec3"
)

// Loader is the boundary between the kernel and the input model database
// (spec.md §6/out-of-scope item (a)): only the shape of the populated
// Model matters to the kernel, not the SQL behind it.
type Loader interface {
	Load(jobID int64) (*Model, error)
}

// DecodeArrayBlob parses a rank-N row-major array blob (spec.md §6):
// {rank:int32, size:int32, blockSizes[rank-1]:int32 ...} followed by
// size float64 elements. It returns the flat row-major data and the
// per-dimension block sizes (strides) for index arithmetic by the caller.
func DecodeArrayBlob(blob []byte) (data []float64, blockSizes []int32, err error) {
	if len(blob) < 8 {
		return nil, nil, mocerr.Newf(mocerr.DataConsistency, "model.DecodeArrayBlob", "blob too short: %d bytes", len(blob))
	}
	rank := int32(binary.LittleEndian.Uint32(blob[0:]))
	size := int32(binary.LittleEndian.Uint32(blob[4:]))
	if rank < 1 || size < 0 {
		return nil, nil, mocerr.Newf(mocerr.DataConsistency, "model.DecodeArrayBlob", "invalid rank=%d size=%d", rank, size)
	}
	off := 8
	blockSizes = make([]int32, rank-1)
	for i := range blockSizes {
		if off+4 > len(blob) {
			return nil, nil, mocerr.Newf(mocerr.DataConsistency, "model.DecodeArrayBlob", "blob truncated in block-size header")
		}
		blockSizes[i] = int32(binary.LittleEndian.Uint32(blob[off:]))
		off += 4
	}
	data = make([]float64, size)
	for i := range data {
		if off+8 > len(blob) {
			return nil, nil, mocerr.Newf(mocerr.DataConsistency, "model.DecodeArrayBlob", "blob truncated in element data")
		}
		bits := binary.LittleEndian.Uint64(blob[off:])
		data[i] = math.Float64frombits(bits)
		off += 8
	}
	return data, blockSizes, nil
}

// DecodeSpanBlob parses a span blob: the raw uint8 element sequence, no
// header (spec.md §6).
func DecodeSpanBlob(blob []byte) []uint8 {
	out := make([]uint8, len(blob))
	copy(out, blob)
	return out
}

// SQLLoader implements Loader against a relational input-model database.
// It reads the JobModels, LatticeModels, PairEnergyTables,
// ClusterEnergyTables, EnvironmentDefinitions (plus its
// _PairInteractions/_ClusterInteractions tables), JumpCollections,
// JumpRules and JumpDirections tables.
// It fetches rows scoped to one job id and populates an in-memory Model,
// leaving schema/driver choice to the caller (spec.md out-of-scope item
// (a): only the shape of the populated model matters to the kernel).
type SQLLoader struct {
	DB *sql.DB
}

// NewSQLLoader opens a database/sql connection using driver/dsn. The
// driver must already be registered (e.g. via a blank import of
// github.com/mattn/go-sqlite3).
func NewSQLLoader(driver, dsn string) (*SQLLoader, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, mocerr.New(mocerr.Database, "model.NewSQLLoader", err)
	}
	return &SQLLoader{DB: db}, nil
}

// Load fetches the model rows scoped to jobID and assembles a Model,
// calling Normalize before returning it (spec.md §4.1).
func (l *SQLLoader) Load(jobID int64) (*Model, error) {
	hdr, err := l.loadHeader(jobID)
	if err != nil {
		return nil, err
	}
	lattice, err := l.loadLattice(jobID)
	if err != nil {
		return nil, err
	}
	pairTables, err := l.loadPairTables(jobID)
	if err != nil {
		return nil, err
	}
	clusterTables, err := l.loadClusterTables(jobID)
	if err != nil {
		return nil, err
	}
	envDefs, err := l.loadEnvironmentDefs(jobID)
	if err != nil {
		return nil, err
	}
	collections, directions, err := l.loadJumps(jobID)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Lattice:         lattice,
		Blocks:          BlocksFor(lattice.Extents),
		PairTables:      pairTables,
		ClusterTables:   clusterTables,
		EnvironmentDefs: envDefs,
		JumpCollections: collections,
		JumpDirections:  directions,
		Header:          hdr,
	}
	if err := m.Normalize(); err != nil {
		return nil, err
	}
	return m, nil
}

func (l *SQLLoader) loadHeader(jobID int64) (Header, error) {
	row := l.DB.QueryRow(`SELECT Kind, TemperatureKelvin, ElectricFieldEV, NormalizationFactor FROM JobModels WHERE Id = ?`, jobID)
	var kind string
	var h Header
	if err := row.Scan(&kind, &h.TemperatureKelvin, &h.ElectricFieldEV, &h.NormalizationFactor); err != nil {
		return Header{}, mocerr.New(mocerr.Database, "model.SQLLoader.loadHeader", err)
	}
	if kind == "mmc" {
		h.Variant = JobMMC
	} else {
		h.Variant = JobKMC
	}
	return h, nil
}

func (l *SQLLoader) loadLattice(jobID int64) (InputLattice, error) {
	row := l.DB.QueryRow(`SELECT Na, Nb, Nc, Nd, Particles, Positions FROM LatticeModels WHERE JobId = ?`, jobID)
	var ext Extents
	var particlesBlob, positionsBlob []byte
	if err := row.Scan(&ext.Na, &ext.Nb, &ext.Nc, &ext.Nd, &particlesBlob, &positionsBlob); err != nil {
		return InputLattice{}, mocerr.New(mocerr.Database, "model.SQLLoader.loadLattice", err)
	}
	particles := DecodeSpanBlob(particlesBlob)
	posBytes := DecodeSpanBlob(positionsBlob)
	positions := make([]int, len(posBytes)/4)
	for i := range positions {
		positions[i] = int(binary.LittleEndian.Uint32(posBytes[i*4:]))
	}
	return InputLattice{Extents: ext, ParticleIDs: particles, PositionIDs: positions}, nil
}

func (l *SQLLoader) loadPairTables(jobID int64) ([]*PairTable, error) {
	rows, err := l.DB.Query(`SELECT Id, ParticleA, ParticleB, EnergyKt FROM PairEnergyTables WHERE JobId = ? ORDER BY Id`, jobID)
	if err != nil {
		return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadPairTables", err)
	}
	defer rows.Close()

	entriesByTable := map[int]map[[2]uint8]float64{}
	var order []int
	for rows.Next() {
		var id int
		var a, b uint8
		var e float64
		if err := rows.Scan(&id, &a, &b, &e); err != nil {
			return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadPairTables", err)
		}
		m, ok := entriesByTable[id]
		if !ok {
			m = map[[2]uint8]float64{}
			entriesByTable[id] = m
			order = append(order, id)
		}
		m[[2]uint8{a, b}] = e
	}
	out := make([]*PairTable, 0, len(order))
	for _, id := range order {
		out = append(out, NewPairTable(id, entriesByTable[id]))
	}
	return out, nil
}

func (l *SQLLoader) loadClusterTables(jobID int64) ([]*ClusterTable, error) {
	rows, err := l.DB.Query(`SELECT Id, OccupationCode, CenterParticle, Column, EnergyKt FROM ClusterEnergyTables WHERE JobId = ? ORDER BY Id`, jobID)
	if err != nil {
		return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadClusterTables", err)
	}
	defer rows.Close()

	type tableAccum struct {
		columns map[uint8]int
		rows    map[uint64][]float64
	}
	accum := map[int]*tableAccum{}
	var order []int
	for rows.Next() {
		var id int
		var code uint64
		var center uint8
		var column int
		var energy float64
		if err := rows.Scan(&id, &code, &center, &column, &energy); err != nil {
			return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadClusterTables", err)
		}
		a, ok := accum[id]
		if !ok {
			a = &tableAccum{columns: map[uint8]int{}, rows: map[uint64][]float64{}}
			accum[id] = a
			order = append(order, id)
		}
		a.columns[center] = column
		rowEnergies, ok := a.rows[code]
		if !ok {
			rowEnergies = make([]float64, len(a.columns))
			a.rows[code] = rowEnergies
		}
		for len(rowEnergies) <= column {
			rowEnergies = append(rowEnergies, 0)
		}
		rowEnergies[column] = energy
		a.rows[code] = rowEnergies
	}
	out := make([]*ClusterTable, 0, len(order))
	for _, id := range order {
		a := accum[id]
		out = append(out, NewClusterTable(id, a.columns, a.rows))
	}
	return out, nil
}

// decodeCoordSpan parses a span blob of packed 4-byte-per-entry relative
// offsets (one signed byte per A/B/C/D component) into Coord4 values —
// the same layout loadJumps uses for a direction's JumpSequence.
func decodeCoordSpan(blob []byte) []Coord4 {
	raw := DecodeSpanBlob(blob)
	out := make([]Coord4, len(raw)/4)
	for i := range out {
		out[i] = Coord4{
			A: int32(int8(raw[i*4+0])),
			B: int32(int8(raw[i*4+1])),
			C: int32(int8(raw[i*4+2])),
			D: int32(int8(raw[i*4+3])),
		}
	}
	return out
}

func (l *SQLLoader) loadEnvironmentDefs(jobID int64) ([]*EnvironmentDefinition, error) {
	rows, err := l.DB.Query(`SELECT PositionID, SelectionMask, AllowedParticles, StaticParticles, UpdateParticleIDs FROM EnvironmentDefinitions WHERE JobId = ? ORDER BY PositionID`, jobID)
	if err != nil {
		return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadEnvironmentDefs", err)
	}
	defer rows.Close()

	var defs []*EnvironmentDefinition
	for rows.Next() {
		var d EnvironmentDefinition
		var selMask, allowedMask, staticMask uint64
		var updateBlob []byte
		if err := rows.Scan(&d.PositionID, &selMask, &allowedMask, &staticMask, &updateBlob); err != nil {
			return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadEnvironmentDefs", err)
		}
		d.SelectionMask = ParticleMask(selMask)
		d.AllowedParticles = ParticleMask(allowedMask)
		d.StaticParticles = ParticleMask(staticMask)
		d.UpdateParticleIDs = DecodeSpanBlob(updateBlob)

		pairs, err := l.loadPairInteractions(jobID, d.PositionID)
		if err != nil {
			return nil, err
		}
		d.PairInteractions = pairs

		clusters, err := l.loadClusterInteractions(jobID, d.PositionID)
		if err != nil {
			return nil, err
		}
		d.ClusterInteractions = clusters

		defs = append(defs, &d)
	}
	return defs, nil
}

func (l *SQLLoader) loadPairInteractions(jobID int64, positionID int) ([]PairInteraction, error) {
	rows, err := l.DB.Query(`SELECT Offset, PairTableID FROM EnvironmentDefinitions_PairInteractions WHERE JobId = ? AND PositionID = ?`, jobID, positionID)
	if err != nil {
		return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadPairInteractions", err)
	}
	defer rows.Close()

	var out []PairInteraction
	for rows.Next() {
		var offsetBlob []byte
		var tableID int
		if err := rows.Scan(&offsetBlob, &tableID); err != nil {
			return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadPairInteractions", err)
		}
		offsets := decodeCoordSpan(offsetBlob)
		if len(offsets) != 1 {
			return nil, mocerr.Newf(mocerr.DataConsistency, "model.SQLLoader.loadPairInteractions", "pair interaction offset blob must encode exactly 1 Coord4, got %d", len(offsets))
		}
		out = append(out, PairInteraction{Offset: offsets[0], PairTableID: tableID})
	}
	return out, nil
}

func (l *SQLLoader) loadClusterInteractions(jobID int64, positionID int) ([]ClusterInteraction, error) {
	rows, err := l.DB.Query(`SELECT Offsets, ClusterTableID FROM EnvironmentDefinitions_ClusterInteractions WHERE JobId = ? AND PositionID = ?`, jobID, positionID)
	if err != nil {
		return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadClusterInteractions", err)
	}
	defer rows.Close()

	var out []ClusterInteraction
	for rows.Next() {
		var offsetsBlob []byte
		var tableID int
		if err := rows.Scan(&offsetsBlob, &tableID); err != nil {
			return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadClusterInteractions", err)
		}
		out = append(out, ClusterInteraction{Offsets: decodeCoordSpan(offsetsBlob), ClusterTableID: tableID})
	}
	return out, nil
}

func (l *SQLLoader) loadJumps(jobID int64) ([]*JumpCollection, []*JumpDirection, error) {
	collRows, err := l.DB.Query(`SELECT Id, MobileParticleMask FROM JumpCollections WHERE JobId = ? ORDER BY Id`, jobID)
	if err != nil {
		return nil, nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadJumps", err)
	}
	defer collRows.Close()

	var collections []*JumpCollection
	for collRows.Next() {
		var c JumpCollection
		var mask uint64
		if err := collRows.Scan(&c.ID, &mask); err != nil {
			return nil, nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadJumps", err)
		}
		c.MobileParticleMask = ParticleMask(mask)
		rules, err := l.loadRules(jobID, c.ID)
		if err != nil {
			return nil, nil, err
		}
		c.Rules = rules
		collections = append(collections, &c)
	}

	dirRows, err := l.DB.Query(`SELECT Id, StartPositionID, JumpCollectionID, ElectricFieldFactor, Sequence, MovementVectors FROM JumpDirections WHERE JobId = ? ORDER BY JumpCollectionID, Id`, jobID)
	if err != nil {
		return nil, nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadJumps", err)
	}
	defer dirRows.Close()

	var directions []*JumpDirection
	for dirRows.Next() {
		var d JumpDirection
		var seqBlob, movBlob []byte
		if err := dirRows.Scan(&d.ID, &d.StartPositionID, &d.JumpCollectionID, &d.ElectricFieldFactor, &seqBlob, &movBlob); err != nil {
			return nil, nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadJumps", err)
		}
		seq := DecodeSpanBlob(seqBlob)
		d.JumpSequence = make([]Coord4, len(seq)/4)
		for i := range d.JumpSequence {
			d.JumpSequence[i] = Coord4{
				A: int32(int8(seq[i*4+0])),
				B: int32(int8(seq[i*4+1])),
				C: int32(int8(seq[i*4+2])),
				D: int32(int8(seq[i*4+3])),
			}
		}
		vecs, err := decodeVec3Span(movBlob)
		if err != nil {
			return nil, nil, mocerr.New(mocerr.DataConsistency, "model.SQLLoader.loadJumps", err)
		}
		d.MovementVectors = vecs
		directions = append(directions, &d)
	}

	return collections, directions, nil
}

// loadRules fetches the rule rows belonging to one jump collection. State
// occupation vectors and the tracker-reorder code are span/array blobs
// keyed by the same per-row length (the jump-sequence length L).
func (l *SQLLoader) loadRules(jobID int64, collectionID int) ([]JumpRule, error) {
	rows, err := l.DB.Query(`SELECT Id, State0, State1, State2, AttemptFrequencyFactor, StaticActivationEnergy, TrackerOrderCode, MobileParticleMask FROM JumpRules WHERE JobId = ? AND JumpCollectionID = ? ORDER BY Id`, jobID, collectionID)
	if err != nil {
		return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadRules", err)
	}
	defer rows.Close()

	var out []JumpRule
	for rows.Next() {
		var r JumpRule
		var state0, state1, state2, orderBlob []byte
		var mask uint64
		if err := rows.Scan(&r.ID, &state0, &state1, &state2, &r.AttemptFrequencyFactor, &r.StaticActivationEnergy, &orderBlob, &mask); err != nil {
			return nil, mocerr.New(mocerr.Database, "model.SQLLoader.loadRules", err)
		}
		r.State0 = DecodeSpanBlob(state0)
		r.State1 = DecodeSpanBlob(state1)
		r.State2 = DecodeSpanBlob(state2)
		r.MobileParticleMask = ParticleMask(mask)
		order := DecodeSpanBlob(orderBlob)
		r.TrackerOrderCode = make([]int, len(order))
		for i, b := range order {
			r.TrackerOrderCode[i] = int(b)
		}
		out = append(out, r)
	}
	return out, nil
}

// decodeVec3Span parses a span blob of 24-byte-per-slot (X,Y,Z float64)
// Cartesian movement vectors.
func decodeVec3Span(blob []byte) ([]vec3.Vec3, error) {
	if len(blob)%24 != 0 {
		return nil, mocerr.Newf(mocerr.DataConsistency, "model.decodeVec3Span", "blob length %d not a multiple of 24", len(blob))
	}
	out := make([]vec3.Vec3, len(blob)/24)
	for i := range out {
		off := i * 24
		out[i] = vec3.Vec3{
			X: math.Float64frombits(binary.LittleEndian.Uint64(blob[off:])),
			Y: math.Float64frombits(binary.LittleEndian.Uint64(blob[off+8:])),
			Z: math.Float64frombits(binary.LittleEndian.Uint64(blob[off+16:])),
		}
	}
	return out, nil
}
