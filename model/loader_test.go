package model_test

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"math"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/model"
)

func encodeCoordSpan(coords [][4]int8) []byte {
	buf := make([]byte, 0, 4*len(coords))
	for _, c := range coords {
		buf = append(buf, byte(c[0]), byte(c[1]), byte(c[2]), byte(c[3]))
	}
	return buf
}

func encodeVec3Span(vecs [][3]float64) []byte {
	var buf bytes.Buffer
	for _, v := range vecs {
		for _, f := range v {
			binary.Write(&buf, binary.LittleEndian, math.Float64bits(f)) //nolint:errcheck
		}
	}
	return buf.Bytes()
}

// seedDB builds the minimal schema model.SQLLoader expects and populates
// it with a single-collection, two-site model: a mobile particle (1) one
// hop from a void neighbor.
func seedDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE JobModels (Id INTEGER PRIMARY KEY, Kind TEXT, TemperatureKelvin REAL, ElectricFieldEV REAL, NormalizationFactor REAL)`,
		`CREATE TABLE LatticeModels (JobId INTEGER, Na INTEGER, Nb INTEGER, Nc INTEGER, Nd INTEGER, Particles BLOB, Positions BLOB)`,
		`CREATE TABLE PairEnergyTables (JobId INTEGER, Id INTEGER, ParticleA INTEGER, ParticleB INTEGER, EnergyKt REAL)`,
		`CREATE TABLE ClusterEnergyTables (JobId INTEGER, Id INTEGER, OccupationCode INTEGER, CenterParticle INTEGER, Column INTEGER, EnergyKt REAL)`,
		`CREATE TABLE EnvironmentDefinitions (JobId INTEGER, PositionID INTEGER, SelectionMask INTEGER, AllowedParticles INTEGER, StaticParticles INTEGER, UpdateParticleIDs BLOB)`,
		`CREATE TABLE EnvironmentDefinitions_PairInteractions (JobId INTEGER, PositionID INTEGER, Offset BLOB, PairTableID INTEGER)`,
		`CREATE TABLE EnvironmentDefinitions_ClusterInteractions (JobId INTEGER, PositionID INTEGER, Offsets BLOB, ClusterTableID INTEGER)`,
		`CREATE TABLE JumpCollections (JobId INTEGER, Id INTEGER, MobileParticleMask INTEGER)`,
		`CREATE TABLE JumpRules (JobId INTEGER, Id INTEGER, JumpCollectionID INTEGER, State0 BLOB, State1 BLOB, State2 BLOB, AttemptFrequencyFactor REAL, StaticActivationEnergy REAL, TrackerOrderCode BLOB, MobileParticleMask INTEGER)`,
		`CREATE TABLE JumpDirections (JobId INTEGER, Id INTEGER, StartPositionID INTEGER, JumpCollectionID INTEGER, ElectricFieldFactor REAL, Sequence BLOB, MovementVectors BLOB)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}

	const jobID = 1
	_, err = db.Exec(`INSERT INTO JobModels VALUES (?, 'kmc', 300, 0.0, 1.0)`, jobID)
	require.NoError(t, err)

	// Positions blob: two little-endian int32 position ids, both 0.
	posBlob := make([]byte, 8)
	_, err = db.Exec(`INSERT INTO LatticeModels VALUES (?, 1, 1, 2, 1, ?, ?)`,
		jobID, []byte{1, 0}, posBlob)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO PairEnergyTables VALUES (?, 0, 1, 0, 0.1)`, jobID)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO EnvironmentDefinitions VALUES (?, 0, ?, ?, 0, ?)`,
		jobID, uint64(1)<<1, (uint64(1)<<0)|(uint64(1)<<1), []byte{})
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO EnvironmentDefinitions_PairInteractions VALUES (?, 0, ?, 0)`,
		jobID, encodeCoordSpan([][4]int8{{0, 0, 1, 0}}))
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO JumpCollections VALUES (?, 0, ?)`, jobID, uint64(1)<<1)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO JumpRules VALUES (?, 0, 0, ?, ?, ?, 1.0, 0.0, ?, ?)`,
		jobID, []byte{1, 0}, []byte{1, 0}, []byte{0, 1}, []byte{1, 0}, uint64(1)<<1)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO JumpDirections VALUES (?, 0, 0, 0, 1.0, ?, ?)`,
		jobID, encodeCoordSpan([][4]int8{{0, 0, 0, 0}, {0, 0, 1, 0}}), encodeVec3Span([][3]float64{{0, 0, 0}, {1, 0, 0}}))
	require.NoError(t, err)

	return db
}

func TestSQLLoader_LoadAssemblesNormalizedModel(t *testing.T) {
	db := seedDB(t)
	loader := &model.SQLLoader{DB: db}

	m, err := loader.Load(1)
	require.NoError(t, err)
	require.True(t, m.Normalized())
	require.Equal(t, 2, m.SiteCount())
	require.Equal(t, 300.0, m.Header.TemperatureKelvin)
	require.Equal(t, model.JobKMC, m.Header.Variant)

	require.Len(t, m.JumpCollections, 1)
	require.Len(t, m.JumpCollections[0].Rules, 1)
	rule := m.JumpCollections[0].Rules[0]
	require.Equal(t, []uint8{1, 0}, rule.State0)
	require.Equal(t, []uint8{0, 1}, rule.State2)

	dirs := m.DirectionsOf(0)
	require.Len(t, dirs, 1)
	require.Len(t, dirs[0].MovementVectors, 2)
	require.Equal(t, 1.0, dirs[0].MovementVectors[1].X)
}

func TestDecodeArrayBlob_RoundTripsRowMajorData(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(2))          //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, int32(4))          //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, int32(2))          //nolint:errcheck
	for _, v := range []float64{1.5, 2.5, 3.5, 4.5} {
		binary.Write(&buf, binary.LittleEndian, math.Float64bits(v)) //nolint:errcheck
	}

	data, blockSizes, err := model.DecodeArrayBlob(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 2.5, 3.5, 4.5}, data)
	require.Equal(t, []int32{2}, blockSizes)
}

func TestDecodeSpanBlob_CopiesRawBytes(t *testing.T) {
	got := model.DecodeSpanBlob([]byte{1, 2, 3})
	require.Equal(t, []uint8{1, 2, 3}, got)
}
